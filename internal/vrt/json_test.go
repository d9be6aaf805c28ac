package vrt

import (
	"encoding/json"
	"testing"
)

func TestPacketJSONRoundTrip(t *testing.T) {
	p, err := NewPacket(PacketTypeContext, Features{})
	if err != nil {
		t.Fatal(err)
	}
	p.StreamID = 5
	p.SetIntegerTimestamp(12345, TSIUTC)
	ctx, _ := p.Payload.AsContext()
	if err := ctx.SetFloat("bandwidth", 2e7); err != nil {
		t.Fatal(err)
	}
	if err := ctx.SetDualFixed16("gain", dualFixed16{Stage1: 3.5, Stage2: -1.0}); err != nil {
		t.Fatal(err)
	}
	p.Payload.SetContext(ctx)
	p.RecomputeSize()

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}

	var back Packet
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("UnmarshalJSON: %v\n%s", err, data)
	}
	if back.Header.PacketType != PacketTypeContext {
		t.Fatalf("got packet type %v, want Context", back.Header.PacketType)
	}
	if back.StreamID != 5 {
		t.Fatalf("got stream id %d, want 5", back.StreamID)
	}
	if back.Header.TSI != TSIUTC || back.IntegerTimestamp != 12345 {
		t.Fatalf("got TSI=%v ts=%d, want UTC/12345", back.Header.TSI, back.IntegerTimestamp)
	}
	bctx, err := back.Payload.AsContext()
	if err != nil {
		t.Fatal(err)
	}
	bw, ok := bctx.GetFloat("bandwidth")
	if !ok || (bw-2e7) > 1.0/(1<<20) || (bw-2e7) < -1.0/(1<<20) {
		t.Fatalf("got bandwidth %v ok=%v, want ~2e7", bw, ok)
	}
	gain, ok := bctx.GetDualFixed16("gain")
	if !ok || gain.Stage1 != 3.5 || gain.Stage2 != -1.0 {
		t.Fatalf("got gain %+v ok=%v, want {3.5 -1}", gain, ok)
	}
}

func TestCommandJSONRoundTrip(t *testing.T) {
	p, err := NewPacket(PacketTypeCommand, Features{})
	if err != nil {
		t.Fatal(err)
	}
	cmd, _ := p.Payload.AsCommand()
	cmd.ControlWord.SetShape(ShapeControl)
	cmd.ControlWord.SetAckClass(AckClassExecution)
	cmd.MessageID = 77
	cmd.SetControlleeID(12)
	cmd.ControlWord.SetControlleeEnabled(true)
	p.Payload.SetCommand(cmd)
	p.RecomputeSize()

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var back Packet
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("%v\n%s", err, data)
	}
	bcmd, err := back.Payload.AsCommand()
	if err != nil {
		t.Fatal(err)
	}
	if bcmd.MessageID != 77 {
		t.Fatalf("got message id %d, want 77", bcmd.MessageID)
	}
	id, err := bcmd.ControlleeID()
	if err != nil || id != 12 {
		t.Fatalf("got controllee id %d err=%v, want 12", id, err)
	}
	if bcmd.ControlWord.AckClass() != AckClassExecution {
		t.Fatalf("got ack class %v, want Execution", bcmd.ControlWord.AckClass())
	}
}
