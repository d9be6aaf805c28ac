package vrt

import (
	"bytes"
	"testing"
)

// TestMinimalSignalDataWithStreamID covers a minimal signal-data packet:
// header 0x10000004, stream_id 1, 8 payload bytes. This is the smallest
// self-consistent wire example (4 words = header + stream id + two
// payload words), so parse→serialize must be the identity.
func TestMinimalSignalDataWithStreamID(t *testing.T) {
	input := []byte{
		0x10, 0x00, 0x00, 0x04, // header: type=1 (SignalData+StreamID), size=4 words
		0x00, 0x00, 0x00, 0x01, // stream id = 1
		0xDE, 0xAD, 0xBE, 0xEF,
		0xCA, 0xFE, 0xBA, 0xBE,
	}

	p, err := Parse(input, Features{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Header.PacketType != PacketTypeSignalDataStreamID {
		t.Fatalf("got packet type %v, want SignalData+StreamID", p.Header.PacketType)
	}
	if p.Header.PacketSizeWords != 4 {
		t.Fatalf("got size %d words, want 4", p.Header.PacketSizeWords)
	}
	if p.StreamID != 1 {
		t.Fatalf("got stream id %d, want 1", p.StreamID)
	}
	sd, err := p.Payload.AsSignalData()
	if err != nil {
		t.Fatalf("AsSignalData: %v", err)
	}
	if len(sd.Samples) != 8 {
		t.Fatalf("got %d sample bytes, want 8", len(sd.Samples))
	}

	p.RecomputeSize()
	if p.Header.PacketSizeWords != 4 {
		t.Fatal("recompute_size must be a no-op on a freshly-parsed packet")
	}

	out, err := p.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !bytes.Equal(out, input) {
		t.Fatalf("roundtrip mismatch:\n got  %x\n want %x", out, input)
	}
}

// TestLengthMismatch corrupts the declared packet size so it no longer
// matches the actual buffer length.
func TestLengthMismatch(t *testing.T) {
	input := []byte{
		0x10, 0x00, 0x00, 0x08, // header claims size = 8 words = 32 bytes
		0x00, 0x00, 0x00, 0x01, // stream id
		0xDE, 0xAD, 0xBE, 0xEF, // only 4 bytes of payload: 12 bytes total
	}
	_, err := Parse(input, Features{})
	if err == nil {
		t.Fatal("expected LengthMismatch error")
	}
	verr, ok := err.(*Error)
	if !ok || verr.Kind != KindLengthMismatch {
		t.Fatalf("got %v, want LengthMismatch", err)
	}
	if verr.HeaderSays != 32 || verr.Actual != 12 {
		t.Fatalf("got {headerSays:%d actual:%d}, want {32,12}", verr.HeaderSays, verr.Actual)
	}
}

func TestSerializeRejectsStaleSize(t *testing.T) {
	p, err := NewPacket(PacketTypeSignalDataNoStreamID, Features{})
	if err != nil {
		t.Fatal(err)
	}
	sd, _ := p.Payload.AsSignalData()
	sd.Samples = []byte{1, 2, 3, 4}
	p.Payload.SetSignalData(sd)
	// deliberately do not call RecomputeSize.
	_, err = p.Serialize()
	if err == nil {
		t.Fatal("expected SizeStale error")
	}
	if verr, ok := err.(*Error); !ok || verr.Kind != KindSizeStale {
		t.Fatalf("got %v, want SizeStale", err)
	}
	p.RecomputeSize()
	if _, err := p.Serialize(); err != nil {
		t.Fatalf("Serialize after RecomputeSize: %v", err)
	}
}

func TestNoStreamIDVariantHasNoStreamID(t *testing.T) {
	p, err := NewPacket(PacketTypeSignalDataNoStreamID, Features{})
	if err != nil {
		t.Fatal(err)
	}
	if p.Header.PacketType.HasStreamID() {
		t.Fatal("PacketTypeSignalDataNoStreamID must report HasStreamID() == false")
	}
}

func TestClassIDRoundTrip(t *testing.T) {
	p, err := NewPacket(PacketTypeContext, Features{})
	if err != nil {
		t.Fatal(err)
	}
	p.Header.TSI = TSINone
	p.SetClassID(ClassID{OUI: 0x00AABBCC, InformationClassCode: 0x1234, PacketClassCode: 0x5678})
	ctx, _ := p.Payload.AsContext()
	ctx.SetFloat("bandwidth", 1e6)
	p.Payload.SetContext(ctx)
	p.RecomputeSize()

	out, err := p.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	back, err := Parse(out, Features{})
	if err != nil {
		t.Fatal(err)
	}
	if !back.Header.ClassIDIncluded {
		t.Fatal("ClassIDIncluded must be true after SetClassID")
	}
	if back.ClassID != p.ClassID {
		t.Fatalf("got %+v, want %+v", back.ClassID, p.ClassID)
	}
}
