package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openvrt/vrtcodec/internal/vrt"
)

func writeCapture(t *testing.T, packets ...*vrt.Packet) string {
	t.Helper()
	tmp := filepath.Join(t.TempDir(), "capture.vrt")
	f, err := os.Create(tmp)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	for _, p := range packets {
		p.RecomputeSize()
		b, err := p.Serialize()
		if err != nil {
			t.Fatalf("serialize: %v", err)
		}
		if _, err := f.Write(b); err != nil {
			t.Fatal(err)
		}
	}
	return tmp
}

func newContextPacket(t *testing.T, streamID uint32) *vrt.Packet {
	t.Helper()
	p, err := vrt.NewPacket(vrt.PacketTypeContext, vrt.Features{})
	if err != nil {
		t.Fatal(err)
	}
	p.StreamID = streamID
	return p
}

func TestCheckSizeFreshPassesOnCleanCapture(t *testing.T) {
	file := writeCapture(t, newContextPacket(t, 1))
	e := NewEngine(RulePack{Rules: []Rule{{RuleId: "size-fresh", FixFunc: "CheckSizeFresh"}}})
	e.Register("CheckSizeFresh", CheckSizeFresh)
	diags, err := e.Eval(&Context{InputFile: file})
	if err != nil {
		t.Fatal(err)
	}
	if len(diags) != 1 || diags[0].Severity != INFO {
		t.Fatalf("got %+v, want one INFO diagnostic", diags)
	}
}

func TestCheckReservedCIFBitsReportsClearReservedBits(t *testing.T) {
	p := newContextPacket(t, 2)
	ctx, err := p.Payload.AsContext()
	if err != nil {
		t.Fatal(err)
	}
	if err := ctx.SetFloat("bandwidth", 1e6); err != nil {
		t.Fatal(err)
	}
	p.Payload.SetContext(ctx)
	p.RecomputeSize()

	file := writeCapture(t, p)
	e := NewEngine(RulePack{Rules: []Rule{{RuleId: "reserved", FixFunc: "CheckReservedCIFBits"}}})
	e.Register("CheckReservedCIFBits", CheckReservedCIFBits)
	diags, err := e.Eval(&Context{InputFile: file})
	if err != nil {
		t.Fatal(err)
	}
	if len(diags) != 1 || diags[0].Severity != INFO {
		t.Fatalf("got %+v, want CIF0 reserved bits reported clear", diags)
	}
}

func TestCheckAckClassConsistentFlagsAckClassNone(t *testing.T) {
	p, err := vrt.NewPacket(vrt.PacketTypeCommand, vrt.Features{})
	if err != nil {
		t.Fatal(err)
	}
	cmd, _ := p.Payload.AsCommand()
	cmd.ControlWord.SetShape(vrt.ShapeAcknowledgement)
	cmd.ControlWord.SetAckClass(vrt.AckClassNone)
	p.Payload.SetCommand(cmd)
	p.RecomputeSize()

	file := writeCapture(t, p)
	e := NewEngine(RulePack{Rules: []Rule{{RuleId: "ack-class", FixFunc: "CheckAckClassConsistent"}}})
	e.Register("CheckAckClassConsistent", CheckAckClassConsistent)
	diags, err := e.Eval(&Context{InputFile: file})
	if err != nil {
		t.Fatal(err)
	}
	if len(diags) != 1 || diags[0].Severity != WARN {
		t.Fatalf("got %+v, want a WARN for AckClassNone acknowledgement", diags)
	}
}

func TestCheckSignalDataNonEmptyFlagsEmptySamples(t *testing.T) {
	p, err := vrt.NewPacket(vrt.PacketTypeSignalDataStreamID, vrt.Features{})
	if err != nil {
		t.Fatal(err)
	}
	p.StreamID = 9
	p.RecomputeSize()

	file := writeCapture(t, p)
	e := NewEngine(RulePack{Rules: []Rule{{RuleId: "nonempty", FixFunc: "CheckSignalDataNonEmpty"}}})
	e.Register("CheckSignalDataNonEmpty", CheckSignalDataNonEmpty)
	diags, err := e.Eval(&Context{InputFile: file})
	if err != nil {
		t.Fatal(err)
	}
	if len(diags) != 1 || diags[0].Severity != WARN {
		t.Fatalf("got %+v, want a WARN for zero-length samples", diags)
	}
}

func TestEngineMakeAcceptanceCountsBySeverity(t *testing.T) {
	file := writeCapture(t, newContextPacket(t, 1))
	e := NewEngine(RulePack{Rules: []Rule{
		{RuleId: "size-fresh", FixFunc: "CheckSizeFresh"},
		{RuleId: "missing", FixFunc: "NoSuchFunction"},
	}})
	e.Register("CheckSizeFresh", CheckSizeFresh)
	if _, err := e.Eval(&Context{InputFile: file}); err != nil {
		t.Fatal(err)
	}
	acc := e.MakeAcceptance()
	if acc.Summary.Total != 2 || acc.Summary.Warnings != 1 {
		t.Fatalf("got %+v, want total=2 warnings=1 (missing fix function)", acc.Summary)
	}
}
