package vrt

import "testing"

// TestCommandControlMutateRecomputeSerialize exercises a Control command
// with a controllee id and one CIF field, adds a second field, and checks
// that serialize only succeeds after RecomputeSize.
func TestCommandControlMutateRecomputeSerialize(t *testing.T) {
	p, err := NewPacket(PacketTypeCommand, Features{})
	if err != nil {
		t.Fatal(err)
	}
	cmd, _ := p.Payload.AsCommand()
	cmd.ControlWord.SetShape(ShapeControl)
	cmd.ControlWord.SetAckClass(AckClassExecution)
	cmd.MessageID = 7
	cmd.SetControlleeID(99)
	cmd.ControlWord.SetControlleeEnabled(true)
	if err := cmd.SetFloat("rf_reference_frequency", 2.4e9); err != nil {
		t.Fatal(err)
	}
	p.Payload.SetCommand(cmd)
	p.RecomputeSize()

	out, err := p.Serialize()
	if err != nil {
		t.Fatal(err)
	}

	back, err := Parse(out, Features{})
	if err != nil {
		t.Fatal(err)
	}
	bcmd, err := back.Payload.AsCommand()
	if err != nil {
		t.Fatal(err)
	}
	if bcmd.ControlWord.Shape() != ShapeControl {
		t.Fatalf("got shape %v, want Control", bcmd.ControlWord.Shape())
	}
	id, err := bcmd.ControlleeID()
	if err != nil || id != 99 {
		t.Fatalf("got controllee id %d err=%v, want 99", id, err)
	}
	freq, ok := bcmd.GetFloat("rf_reference_frequency")
	const tol = 1.0 / (1 << 20)
	if !ok || (freq-2.4e9) > tol || (freq-2.4e9) < -tol {
		t.Fatalf("got frequency %v ok=%v, want ~2.4e9", freq, ok)
	}

	// adding a new field changes the wire size; serialize must refuse
	// until RecomputeSize is called again.
	if err := cmd.SetFloat("sample_rate", 1e6); err != nil {
		t.Fatal(err)
	}
	p.Payload.SetCommand(cmd)
	if _, err := p.Serialize(); err == nil {
		t.Fatal("expected SizeStale after adding a CIF field without RecomputeSize")
	}
	p.RecomputeSize()
	if _, err := p.Serialize(); err != nil {
		t.Fatalf("Serialize after RecomputeSize: %v", err)
	}
}

// TestCommandValidationAckWithError covers an Acknowledgement-shape
// command body carrying a warning/error word with one bit set, matching
// the "erroneous field" report a validation ack would return.
func TestCommandValidationAckWithError(t *testing.T) {
	p, err := NewPacket(PacketTypeCommand, Features{})
	if err != nil {
		t.Fatal(err)
	}
	cmd, _ := p.Payload.AsCommand()
	cmd.ControlWord.SetShape(ShapeAcknowledgement)
	cmd.ControlWord.SetAckClass(AckClassValidation)
	cmd.MessageID = 7
	cmd.AckResponse.SetErroneousField(true)
	cmd.AckResponse.SetParamOutOfRange(true)
	if err := cmd.SetFloat("rf_reference_frequency", 9.9e9); err != nil {
		t.Fatal(err)
	}
	p.Payload.SetCommand(cmd)
	p.RecomputeSize()

	out, err := p.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	back, err := Parse(out, Features{})
	if err != nil {
		t.Fatal(err)
	}
	bcmd, err := back.Payload.AsCommand()
	if err != nil {
		t.Fatal(err)
	}
	if bcmd.ControlWord.AckClass() != AckClassValidation {
		t.Fatalf("got ack class %v, want Validation", bcmd.ControlWord.AckClass())
	}
	if !bcmd.AckResponse.ErroneousField() || !bcmd.AckResponse.ParamOutOfRange() {
		t.Fatal("expected ErroneousField and ParamOutOfRange bits set")
	}
	if bcmd.AckResponse.DeviceFailure() {
		t.Fatal("DeviceFailure bit must not be set")
	}
}

// TestCommandCancellationIsIndicatorOnly verifies that a Cancellation
// body names fields by indicator bit alone, with no trailing data words.
func TestCommandCancellationIsIndicatorOnly(t *testing.T) {
	p, err := NewPacket(PacketTypeCommand, Features{})
	if err != nil {
		t.Fatal(err)
	}
	cmd, _ := p.Payload.AsCommand()
	cmd.ControlWord.SetShape(ShapeCancellation)
	cmd.MessageID = 3
	cmd.CIFBlock.cif0.setDataBit(29, true) // name "bandwidth" for cancellation, no value stored
	p.Payload.SetCommand(cmd)
	p.RecomputeSize()

	out, err := p.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	back, err := Parse(out, Features{})
	if err != nil {
		t.Fatal(err)
	}
	bcmd, _ := back.Payload.AsCommand()
	if bcmd.ControlWord.Shape() != ShapeCancellation {
		t.Fatalf("got shape %v, want Cancellation", bcmd.ControlWord.Shape())
	}
	if !bcmd.CIFBlock.cif0.dataBit(29) {
		t.Fatal("bandwidth indicator bit must survive a cancellation round-trip")
	}
	if _, ok := bcmd.GetFloat("bandwidth"); ok {
		t.Fatal("cancellation bodies must not carry field data")
	}
}

func TestControlleeIdentifierConflict(t *testing.T) {
	var cmd Command
	cmd.SetControlleeUUID([16]byte{1, 2, 3})
	if _, err := cmd.ControlleeID(); err == nil {
		t.Fatal("expected IdentifierConflict when reading ID in UUID mode")
	} else if verr, ok := err.(*Error); !ok || verr.Kind != KindIdentifierConflict {
		t.Fatalf("got %v, want IdentifierConflict", err)
	}
}
