package vrt

import "testing"

// TestContextBandwidthField mirrors a context packet carrying a single
// CIF0 bandwidth field at 100 MHz (radix-20 fixed point), verifying the
// semantic getter rather than a literal (and, in the source material,
// internally inconsistent) byte sequence.
func TestContextBandwidthField(t *testing.T) {
	p, err := NewPacket(PacketTypeContext, Features{})
	if err != nil {
		t.Fatal(err)
	}
	p.StreamID = 2

	ctx, _ := p.Payload.AsContext()
	if err := ctx.SetFloat("bandwidth", 1e8); err != nil {
		t.Fatal(err)
	}
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
	bctx, err := back.Payload.AsContext()
	if err != nil {
		t.Fatal(err)
	}
	got, ok := bctx.GetFloat("bandwidth")
	if !ok {
		t.Fatal("bandwidth field not present after roundtrip")
	}
	const tol = 1.0 / (1 << 20)
	if diff := got - 1e8; diff > tol || diff < -tol {
		t.Fatalf("got %v, want ~1e8", got)
	}
}

// TestContextCIF1FieldPresence exercises a CIF1-bearing field and checks
// that CIF1's indicator word round-trips alongside CIF0's.
func TestContextCIF1FieldPresence(t *testing.T) {
	p, err := NewPacket(PacketTypeContext, Features{})
	if err != nil {
		t.Fatal(err)
	}
	ctx, _ := p.Payload.AsContext()
	if err := ctx.SetFloat("range", 42.5); err != nil {
		t.Fatal(err)
	}
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
	bctx, _ := back.Payload.AsContext()
	if !bctx.cif0.CIF1Enabled() {
		t.Fatal("CIF0.cif1_enable must be set once a CIF1 field is present")
	}
	if !bctx.cif1Present {
		t.Fatal("CIF1 word must be present on the wire")
	}
	got, ok := bctx.GetFloat("range")
	if !ok || (got-42.5) > 1.0/128 || (got-42.5) < -1.0/128 {
		t.Fatalf("got range=%v ok=%v, want ~42.5", got, ok)
	}
}

// TestCIFSymmetry asserts that for every setter call, the indicator bit
// and the presence of the backing value move together, and that clearing
// a field removes both.
func TestCIFSymmetry(t *testing.T) {
	c := newCIFBlock()
	if err := c.SetFloat("gain", 0); err == nil {
		t.Fatal("gain is a dual-fixed field; SetFloat should refuse it")
	}
	if err := c.SetDualFixed16("gain", dualFixed16{Stage1: 1, Stage2: 2}); err != nil {
		t.Fatal(err)
	}
	if !c.cif0.dataBit(23) {
		t.Fatal("gain indicator bit (23) must be set after SetDualFixed16")
	}
	if !c.fields.has("gain") {
		t.Fatal("gain value must be present after SetDualFixed16")
	}

	c.Clear("gain")
	if c.cif0.dataBit(23) {
		t.Fatal("gain indicator bit must be cleared after Clear")
	}
	if c.fields.has("gain") {
		t.Fatal("gain value must be absent after Clear")
	}
}

func TestDeviceIdentifierRoundTrip(t *testing.T) {
	c := newCIFBlock()
	want := DeviceIdentifier{ManufacturerOUI: 0x00112233 & 0x00FFFFFF, DeviceCode: 0xBEEF}
	if err := c.SetDeviceID("device_identifier", want); err != nil {
		t.Fatal(err)
	}
	enc, err := c.encode()
	if err != nil {
		t.Fatal(err)
	}
	dec, n, err := decodeCIFBlock(enc, Features{})
	if err != nil {
		t.Fatal(err)
	}
	if n != len(enc) {
		t.Fatalf("consumed %d bytes, want %d", n, len(enc))
	}
	got, ok := dec.GetDeviceID("device_identifier")
	if !ok || got != want {
		t.Fatalf("got %+v ok=%v, want %+v", got, ok, want)
	}
}
