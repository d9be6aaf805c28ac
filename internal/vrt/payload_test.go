package vrt

import "testing"

func TestPayloadAccessorSafety(t *testing.T) {
	p, err := NewPacket(PacketTypeContext, Features{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Payload.AsContext(); err != nil {
		t.Fatalf("AsContext on a context payload: %v", err)
	}
	if _, err := p.Payload.AsCommand(); err == nil {
		t.Fatal("expected WrongPayloadKind from AsCommand on a context payload")
	} else if verr, ok := err.(*Error); !ok || verr.Kind != KindWrongPayloadKind {
		t.Fatalf("got %v, want WrongPayloadKind", err)
	}
	if _, err := p.Payload.AsSignalData(); err == nil {
		t.Fatal("expected WrongPayloadKind from AsSignalData on a context payload")
	}
}

func TestCIF7RequiresFeatureFlag(t *testing.T) {
	c := newCIFBlock()
	c.cif0.setCIF7Enabled(true)
	enc, err := c.encode()
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = decodeCIFBlock(enc, Features{CIF7: false})
	if err == nil {
		t.Fatal("expected Cif7NotSupported when the feature is disabled")
	}
	if verr, ok := err.(*Error); !ok || verr.Kind != KindCif7NotSupported {
		t.Fatalf("got %v, want Cif7NotSupported", err)
	}
}

func TestCIF7AttributeVectorSizing(t *testing.T) {
	c := newCIFBlock()
	c.cif0.setCIF7Enabled(true)
	c.cif7Present = true
	c.cif7.word = 0
	// set "average" and "max" kind bits: 2 total -> 1 extra attribute.
	setBit32(&c.cif7.word, cif7BitAverage, true)
	setBit32(&c.cif7.word, cif7BitMax, true)
	if got := c.cif7.NumSet(); got != 2 {
		t.Fatalf("NumSet() = %d, want 2", got)
	}
	if got := c.cif7.NumExtraAttrs(); got != 1 {
		t.Fatalf("NumExtraAttrs() = %d, want 1", got)
	}

	spec := cifFieldByName["reference_level"]
	c.fields.setRaw("reference_level", []uint32{128 << 16}) // 128/2^7 = 1.0 dBm
	c.fields.setRaw("reference_level_attrs", []uint32{256 << 16})
	c.cif0.setDataBit(spec.bit, true)

	enc, err := c.encode()
	if err != nil {
		t.Fatal(err)
	}
	dec, n, err := decodeCIFBlock(enc, Features{CIF7: true})
	if err != nil {
		t.Fatal(err)
	}
	if n != len(enc) {
		t.Fatalf("consumed %d of %d bytes", n, len(enc))
	}
	got, ok := dec.GetFloat("reference_level")
	if !ok {
		t.Fatal("reference_level missing after CIF7 round-trip")
	}
	if diff := got - 1.0; diff > 1.0/128 || diff < -1.0/128 {
		t.Fatalf("got %v, want ~1.0", got)
	}
}
