package vrt

import "testing"

func TestDecodeHeaderRejectsReservedType(t *testing.T) {
	// top nibble 0x7 is reserved.
	b := []byte{0x70, 0x00, 0x00, 0x04}
	_, err := DecodeHeader(b)
	if err == nil {
		t.Fatal("expected InvalidPacketType error")
	}
	verr, ok := err.(*Error)
	if !ok || verr.Kind != KindInvalidPacketType {
		t.Fatalf("got %v, want InvalidPacketType", err)
	}
}

func TestDecodeHeaderRejectsTrailerOnContext(t *testing.T) {
	// packet type 0x4 (Context) with trailer_included bit (26) set.
	b := []byte{0x4C, 0x00, 0x00, 0x04}
	_, err := DecodeHeader(b)
	if err == nil {
		t.Fatal("expected InvalidHeader error")
	}
	verr, ok := err.(*Error)
	if !ok || verr.Kind != KindInvalidHeader {
		t.Fatalf("got %v, want InvalidHeader", err)
	}
}

func TestHeaderEncodeForcesTrailerBitOffForContext(t *testing.T) {
	h := Header{PacketType: PacketTypeContext, TrailerIncluded: true, PacketSizeWords: 4}
	enc := h.Encode()
	dec, err := DecodeHeader(enc[:])
	if err != nil {
		t.Fatal(err)
	}
	if dec.TrailerIncluded {
		t.Fatal("trailer_included should be forced to 0 for a Context packet type")
	}
}

func TestHeaderIncPacketCountWrapsModSixteen(t *testing.T) {
	h := Header{PacketCount: 15}
	h.IncPacketCount()
	if h.PacketCount != 0 {
		t.Fatalf("got %d, want 0", h.PacketCount)
	}
}
