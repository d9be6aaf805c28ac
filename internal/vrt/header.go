package vrt

import "encoding/binary"

// PacketType is the 4-bit discriminant in the top nibble of the header
// word. Only 0x0 through 0x6 are defined; every other 4-bit value is
// rejected with InvalidPacketType.
type PacketType byte

const (
	PacketTypeSignalDataNoStreamID PacketType = 0x0
	PacketTypeSignalDataStreamID   PacketType = 0x1
	PacketTypeExtensionDataNoSID   PacketType = 0x2
	PacketTypeExtensionDataSID     PacketType = 0x3
	PacketTypeContext              PacketType = 0x4
	PacketTypeExtensionContext     PacketType = 0x5
	PacketTypeCommand               PacketType = 0x6
)

func (t PacketType) String() string {
	switch t {
	case PacketTypeSignalDataNoStreamID:
		return "SignalData"
	case PacketTypeSignalDataStreamID:
		return "SignalData+StreamID"
	case PacketTypeExtensionDataNoSID:
		return "ExtensionData"
	case PacketTypeExtensionDataSID:
		return "ExtensionData+StreamID"
	case PacketTypeContext:
		return "Context"
	case PacketTypeExtensionContext:
		return "ExtensionContext"
	case PacketTypeCommand:
		return "Command"
	default:
		return "Reserved"
	}
}

func (t PacketType) valid() bool {
	return t <= PacketTypeCommand
}

// IsSignalData reports whether t names one of the two signal-data variants
// (plain or extension), with or without a Stream ID.
func (t PacketType) IsSignalData() bool {
	switch t {
	case PacketTypeSignalDataNoStreamID, PacketTypeSignalDataStreamID,
		PacketTypeExtensionDataNoSID, PacketTypeExtensionDataSID:
		return true
	default:
		return false
	}
}

// HasStreamID reports whether this packet type's wire layout includes a
// Stream ID word. Context, ExtensionContext and Command always carry one;
// the no-Stream-ID signal-data variants never do.
func (t PacketType) HasStreamID() bool {
	switch t {
	case PacketTypeSignalDataNoStreamID, PacketTypeExtensionDataNoSID:
		return false
	default:
		return true
	}
}

func (t PacketType) IsContext() bool {
	return t == PacketTypeContext || t == PacketTypeExtensionContext
}

func (t PacketType) IsCommand() bool {
	return t == PacketTypeCommand
}

// TSIMode selects the integer-timestamp interpretation.
type TSIMode byte

const (
	TSINone TSIMode = 0
	TSIUTC  TSIMode = 1
	TSIGPS  TSIMode = 2
	TSIOther TSIMode = 3
)

// TSFMode selects the fractional-timestamp interpretation.
type TSFMode byte

const (
	TSFNone            TSFMode = 0
	TSFSampleCount     TSFMode = 1
	TSFRealTimePicosec TSFMode = 2
	TSFFreeRunning     TSFMode = 3
)

// Header is the mandatory 32-bit prologue word present in every packet.
type Header struct {
	PacketType       PacketType
	ClassIDIncluded  bool
	TrailerIncluded  bool // meaningful only when PacketType.IsSignalData()
	TSI              TSIMode
	TSF              TSFMode
	PacketCount      uint8 // 4 bits, wraps mod 16
	PacketSizeWords  uint16
}

// DecodeHeader parses the 4-byte header word. It rejects reserved packet
// type codes and a trailer-included bit set on a non-signal-data packet.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < 4 {
		return Header{}, errShortBuffer(4, len(b))
	}
	word := binary.BigEndian.Uint32(b[0:4])

	pt := PacketType(BitRange32(word, 28, 31))
	if !pt.valid() {
		return Header{}, errInvalidPacketType(byte(pt))
	}

	h := Header{
		PacketType:      pt,
		ClassIDIncluded: bit32(word, 27),
		TrailerIncluded: bit32(word, 26),
		TSI:             TSIMode(BitRange32(word, 22, 23)),
		TSF:             TSFMode(BitRange32(word, 20, 21)),
		PacketCount:     uint8(BitRange32(word, 16, 19)),
		PacketSizeWords: uint16(BitRange32(word, 0, 15)),
	}
	if h.TrailerIncluded && !pt.IsSignalData() {
		return Header{}, errInvalidHeader("trailer_included set on a non-signal-data packet type")
	}
	return h, nil
}

// Encode serializes the header back to its 4-byte wire form. The
// trailer-included bit is forced to 0 for non-signal-data packet types.
func (h Header) Encode() [4]byte {
	var word uint32
	word, _ = SetBitRange32(word, 28, 31, uint32(h.PacketType))
	if h.ClassIDIncluded {
		setBit32(&word, 27, true)
	}
	if h.TrailerIncluded && h.PacketType.IsSignalData() {
		setBit32(&word, 26, true)
	}
	word, _ = SetBitRange32(word, 22, 23, uint32(h.TSI))
	word, _ = SetBitRange32(word, 20, 21, uint32(h.TSF))
	word, _ = SetBitRange32(word, 16, 19, uint32(h.PacketCount&0xF))
	word, _ = SetBitRange32(word, 0, 15, uint32(h.PacketSizeWords))

	var out [4]byte
	binary.BigEndian.PutUint32(out[:], word)
	return out
}

// IncPacketCount advances the mod-16 packet-count sequence.
func (h *Header) IncPacketCount() {
	h.PacketCount = (h.PacketCount + 1) & 0xF
}
