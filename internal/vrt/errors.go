package vrt

import "fmt"

// Kind names one of the failure modes the codec can report. Every malformed
// input or misuse of the API maps to exactly one Kind.
type Kind int

const (
	KindShortBuffer Kind = iota
	KindLengthMismatch
	KindInvalidPacketType
	KindInvalidHeader
	KindInvalidClassID
	KindWrongPayloadKind
	KindSizeStale
	KindCif7NotSupported
	KindUnsupportedCommand
	KindFixedPointOverflow
	KindIdentifierConflict
	KindInternalCifInconsistency
)

func (k Kind) String() string {
	switch k {
	case KindShortBuffer:
		return "ShortBuffer"
	case KindLengthMismatch:
		return "LengthMismatch"
	case KindInvalidPacketType:
		return "InvalidPacketType"
	case KindInvalidHeader:
		return "InvalidHeader"
	case KindInvalidClassID:
		return "InvalidClassID"
	case KindWrongPayloadKind:
		return "WrongPayloadKind"
	case KindSizeStale:
		return "SizeStale"
	case KindCif7NotSupported:
		return "Cif7NotSupported"
	case KindUnsupportedCommand:
		return "UnsupportedCommand"
	case KindFixedPointOverflow:
		return "FixedPointOverflow"
	case KindIdentifierConflict:
		return "IdentifierConflict"
	case KindInternalCifInconsistency:
		return "InternalCifInconsistency"
	default:
		return "Unknown"
	}
}

// Error is the single error type returned by every codec operation. Callers
// that need to branch on failure mode should switch on Kind rather than
// string-matching Error().
type Error struct {
	Kind Kind
	msg  string

	Need, Got             int
	HeaderSays, Actual    int
	PacketType            byte
	Reason                string
	Expected, ActualKind  PacketType
	Value                 float64
	Radix, Width          int
	CommandWord           uint32
}

func (e *Error) Error() string {
	if e.msg != "" {
		return fmt.Sprintf("vrt: %s: %s", e.Kind, e.msg)
	}
	return fmt.Sprintf("vrt: %s", e.Kind)
}

func errShortBuffer(need, got int) *Error {
	return &Error{Kind: KindShortBuffer, Need: need, Got: got,
		msg: fmt.Sprintf("need %d bytes, got %d", need, got)}
}

func errLengthMismatch(headerSays, actual int) *Error {
	return &Error{Kind: KindLengthMismatch, HeaderSays: headerSays, Actual: actual,
		msg: fmt.Sprintf("header declares %d bytes, buffer has %d", headerSays, actual)}
}

func errInvalidPacketType(pt byte) *Error {
	return &Error{Kind: KindInvalidPacketType, PacketType: pt,
		msg: fmt.Sprintf("reserved packet type 0x%X", pt)}
}

func errInvalidHeader(reason string) *Error {
	return &Error{Kind: KindInvalidHeader, Reason: reason, msg: reason}
}

func errInvalidClassID(reason string) *Error {
	return &Error{Kind: KindInvalidClassID, Reason: reason, msg: reason}
}

func errWrongPayloadKind(expected, actual PacketType) *Error {
	return &Error{Kind: KindWrongPayloadKind, Expected: expected, ActualKind: actual,
		msg: fmt.Sprintf("expected %s payload, got %s", expected, actual)}
}

func errSizeStale() *Error {
	return &Error{Kind: KindSizeStale, msg: "RecomputeSize must be called before Serialize"}
}

func errCif7NotSupported() *Error {
	return &Error{Kind: KindCif7NotSupported, msg: "CIF7 bit set but build does not support CIF7"}
}

func errUnsupportedCommand(word uint32) *Error {
	return &Error{Kind: KindUnsupportedCommand, CommandWord: word,
		msg: fmt.Sprintf("control word 0x%08X does not name a known command shape", word)}
}

func errFixedPointOverflow(value float64, radix, width int) *Error {
	return &Error{Kind: KindFixedPointOverflow, Value: value, Radix: radix, Width: width,
		msg: fmt.Sprintf("value %g does not fit in a %d-bit radix-%d field", value, width, radix)}
}

func errIdentifierConflict() *Error {
	return &Error{Kind: KindIdentifierConflict, msg: "ID and UUID fields are mutually exclusive"}
}

func errInternalCifInconsistency(reason string) *Error {
	return &Error{Kind: KindInternalCifInconsistency, Reason: reason, msg: reason}
}
