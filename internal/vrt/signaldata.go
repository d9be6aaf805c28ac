package vrt

// SignalData carries the raw sample bytes of a signal-data or
// extension-data packet. The codec does not interpret sample format,
// sample endianness, or I/Q layout; those are application-level concerns
// layered on top of this byte buffer.
type SignalData struct {
	Samples []byte
}

func decodeSignalData(b []byte, remaining int) (SignalData, error) {
	if len(b) < remaining {
		return SignalData{}, errShortBuffer(remaining, len(b))
	}
	buf := make([]byte, remaining)
	copy(buf, b[:remaining])
	return SignalData{Samples: buf}, nil
}

func (s SignalData) encode() []byte {
	return append([]byte(nil), s.Samples...)
}

func (s SignalData) sizeBytes() int {
	return len(s.Samples)
}
