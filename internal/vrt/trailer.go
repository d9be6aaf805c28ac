package vrt

import "encoding/binary"

// SampleFrameIndicator names the position of a data packet within a
// multi-packet sample frame.
type SampleFrameIndicator byte

const (
	SampleFrameNotApplicable SampleFrameIndicator = 0
	SampleFrameFirst         SampleFrameIndicator = 1
	SampleFrameMiddle        SampleFrameIndicator = 2
	SampleFrameFinal         SampleFrameIndicator = 3
)

// Trailer is the optional 32-bit word that follows signal-data payloads. It
// packs an indicator half (which state bits are meaningful) and a state
// half (their values); reading a state bit whose indicator is unset reports
// "not present" via the second return value, never a sentinel.
type Trailer struct {
	word uint32
}

func decodeTrailer(b []byte) (Trailer, error) {
	if len(b) < 4 {
		return Trailer{}, errShortBuffer(4, len(b))
	}
	return Trailer{word: binary.BigEndian.Uint32(b[0:4])}, nil
}

func (t Trailer) encode() [4]byte {
	var out [4]byte
	binary.BigEndian.PutUint32(out[:], t.word)
	return out
}

func (t Trailer) flagPair(enableBit, valueBit int) (bool, bool) {
	if !bit32(t.word, enableBit) {
		return false, false
	}
	return bit32(t.word, valueBit), true
}

func (t *Trailer) setFlagPair(enableBit, valueBit int, value bool) {
	setBit32(&t.word, enableBit, true)
	setBit32(&t.word, valueBit, value)
}

func (t Trailer) CalTimeIndicator() (bool, bool)          { return t.flagPair(31, 19) }
func (t *Trailer) SetCalTimeIndicator(v bool)              { t.setFlagPair(31, 19, v) }
func (t Trailer) ValidDataIndicator() (bool, bool)         { return t.flagPair(30, 18) }
func (t *Trailer) SetValidDataIndicator(v bool)             { t.setFlagPair(30, 18, v) }
func (t Trailer) ReferenceLockIndicator() (bool, bool)      { return t.flagPair(29, 17) }
func (t *Trailer) SetReferenceLockIndicator(v bool)          { t.setFlagPair(29, 17, v) }
func (t Trailer) AGCIndicator() (bool, bool)                { return t.flagPair(28, 16) }
func (t *Trailer) SetAGCIndicator(v bool)                   { t.setFlagPair(28, 16, v) }
func (t Trailer) DetectedSignalIndicator() (bool, bool)     { return t.flagPair(27, 15) }
func (t *Trailer) SetDetectedSignalIndicator(v bool)         { t.setFlagPair(27, 15, v) }
func (t Trailer) SpectralInversionIndicator() (bool, bool)  { return t.flagPair(26, 14) }
func (t *Trailer) SetSpectralInversionIndicator(v bool)      { t.setFlagPair(26, 14, v) }
func (t Trailer) OverRangeIndicator() (bool, bool)          { return t.flagPair(25, 13) }
func (t *Trailer) SetOverRangeIndicator(v bool)              { t.setFlagPair(25, 13, v) }
func (t Trailer) SampleLossIndicator() (bool, bool)         { return t.flagPair(24, 12) }
func (t *Trailer) SetSampleLossIndicator(v bool)              { t.setFlagPair(24, 12, v) }

func (t Trailer) sampleFrameEnabled() bool {
	return bit32(t.word, 23) && bit32(t.word, 22)
}

// SampleFrameIndicatorValue returns the sample frame position when both
// enable bits (23, 22) are set.
func (t Trailer) SampleFrameIndicatorValue() (SampleFrameIndicator, bool) {
	if !t.sampleFrameEnabled() {
		return 0, false
	}
	return SampleFrameIndicator(BitRange32(t.word, 10, 11)), true
}

// SetSampleFrameIndicatorValue sets both enable bits and the 2-bit value.
func (t *Trailer) SetSampleFrameIndicatorValue(v SampleFrameIndicator) {
	setBit32(&t.word, 23, true)
	setBit32(&t.word, 22, true)
	t.word, _ = SetBitRange32(t.word, 10, 11, uint32(v))
}

func (t Trailer) userDefinedEnabled() bool {
	return bit32(t.word, 21) && bit32(t.word, 20)
}

// UserDefinedIndicator returns the 2-bit user-defined status when both
// enable bits (21, 20) are set.
func (t Trailer) UserDefinedIndicator() (uint8, bool) {
	if !t.userDefinedEnabled() {
		return 0, false
	}
	return uint8(BitRange32(t.word, 8, 9)), true
}

// SetUserDefinedIndicator sets both enable bits and the 2-bit value.
func (t *Trailer) SetUserDefinedIndicator(v uint8) {
	setBit32(&t.word, 21, true)
	setBit32(&t.word, 20, true)
	t.word, _ = SetBitRange32(t.word, 8, 9, uint32(v&0x3))
}

func (t Trailer) associatedContextPacketCountEnabled() bool {
	return bit32(t.word, 7)
}

// AssociatedContextPacketCount returns the 7-bit count when its enable bit
// (7) is set.
func (t Trailer) AssociatedContextPacketCount() (uint8, bool) {
	if !t.associatedContextPacketCountEnabled() {
		return 0, false
	}
	return uint8(t.word & 0x7F), true
}

// SetAssociatedContextPacketCount sets the enable bit and 7-bit count.
func (t *Trailer) SetAssociatedContextPacketCount(v uint8) {
	setBit32(&t.word, 7, true)
	t.word = (t.word &^ 0x7F) | uint32(v&0x7F)
}
