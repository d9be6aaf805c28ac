package vrt

import "encoding/binary"

// CIF0 is the primary Context Indicator Field. Bit 0 enables the CIF7
// per-field attribute feature; bit 1 enables a trailing CIF1 indicator
// word; bits 2-31 each select one CIF0 data field.
type CIF0 struct {
	word uint32
}

func (c CIF0) CIF7Enabled() bool   { return bit32(c.word, 0) }
func (c CIF0) CIF1Enabled() bool   { return bit32(c.word, 1) }

// ReservedBits returns the value of CIF0 bits 2-7, which this codec
// assigns no field to; a conformant transmitter leaves them zero.
func (c CIF0) ReservedBits() uint32 { return (c.word >> 2) & 0x3F }

func (c CIF0) dataBit(n int) bool  { return bit32(c.word, n) }
func (c *CIF0) setDataBit(n int, v bool) { setBit32(&c.word, n, v) }
func (c *CIF0) setCIF7Enabled(v bool)     { setBit32(&c.word, 0, v) }
func (c *CIF0) setCIF1Enabled(v bool)     { setBit32(&c.word, 1, v) }

func decodeCIF0(b []byte) (CIF0, error) {
	if len(b) < 4 {
		return CIF0{}, errShortBuffer(4, len(b))
	}
	return CIF0{word: binary.BigEndian.Uint32(b[0:4])}, nil
}

func (c CIF0) encode() [4]byte {
	var out [4]byte
	binary.BigEndian.PutUint32(out[:], c.word)
	return out
}

// CIF1 is the secondary Context Indicator Field, present only when
// CIF0.CIF1Enabled(). Bits 0 and 1 are reserved in this codec (no CIF2/CIF3
// support); bits 2-31 select CIF1 data fields.
type CIF1 struct {
	word uint32
}

func (c CIF1) dataBit(n int) bool        { return bit32(c.word, n) }
func (c *CIF1) setDataBit(n int, v bool) { setBit32(&c.word, n, v) }

func decodeCIF1(b []byte) (CIF1, error) {
	if len(b) < 4 {
		return CIF1{}, errShortBuffer(4, len(b))
	}
	return CIF1{word: binary.BigEndian.Uint32(b[0:4])}, nil
}

func (c CIF1) encode() [4]byte {
	var out [4]byte
	binary.BigEndian.PutUint32(out[:], c.word)
	return out
}

// CIF7 carries the per-field attribute-vector kind selectors (ANSI/VITA
// 49.2-2017 section 9.12). It is present only when the CIF7 build feature
// is enabled and CIF0.CIF7Enabled() is set.
type CIF7 struct {
	word uint32
}

const (
	cif7BitCurrent          = 31
	cif7BitAverage          = 30
	cif7BitMedian           = 29
	cif7BitStdDev           = 28
	cif7BitMax              = 27
	cif7BitMin              = 26
	cif7BitPrecision        = 25
	cif7BitAccuracy         = 24
	cif7BitFirstDerivative  = 23
	cif7BitSecondDerivative = 22
	cif7BitThirdDerivative  = 21
	cif7BitProbability      = 20
	cif7BitBelief           = 19
)

func (c CIF7) Current() bool          { return bit32(c.word, cif7BitCurrent) }
func (c CIF7) Average() bool          { return bit32(c.word, cif7BitAverage) }
func (c CIF7) Median() bool           { return bit32(c.word, cif7BitMedian) }
func (c CIF7) StdDev() bool           { return bit32(c.word, cif7BitStdDev) }
func (c CIF7) Max() bool              { return bit32(c.word, cif7BitMax) }
func (c CIF7) Min() bool              { return bit32(c.word, cif7BitMin) }
func (c CIF7) Precision() bool        { return bit32(c.word, cif7BitPrecision) }
func (c CIF7) Accuracy() bool         { return bit32(c.word, cif7BitAccuracy) }
func (c CIF7) FirstDerivative() bool  { return bit32(c.word, cif7BitFirstDerivative) }
func (c CIF7) SecondDerivative() bool { return bit32(c.word, cif7BitSecondDerivative) }
func (c CIF7) ThirdDerivative() bool  { return bit32(c.word, cif7BitThirdDerivative) }
func (c CIF7) Probability() bool      { return bit32(c.word, cif7BitProbability) }
func (c CIF7) Belief() bool           { return bit32(c.word, cif7BitBelief) }

// NumSet returns the population count of attribute-kind bits, used to know
// how many sibling attribute values trail each primary field.
func (c CIF7) NumSet() int {
	n := 0
	for bit := cif7BitBelief; bit <= cif7BitCurrent; bit++ {
		if bit32(c.word, bit) {
			n++
		}
	}
	return n
}

// NumExtraAttrs returns the number of attribute values beyond the implicit
// "current" slot that trail each CIF7-enabled field.
func (c CIF7) NumExtraAttrs() int {
	n := c.NumSet()
	if n == 0 {
		return 0
	}
	return n - 1
}

func decodeCIF7(b []byte) (CIF7, error) {
	if len(b) < 4 {
		return CIF7{}, errShortBuffer(4, len(b))
	}
	return CIF7{word: binary.BigEndian.Uint32(b[0:4])}, nil
}

func (c CIF7) encode() [4]byte {
	var out [4]byte
	binary.BigEndian.PutUint32(out[:], c.word)
	return out
}
