package vrt

import "encoding/binary"

// fieldKind names how a CIF data field's words are packed on the wire. The
// table in cifFieldTable drives both decode and encode for every CIF0/CIF1
// field from a single generic codec, rather than one hand-written
// accessor pair per field.
type fieldKind int

const (
	kindFlag          fieldKind = iota // presence only, no trailing words
	kindU32                            // one raw unsigned word
	kindU64                            // two raw words, no scaling
	kindFixed32Signed                  // one word, signed radix-N fixed point
	kindFixed32Hi16                   // one word, signed radix-N fixed point in bits 31-16
	kindDualFixed16                    // one word: two packed 16-bit signed radix-7 halves
	kindFixed64Signed                  // two words, signed radix-N fixed point
	kindDualFixed32                    // two words: two signed radix-N 32-bit halves
	kindDeviceID                       // two words: 24-bit OUI + 16-bit code
	kindVariable                       // leading word-count word + that many raw words
)

// fieldSpec is one row of the CIF field schema: which indicator word and
// bit selects it, how many wire words it occupies, and how those words
// convert to and from a float64/raw form.
type fieldSpec struct {
	name     string
	cif      int // 0 or 1
	bit      int
	kind     fieldKind
	radix    int
	unit     string
}

var cifFieldTable = []fieldSpec{
	// CIF0, per ANSI/VITA 49.2 section 9.1 bit assignments.
	{name: "context_field_change_indicator", cif: 0, bit: 31, kind: kindFlag},
	{name: "reference_point_id", cif: 0, bit: 30, kind: kindU32},
	{name: "bandwidth", cif: 0, bit: 29, kind: kindFixed64Signed, radix: 20, unit: "Hz"},
	{name: "if_reference_frequency", cif: 0, bit: 28, kind: kindFixed64Signed, radix: 20, unit: "Hz"},
	{name: "rf_reference_frequency", cif: 0, bit: 27, kind: kindFixed64Signed, radix: 20, unit: "Hz"},
	{name: "rf_reference_frequency_offset", cif: 0, bit: 26, kind: kindFixed64Signed, radix: 20, unit: "Hz"},
	{name: "if_band_offset", cif: 0, bit: 25, kind: kindFixed64Signed, radix: 20, unit: "Hz"},
	{name: "reference_level", cif: 0, bit: 24, kind: kindFixed32Hi16, radix: 7, unit: "dBm"},
	{name: "gain", cif: 0, bit: 23, kind: kindDualFixed16, radix: 7, unit: "dB"},
	{name: "over_range_count", cif: 0, bit: 22, kind: kindU32},
	{name: "sample_rate", cif: 0, bit: 21, kind: kindFixed64Signed, radix: 20, unit: "Sps"},
	{name: "timestamp_adjustment", cif: 0, bit: 20, kind: kindU64, unit: "fs"},
	{name: "timestamp_calibration_time", cif: 0, bit: 19, kind: kindU32, unit: "s"},
	{name: "temperature", cif: 0, bit: 18, kind: kindFixed32Signed, radix: 6, unit: "degC"},
	{name: "device_identifier", cif: 0, bit: 17, kind: kindDeviceID},
	{name: "state_event_indicators", cif: 0, bit: 16, kind: kindU32},
	{name: "data_payload_format", cif: 0, bit: 15, kind: kindU64},
	{name: "formatted_gps", cif: 0, bit: 14, kind: kindVariable},
	{name: "formatted_ins", cif: 0, bit: 13, kind: kindVariable},
	{name: "ecef_ephemeris", cif: 0, bit: 12, kind: kindVariable},
	{name: "relative_ephemeris", cif: 0, bit: 11, kind: kindVariable},
	{name: "ephemeris_ref_id", cif: 0, bit: 10, kind: kindU32},
	{name: "gps_ascii", cif: 0, bit: 9, kind: kindVariable},
	{name: "context_association_lists", cif: 0, bit: 8, kind: kindVariable},

	// CIF1 fields (ANSI/VITA 49.2 section 9.2, partial coverage).
	{name: "phase_offset", cif: 1, bit: 31, kind: kindFixed32Signed, radix: 7, unit: "deg"},
	{name: "polarization", cif: 1, bit: 20, kind: kindDualFixed16, radix: 7, unit: "deg"},
	{name: "pointing_vector", cif: 1, bit: 19, kind: kindDualFixed32, radix: 7, unit: "deg"},
	{name: "spectrum", cif: 1, bit: 27, kind: kindVariable},
	{name: "sector_scan_step", cif: 1, bit: 26, kind: kindVariable},
	{name: "range", cif: 1, bit: 17, kind: kindFixed32Signed, radix: 7, unit: "m"},
	{name: "beam_width", cif: 1, bit: 16, kind: kindDualFixed16, radix: 7, unit: "deg"},
	{name: "threshold", cif: 1, bit: 12, kind: kindDualFixed16, radix: 7, unit: "dBm"},
	{name: "compression_point", cif: 1, bit: 9, kind: kindFixed32Signed, radix: 7, unit: "dBm"},
	{name: "intercept_points", cif: 1, bit: 8, kind: kindDualFixed32, radix: 7, unit: "dBm"},
	{name: "snr_noise_figure", cif: 1, bit: 7, kind: kindDualFixed16, radix: 7, unit: "dB"},
	{name: "aux_device_identifier", cif: 1, bit: 29, kind: kindDeviceID},
}

var cifFieldByName map[string]fieldSpec

func init() {
	cifFieldByName = make(map[string]fieldSpec, len(cifFieldTable))
	for _, f := range cifFieldTable {
		cifFieldByName[f.name] = f
	}
}

// wireWords reports how many 32-bit words a fixed-size field occupies. It
// panics for kindVariable, whose size is data-dependent; callers must check
// the kind first.
func (f fieldSpec) wireWords() int {
	switch f.kind {
	case kindFlag:
		return 0
	case kindU32, kindFixed32Signed, kindFixed32Hi16, kindDualFixed16:
		return 1
	case kindU64, kindFixed64Signed, kindDualFixed32, kindDeviceID:
		return 2
	default:
		panic("vrt: wireWords called on a variable-length field")
	}
}

// cifFields holds the present CIF0/CIF1 data fields of a Context or Command
// body, keyed by field name. Presence in this map must always agree with
// the corresponding indicator bit; the two are kept in sync by the
// CIFBlock setters, which pair setRaw/clear with CIFBlock.enableBit.
type cifFields struct {
	words map[string][]uint32
}

func newCifFields() cifFields {
	return cifFields{words: make(map[string][]uint32)}
}

func (c cifFields) has(name string) bool {
	_, ok := c.words[name]
	return ok
}

func (c *cifFields) setRaw(name string, words []uint32) {
	if c.words == nil {
		c.words = make(map[string][]uint32)
	}
	c.words[name] = words
}

func (c *cifFields) clear(name string) {
	delete(c.words, name)
}

func (c cifFields) rawU32(name string) (uint32, bool) {
	w, ok := c.words[name]
	if !ok || len(w) < 1 {
		return 0, false
	}
	return w[0], true
}

func (c cifFields) rawU64(name string) (uint64, bool) {
	w, ok := c.words[name]
	if !ok || len(w) < 2 {
		return 0, false
	}
	return uint64(w[0])<<32 | uint64(w[1]), true
}

// getFixed returns the scalar float64 value of a fixed-point field.
func (c cifFields) getFixed(spec fieldSpec) (float64, bool) {
	switch spec.kind {
	case kindFixed32Signed:
		raw, ok := c.rawU32(spec.name)
		if !ok {
			return 0, false
		}
		return ToFloatSigned(uint64(raw), 32, spec.radix), true
	case kindFixed32Hi16:
		raw, ok := c.rawU32(spec.name)
		if !ok {
			return 0, false
		}
		return ToFloatSigned(uint64(raw>>16), 16, spec.radix), true
	case kindFixed64Signed:
		raw, ok := c.rawU64(spec.name)
		if !ok {
			return 0, false
		}
		return ToFloatSigned(raw, 64, spec.radix), true
	default:
		return 0, false
	}
}

// setFixed stores a scalar float64 value into a fixed-point field, enabling
// the corresponding indicator bit as a side effect via the caller.
func (c *cifFields) setFixed(spec fieldSpec, value float64) error {
	switch spec.kind {
	case kindFixed32Signed:
		bits, err := FromFloatSigned(value, 32, spec.radix)
		if err != nil {
			return err
		}
		c.setRaw(spec.name, []uint32{uint32(bits)})
	case kindFixed32Hi16:
		bits, err := FromFloatSigned(value, 16, spec.radix)
		if err != nil {
			return err
		}
		c.setRaw(spec.name, []uint32{uint32(bits) << 16})
	case kindFixed64Signed:
		bits, err := FromFloatSigned(value, 64, spec.radix)
		if err != nil {
			return err
		}
		c.setRaw(spec.name, []uint32{uint32(bits >> 32), uint32(bits)})
	default:
		return errInternalCifInconsistency("setFixed called on non-scalar field " + spec.name)
	}
	return nil
}

// dualFixed16 is a (stage1, stage2) pair packed into one 32-bit word, used
// by gain, threshold, polarization, beam width and SNR/noise figure.
type dualFixed16 struct {
	Stage1 float64
	Stage2 float64
}

func (c cifFields) getDualFixed16(spec fieldSpec) (dualFixed16, bool) {
	raw, ok := c.rawU32(spec.name)
	if !ok {
		return dualFixed16{}, false
	}
	return dualFixed16{
		Stage1: ToFloatSigned(uint64(raw&0xFFFF), 16, spec.radix),
		Stage2: ToFloatSigned(uint64((raw>>16)&0xFFFF), 16, spec.radix),
	}, true
}

func (c *cifFields) setDualFixed16(spec fieldSpec, v dualFixed16) error {
	s1, err := FromFloatSigned(v.Stage1, 16, spec.radix)
	if err != nil {
		return err
	}
	s2, err := FromFloatSigned(v.Stage2, 16, spec.radix)
	if err != nil {
		return err
	}
	c.setRaw(spec.name, []uint32{uint32(s1) | uint32(s2)<<16})
	return nil
}

// dualFixed32 is a (first, second) pair of full 32-bit signed fixed-point
// values packed into one 64-bit (two-word) field, used by pointing vector
// and intercept points.
type dualFixed32 struct {
	First  float64
	Second float64
}

func (c cifFields) getDualFixed32(spec fieldSpec) (dualFixed32, bool) {
	w, ok := c.words[spec.name]
	if !ok || len(w) < 2 {
		return dualFixed32{}, false
	}
	return dualFixed32{
		First:  ToFloatSigned(uint64(w[0]), 32, spec.radix),
		Second: ToFloatSigned(uint64(w[1]), 32, spec.radix),
	}, true
}

func (c *cifFields) setDualFixed32(spec fieldSpec, v dualFixed32) error {
	f, err := FromFloatSigned(v.First, 32, spec.radix)
	if err != nil {
		return err
	}
	s, err := FromFloatSigned(v.Second, 32, spec.radix)
	if err != nil {
		return err
	}
	c.setRaw(spec.name, []uint32{uint32(f), uint32(s)})
	return nil
}

// DeviceIdentifier is a 24-bit manufacturer OUI plus a 16-bit device code
// carried in a two-word (64-bit) field, used by
// both the CIF0 and CIF1 device identifier fields.
type DeviceIdentifier struct {
	ManufacturerOUI uint32 // low 24 bits only
	DeviceCode      uint16
}

func (c cifFields) getDeviceID(spec fieldSpec) (DeviceIdentifier, bool) {
	w, ok := c.words[spec.name]
	if !ok || len(w) < 2 {
		return DeviceIdentifier{}, false
	}
	return DeviceIdentifier{
		ManufacturerOUI: w[0] & 0x00FFFFFF,
		DeviceCode:      uint16(w[1]),
	}, true
}

func (c *cifFields) setDeviceID(spec fieldSpec, v DeviceIdentifier) {
	c.setRaw(spec.name, []uint32{v.ManufacturerOUI & 0x00FFFFFF, uint32(v.DeviceCode)})
}

// decodeVariableField reads a kindVariable field: a leading word giving the word
// count of the payload that follows.
func decodeVariableField(b []byte) (words []uint32, consumed int, err error) {
	if len(b) < 4 {
		return nil, 0, errShortBuffer(4, len(b))
	}
	count := int(binary.BigEndian.Uint32(b[0:4]))
	total := (count + 1) * 4
	if len(b) < total {
		return nil, 0, errShortBuffer(total, len(b))
	}
	out := make([]uint32, count+1)
	for i := 0; i <= count; i++ {
		out[i] = binary.BigEndian.Uint32(b[i*4 : i*4+4])
	}
	return out, total, nil
}

func encodeVariableField(words []uint32) []byte {
	out := make([]byte, len(words)*4)
	for i, w := range words {
		binary.BigEndian.PutUint32(out[i*4:i*4+4], w)
	}
	return out
}
