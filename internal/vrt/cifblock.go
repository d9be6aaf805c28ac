package vrt

import "sort"

// Features toggles optional wire behavior that has no runtime
// autodetection: CIF7 per-field attribute vectors must be explicitly
// enabled by the caller, matching how the original build-time cif7 flag
// gated the feature.
type Features struct {
	CIF7 bool
}

// CIFBlock is the shared CIF0/CIF1/CIF7 indicator-and-data-field structure
// embedded by Context and every Command body variant; all of them share
// an identical field layout.
type CIFBlock struct {
	cif0        CIF0
	cif1        CIF1
	cif1Present bool
	cif7        CIF7
	cif7Present bool
	fields      cifFields
}

func newCIFBlock() CIFBlock {
	return CIFBlock{fields: newCifFields()}
}

func fieldsForCIF(n int) []fieldSpec {
	var out []fieldSpec
	for _, f := range cifFieldTable {
		if f.cif == n {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].bit > out[j].bit })
	return out
}

var cif0Fields = fieldsForCIF(0)
var cif1Fields = fieldsForCIF(1)

func decodeCIFBlock(b []byte, features Features) (CIFBlock, int, error) {
	c := newCIFBlock()
	pos := 0

	cif0, err := decodeCIF0(b[pos:])
	if err != nil {
		return CIFBlock{}, 0, err
	}
	c.cif0 = cif0
	pos += 4

	if cif0.CIF1Enabled() {
		cif1, err := decodeCIF1(b[pos:])
		if err != nil {
			return CIFBlock{}, 0, err
		}
		c.cif1 = cif1
		c.cif1Present = true
		pos += 4
	}

	if cif0.CIF7Enabled() {
		if !features.CIF7 {
			return CIFBlock{}, 0, errCif7NotSupported()
		}
		cif7, err := decodeCIF7(b[pos:])
		if err != nil {
			return CIFBlock{}, 0, err
		}
		c.cif7 = cif7
		c.cif7Present = true
		pos += 4
	}

	extraAttrs := 0
	if c.cif7Present {
		extraAttrs = c.cif7.NumExtraAttrs()
	}

	for _, spec := range cif0Fields {
		if !cif0.dataBit(spec.bit) {
			continue
		}
		n, err := decodeOneField(&c.fields, spec, b[pos:], extraAttrs)
		if err != nil {
			return CIFBlock{}, 0, err
		}
		pos += n
	}
	if c.cif1Present {
		for _, spec := range cif1Fields {
			if !c.cif1.dataBit(spec.bit) {
				continue
			}
			n, err := decodeOneField(&c.fields, spec, b[pos:], extraAttrs)
			if err != nil {
				return CIFBlock{}, 0, err
			}
			pos += n
		}
	}

	return c, pos, nil
}

func decodeOneField(fields *cifFields, spec fieldSpec, b []byte, extraAttrs int) (int, error) {
	if spec.kind == kindFlag {
		fields.setRaw(spec.name, nil)
		return 0, nil
	}
	if spec.kind == kindVariable {
		words, n, err := decodeVariableField(b)
		if err != nil {
			return 0, err
		}
		fields.setRaw(spec.name, words)
		return n, nil
	}

	words := spec.wireWords()
	need := words * 4
	if len(b) < need {
		return 0, errShortBuffer(need, len(b))
	}
	raw := make([]uint32, words)
	for i := 0; i < words; i++ {
		raw[i] = beUint32(b[i*4 : i*4+4])
	}
	pos := need

	if extraAttrs > 0 {
		attrNeed := extraAttrs * words * 4
		if len(b) < pos+attrNeed {
			return 0, errShortBuffer(pos+attrNeed, len(b))
		}
		attrWords := make([]uint32, extraAttrs*words)
		for i := range attrWords {
			attrWords[i] = beUint32(b[pos+i*4 : pos+i*4+4])
		}
		fields.setRaw(spec.name+"_attrs", attrWords)
		pos += attrNeed
	}

	fields.setRaw(spec.name, raw)
	return pos, nil
}

func (c CIFBlock) encode() ([]byte, error) {
	var out []byte
	cif0Word := c.cif0.encode()
	out = append(out, cif0Word[:]...)
	if c.cif1Present {
		cif1Word := c.cif1.encode()
		out = append(out, cif1Word[:]...)
	}
	if c.cif7Present {
		cif7Word := c.cif7.encode()
		out = append(out, cif7Word[:]...)
	}

	extraAttrs := 0
	if c.cif7Present {
		extraAttrs = c.cif7.NumExtraAttrs()
	}

	for _, spec := range cif0Fields {
		if !c.cif0.dataBit(spec.bit) {
			continue
		}
		out = append(out, encodeOneField(c.fields, spec, extraAttrs)...)
	}
	if c.cif1Present {
		for _, spec := range cif1Fields {
			if !c.cif1.dataBit(spec.bit) {
				continue
			}
			out = append(out, encodeOneField(c.fields, spec, extraAttrs)...)
		}
	}
	return out, nil
}

func encodeOneField(fields cifFields, spec fieldSpec, extraAttrs int) []byte {
	if spec.kind == kindFlag {
		return nil
	}
	if spec.kind == kindVariable {
		words, _ := fields.words[spec.name]
		return encodeVariableField(words)
	}
	words, _ := fields.words[spec.name]
	out := make([]byte, 0, (len(words))*4)
	for _, w := range words {
		out = append(out, byte(w>>24), byte(w>>16), byte(w>>8), byte(w))
	}
	if extraAttrs > 0 {
		attrs := fields.words[spec.name+"_attrs"]
		for _, w := range attrs {
			out = append(out, byte(w>>24), byte(w>>16), byte(w>>8), byte(w))
		}
	}
	return out
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// sizeWords returns the total word count of the indicator words plus every
// present data field (and its CIF7 attribute trailer, if any).
func (c CIFBlock) sizeWords() int {
	n := 1
	if c.cif1Present {
		n++
	}
	if c.cif7Present {
		n++
	}
	extraAttrs := 0
	if c.cif7Present {
		extraAttrs = c.cif7.NumExtraAttrs()
	}
	for _, spec := range cif0Fields {
		if !c.cif0.dataBit(spec.bit) {
			continue
		}
		n += fieldSizeWords(c.fields, spec, extraAttrs)
	}
	if c.cif1Present {
		for _, spec := range cif1Fields {
			if !c.cif1.dataBit(spec.bit) {
				continue
			}
			n += fieldSizeWords(c.fields, spec, extraAttrs)
		}
	}
	return n
}

func fieldSizeWords(fields cifFields, spec fieldSpec, extraAttrs int) int {
	if spec.kind == kindFlag {
		return 0
	}
	if spec.kind == kindVariable {
		return len(fields.words[spec.name])
	}
	base := spec.wireWords()
	return base + base*extraAttrs
}

// enableBit sets or clears the indicator bit for a field and keeps the
// corresponding data-field map entry in sync, including removing a CIF1
// word entirely once its last data bit clears.
func (c *CIFBlock) enableBit(spec fieldSpec, v bool) {
	if spec.cif == 0 {
		c.cif0.setDataBit(spec.bit, v)
	} else {
		if !c.cif1Present {
			c.cif1Present = true
			c.cif0.setCIF1Enabled(true)
		}
		c.cif1.setDataBit(spec.bit, v)
		if !v && c.cif1.word&0xFFFFFFFC == 0 {
			c.cif1Present = false
			c.cif0.setCIF1Enabled(false)
		}
	}
	if !v {
		c.fields.clear(spec.name)
		c.fields.clear(spec.name + "_attrs")
	}
}

// RawCIF0 exposes the decoded CIF0 indicator word for callers (e.g. a
// diagnostic rule pack) that need to inspect indicator bits directly
// rather than through a named-field accessor.
func (c CIFBlock) RawCIF0() CIF0 { return c.cif0 }

// GetFlag reports whether a presence-only field (such as
// context_field_change_indicator) is set.
func (c CIFBlock) GetFlag(name string) bool {
	return c.fields.has(name)
}

// SetFlag sets or clears a presence-only field.
func (c *CIFBlock) SetFlag(name string, v bool) error {
	spec, ok := cifFieldByName[name]
	if !ok || spec.kind != kindFlag {
		return errInternalCifInconsistency("not a flag field: " + name)
	}
	c.enableBit(spec, v)
	if v {
		c.fields.setRaw(name, nil)
	}
	return nil
}

// GetFloat returns the scalar value of any unsigned/signed fixed-point or
// raw-integer field.
func (c CIFBlock) GetFloat(name string) (float64, bool) {
	spec, ok := cifFieldByName[name]
	if !ok {
		return 0, false
	}
	switch spec.kind {
	case kindU32:
		raw, ok := c.fields.rawU32(name)
		return float64(raw), ok
	case kindU64:
		raw, ok := c.fields.rawU64(name)
		return float64(raw), ok
	default:
		return c.fields.getFixed(spec)
	}
}

// SetFloat stores a scalar value into any unsigned/signed fixed-point or
// raw-integer field, enabling its indicator bit.
func (c *CIFBlock) SetFloat(name string, value float64) error {
	spec, ok := cifFieldByName[name]
	if !ok {
		return errInternalCifInconsistency("unknown field: " + name)
	}
	switch spec.kind {
	case kindU32:
		c.fields.setRaw(name, []uint32{uint32(value)})
	case kindU64:
		bits := uint64(value)
		c.fields.setRaw(name, []uint32{uint32(bits >> 32), uint32(bits)})
	default:
		if err := c.fields.setFixed(spec, value); err != nil {
			return err
		}
	}
	c.enableBit(spec, true)
	return nil
}

// GetDualFixed16 returns a two-stage packed field such as gain or threshold.
func (c CIFBlock) GetDualFixed16(name string) (dualFixed16, bool) {
	spec, ok := cifFieldByName[name]
	if !ok {
		return dualFixed16{}, false
	}
	return c.fields.getDualFixed16(spec)
}

// SetDualFixed16 stores a two-stage packed field, enabling its indicator
// bit.
func (c *CIFBlock) SetDualFixed16(name string, v dualFixed16) error {
	spec, ok := cifFieldByName[name]
	if !ok {
		return errInternalCifInconsistency("unknown field: " + name)
	}
	if err := c.fields.setDualFixed16(spec, v); err != nil {
		return err
	}
	c.enableBit(spec, true)
	return nil
}

// GetDualFixed32 returns a two-value 64-bit packed field such as intercept
// points.
func (c CIFBlock) GetDualFixed32(name string) (dualFixed32, bool) {
	spec, ok := cifFieldByName[name]
	if !ok {
		return dualFixed32{}, false
	}
	return c.fields.getDualFixed32(spec)
}

// SetDualFixed32 stores a two-value 64-bit packed field, enabling its
// indicator bit.
func (c *CIFBlock) SetDualFixed32(name string, v dualFixed32) error {
	spec, ok := cifFieldByName[name]
	if !ok {
		return errInternalCifInconsistency("unknown field: " + name)
	}
	if err := c.fields.setDualFixed32(spec, v); err != nil {
		return err
	}
	c.enableBit(spec, true)
	return nil
}

// GetDeviceID returns the device_identifier or aux_device_identifier field.
func (c CIFBlock) GetDeviceID(name string) (DeviceIdentifier, bool) {
	spec, ok := cifFieldByName[name]
	if !ok {
		return DeviceIdentifier{}, false
	}
	return c.fields.getDeviceID(spec)
}

// SetDeviceID stores the device_identifier or aux_device_identifier field,
// enabling its indicator bit.
func (c *CIFBlock) SetDeviceID(name string, v DeviceIdentifier) error {
	spec, ok := cifFieldByName[name]
	if !ok {
		return errInternalCifInconsistency("unknown field: " + name)
	}
	c.fields.setDeviceID(spec, v)
	c.enableBit(spec, true)
	return nil
}

// GetVariable returns the raw words of a variable-length field (the first
// word is the trailing word count, per decodeVariableField).
func (c CIFBlock) GetVariable(name string) ([]uint32, bool) {
	spec, ok := cifFieldByName[name]
	if !ok || spec.kind != kindVariable {
		return nil, false
	}
	w, ok := c.fields.words[name]
	return w, ok
}

// SetVariable stores the raw words of a variable-length field. words[0]
// must equal len(words)-1, matching the leading word-count convention.
func (c *CIFBlock) SetVariable(name string, words []uint32) error {
	spec, ok := cifFieldByName[name]
	if !ok || spec.kind != kindVariable {
		return errInternalCifInconsistency("not a variable field: " + name)
	}
	if len(words) == 0 || int(words[0]) != len(words)-1 {
		return errInternalCifInconsistency("variable field word-count header does not match payload")
	}
	c.fields.setRaw(name, words)
	c.enableBit(spec, true)
	return nil
}

// Clear removes a field and disables its indicator bit.
func (c *CIFBlock) Clear(name string) {
	spec, ok := cifFieldByName[name]
	if !ok {
		return
	}
	c.enableBit(spec, false)
}
