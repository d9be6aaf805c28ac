package vrt

import "encoding/binary"

// AckClass names which class of acknowledgement a command exchange is
// using. It appears in the Control Word of every command-packet shape: a
// Control or Query request carries the class of ack it wants back: an
// Acknowledgement-shape packet carries the class of ack it is.
type AckClass byte

const (
	AckClassNone                   AckClass = 0
	AckClassValidation             AckClass = 1
	AckClassExecution              AckClass = 2
	AckClassValidationAndExecution AckClass = 3
	AckClassQuery                  AckClass = 4
)

func (a AckClass) String() string {
	switch a {
	case AckClassNone:
		return "None"
	case AckClassValidation:
		return "Validation"
	case AckClassExecution:
		return "Execution"
	case AckClassValidationAndExecution:
		return "ValidationAndExecution"
	case AckClassQuery:
		return "Query"
	default:
		return "Unknown"
	}
}

// CommandShape names the structural form of a command packet's body. All
// five of the original's Control/Cancellation/ValidationAck/ExecutionAck/
// QueryAck bodies reduce to three wire shapes here; the
// Acknowledgement shape's AckClass distinguishes which kind of ack it is.
type CommandShape byte

const (
	ShapeControl        CommandShape = 0
	ShapeCancellation    CommandShape = 1
	ShapeAcknowledgement CommandShape = 2
)

func (s CommandShape) String() string {
	switch s {
	case ShapeControl:
		return "Control"
	case ShapeCancellation:
		return "Cancellation"
	case ShapeAcknowledgement:
		return "Acknowledgement"
	default:
		return "Reserved"
	}
}

// ControlWord is the mandatory first word of every command-packet body. It
// selects the structural shape, the acknowledgement class, and whether
// controllee/controller identifiers follow as 32-bit IDs or 128-bit UUIDs.
type ControlWord struct {
	word uint32
}

func (c ControlWord) ControlleeEnabled() bool  { return bit32(c.word, 31) }
func (c ControlWord) ControllerEnabled() bool  { return bit32(c.word, 30) }
func (c ControlWord) ControlleeIsUUID() bool   { return bit32(c.word, 29) }
func (c ControlWord) ControllerIsUUID() bool   { return bit32(c.word, 28) }
func (c ControlWord) Shape() CommandShape      { return CommandShape(BitRange32(c.word, 26, 27)) }
func (c ControlWord) AckClass() AckClass       { return AckClass(BitRange32(c.word, 23, 25)) }

func (c *ControlWord) SetControlleeEnabled(v bool) { setBit32(&c.word, 31, v) }
func (c *ControlWord) SetControllerEnabled(v bool) { setBit32(&c.word, 30, v) }
func (c *ControlWord) SetControlleeIsUUID(v bool)  { setBit32(&c.word, 29, v) }
func (c *ControlWord) SetControllerIsUUID(v bool)  { setBit32(&c.word, 28, v) }
func (c *ControlWord) SetShape(s CommandShape) {
	c.word, _ = SetBitRange32(c.word, 26, 27, uint32(s))
}
func (c *ControlWord) SetAckClass(a AckClass) {
	c.word, _ = SetBitRange32(c.word, 23, 25, uint32(a))
}

func decodeControlWord(b []byte) (ControlWord, error) {
	if len(b) < 4 {
		return ControlWord{}, errShortBuffer(4, len(b))
	}
	return ControlWord{word: binary.BigEndian.Uint32(b[0:4])}, nil
}

func (c ControlWord) encode() [4]byte {
	var out [4]byte
	binary.BigEndian.PutUint32(out[:], c.word)
	return out
}

// AckResponse is the 32-bit warning/error bitmap carried by an
// Acknowledgement-shape body. Bits 1-12 are the "user-defined" range;
// UserDefined and SetUserDefined return an error for a bit outside it.
type AckResponse struct {
	word uint32
}

const (
	ackBitFieldNotExecuted               = 31
	ackBitDeviceFailure                  = 30
	ackBitErroneousField                 = 29
	ackBitParamOutOfRange                = 28
	ackBitParameterUnsupportedPrecision  = 27
	ackBitFieldValueInvalid              = 26
	ackBitTimestampProblem               = 25
	ackBitHazardousPowerLevels           = 24
	ackBitDistortion                     = 23
	ackBitInBandPowerCompliance          = 22
	ackBitOutOfBandPowerCompliance       = 21
	ackBitCoSiteInterference             = 20
	ackBitRegionalInterference           = 19
)

func (a AckResponse) FieldNotExecuted() bool              { return bit32(a.word, ackBitFieldNotExecuted) }
func (a AckResponse) DeviceFailure() bool                 { return bit32(a.word, ackBitDeviceFailure) }
func (a AckResponse) ErroneousField() bool                { return bit32(a.word, ackBitErroneousField) }
func (a AckResponse) ParamOutOfRange() bool                { return bit32(a.word, ackBitParamOutOfRange) }
func (a AckResponse) ParameterUnsupportedPrecision() bool  { return bit32(a.word, ackBitParameterUnsupportedPrecision) }
func (a AckResponse) FieldValueInvalid() bool              { return bit32(a.word, ackBitFieldValueInvalid) }
func (a AckResponse) TimestampProblem() bool                { return bit32(a.word, ackBitTimestampProblem) }
func (a AckResponse) HazardousPowerLevels() bool            { return bit32(a.word, ackBitHazardousPowerLevels) }
func (a AckResponse) Distortion() bool                      { return bit32(a.word, ackBitDistortion) }
func (a AckResponse) InBandPowerCompliance() bool           { return bit32(a.word, ackBitInBandPowerCompliance) }
func (a AckResponse) OutOfBandPowerCompliance() bool        { return bit32(a.word, ackBitOutOfBandPowerCompliance) }
func (a AckResponse) CoSiteInterference() bool               { return bit32(a.word, ackBitCoSiteInterference) }
func (a AckResponse) RegionalInterference() bool             { return bit32(a.word, ackBitRegionalInterference) }

func (a *AckResponse) SetFieldNotExecuted(v bool)             { setBit32(&a.word, ackBitFieldNotExecuted, v) }
func (a *AckResponse) SetDeviceFailure(v bool)                { setBit32(&a.word, ackBitDeviceFailure, v) }
func (a *AckResponse) SetErroneousField(v bool)               { setBit32(&a.word, ackBitErroneousField, v) }
func (a *AckResponse) SetParamOutOfRange(v bool)               { setBit32(&a.word, ackBitParamOutOfRange, v) }
func (a *AckResponse) SetParameterUnsupportedPrecision(v bool) { setBit32(&a.word, ackBitParameterUnsupportedPrecision, v) }
func (a *AckResponse) SetFieldValueInvalid(v bool)             { setBit32(&a.word, ackBitFieldValueInvalid, v) }
func (a *AckResponse) SetTimestampProblem(v bool)               { setBit32(&a.word, ackBitTimestampProblem, v) }
func (a *AckResponse) SetHazardousPowerLevels(v bool)           { setBit32(&a.word, ackBitHazardousPowerLevels, v) }
func (a *AckResponse) SetDistortion(v bool)                     { setBit32(&a.word, ackBitDistortion, v) }
func (a *AckResponse) SetInBandPowerCompliance(v bool)          { setBit32(&a.word, ackBitInBandPowerCompliance, v) }
func (a *AckResponse) SetOutOfBandPowerCompliance(v bool)       { setBit32(&a.word, ackBitOutOfBandPowerCompliance, v) }
func (a *AckResponse) SetCoSiteInterference(v bool)              { setBit32(&a.word, ackBitCoSiteInterference, v) }
func (a *AckResponse) SetRegionalInterference(v bool)            { setBit32(&a.word, ackBitRegionalInterference, v) }

// UserDefined reports the state of one of the twelve user-defined warning
// bits (1-12). It returns an error for any bit outside that range.
func (a AckResponse) UserDefined(bit int) (bool, error) {
	if bit < 1 || bit > 12 {
		return false, errInternalCifInconsistency("user-defined ack bit out of range 1-12")
	}
	return bit32(a.word, bit), nil
}

// SetUserDefined sets one of the twelve user-defined warning bits (1-12).
func (a *AckResponse) SetUserDefined(bit int, v bool) error {
	if bit < 1 || bit > 12 {
		return errInternalCifInconsistency("user-defined ack bit out of range 1-12")
	}
	setBit32(&a.word, bit, v)
	return nil
}

func decodeAckResponse(b []byte) (AckResponse, error) {
	if len(b) < 4 {
		return AckResponse{}, errShortBuffer(4, len(b))
	}
	return AckResponse{word: binary.BigEndian.Uint32(b[0:4])}, nil
}

func (a AckResponse) encode() [4]byte {
	var out [4]byte
	binary.BigEndian.PutUint32(out[:], a.word)
	return out
}

// Command is the payload body of a Command packet: Control, Cancellation
// and Acknowledgement (validation/execution/query) requests all share this
// one Go type, distinguished by ControlWord.Shape and ControlWord.AckClass.
type Command struct {
	ControlWord ControlWord
	MessageID   uint32

	controlleeID   uint32
	controlleeUUID [16]byte
	controllerID   uint32
	controllerUUID [16]byte

	AckResponse AckResponse // meaningful only when Shape() == ShapeAcknowledgement

	CIFBlock // field names being set (Control), named (Cancellation), or reported (Acknowledgement)
}

// ControlleeID returns the 32-bit controllee identifier. It reports
// IdentifierConflict if the controllee is addressed by UUID instead.
func (c Command) ControlleeID() (uint32, error) {
	if c.ControlWord.ControlleeIsUUID() {
		return 0, errIdentifierConflict()
	}
	return c.controlleeID, nil
}

// ControlleeUUID returns the 128-bit controllee identifier. It reports
// IdentifierConflict if the controllee is addressed by a short ID instead.
func (c Command) ControlleeUUID() ([16]byte, error) {
	if !c.ControlWord.ControlleeIsUUID() {
		return [16]byte{}, errIdentifierConflict()
	}
	return c.controlleeUUID, nil
}

// SetControlleeID sets a 32-bit controllee identifier and clears UUID mode.
func (c *Command) SetControlleeID(id uint32) {
	c.controlleeID = id
	c.ControlWord.SetControlleeIsUUID(false)
}

// SetControlleeUUID sets a 128-bit controllee identifier and sets UUID mode.
func (c *Command) SetControlleeUUID(id [16]byte) {
	c.controlleeUUID = id
	c.ControlWord.SetControlleeIsUUID(true)
}

// ControllerID returns the 32-bit controller identifier. It reports
// IdentifierConflict if the controller is addressed by UUID instead.
func (c Command) ControllerID() (uint32, error) {
	if c.ControlWord.ControllerIsUUID() {
		return 0, errIdentifierConflict()
	}
	return c.controllerID, nil
}

// ControllerUUID returns the 128-bit controller identifier. It reports
// IdentifierConflict if the controller is addressed by a short ID instead.
func (c Command) ControllerUUID() ([16]byte, error) {
	if !c.ControlWord.ControllerIsUUID() {
		return [16]byte{}, errIdentifierConflict()
	}
	return c.controllerUUID, nil
}

// SetControllerID sets a 32-bit controller identifier and clears UUID mode.
func (c *Command) SetControllerID(id uint32) {
	c.controllerID = id
	c.ControlWord.SetControllerIsUUID(false)
}

// SetControllerUUID sets a 128-bit controller identifier and sets UUID
// mode.
func (c *Command) SetControllerUUID(id [16]byte) {
	c.controllerUUID = id
	c.ControlWord.SetControllerIsUUID(true)
}

func decodeCommand(b []byte, features Features) (Command, int, error) {
	if len(b) < 8 {
		return Command{}, 0, errShortBuffer(8, len(b))
	}
	cw, err := decodeControlWord(b[0:4])
	if err != nil {
		return Command{}, 0, err
	}
	if cw.Shape() > ShapeAcknowledgement || cw.AckClass() > AckClassQuery {
		return Command{}, 0, errUnsupportedCommand(cw.word)
	}
	cmd := Command{ControlWord: cw}
	cmd.MessageID = binary.BigEndian.Uint32(b[4:8])
	pos := 8

	if cw.ControlleeEnabled() {
		if cw.ControlleeIsUUID() {
			if len(b) < pos+16 {
				return Command{}, 0, errShortBuffer(pos+16, len(b))
			}
			copy(cmd.controlleeUUID[:], b[pos:pos+16])
			pos += 16
		} else {
			if len(b) < pos+4 {
				return Command{}, 0, errShortBuffer(pos+4, len(b))
			}
			cmd.controlleeID = binary.BigEndian.Uint32(b[pos : pos+4])
			pos += 4
		}
	}
	if cw.ControllerEnabled() {
		if cw.ControllerIsUUID() {
			if len(b) < pos+16 {
				return Command{}, 0, errShortBuffer(pos+16, len(b))
			}
			copy(cmd.controllerUUID[:], b[pos:pos+16])
			pos += 16
		} else {
			if len(b) < pos+4 {
				return Command{}, 0, errShortBuffer(pos+4, len(b))
			}
			cmd.controllerID = binary.BigEndian.Uint32(b[pos : pos+4])
			pos += 4
		}
	}

	if cw.Shape() == ShapeAcknowledgement {
		ack, err := decodeAckResponse(b[pos:])
		if err != nil {
			return Command{}, 0, err
		}
		cmd.AckResponse = ack
		pos += 4
	}

	if cw.Shape() == ShapeCancellation {
		block, n, err := decodeCIFIndicatorsOnly(b[pos:], features)
		if err != nil {
			return Command{}, 0, err
		}
		cmd.CIFBlock = block
		pos += n
	} else {
		block, n, err := decodeCIFBlock(b[pos:], features)
		if err != nil {
			return Command{}, 0, err
		}
		cmd.CIFBlock = block
		pos += n
	}

	return cmd, pos, nil
}

// decodeCIFIndicatorsOnly parses a Cancellation body: CIF0(/CIF1/CIF7)
// indicator words naming which fields to cancel, with no trailing data.
func decodeCIFIndicatorsOnly(b []byte, features Features) (CIFBlock, int, error) {
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
	return c, pos, nil
}

func (c Command) encode() ([]byte, error) {
	out := make([]byte, 0, 32)
	cw := c.ControlWord.encode()
	out = append(out, cw[:]...)
	var msgID [4]byte
	binary.BigEndian.PutUint32(msgID[:], c.MessageID)
	out = append(out, msgID[:]...)

	if c.ControlWord.ControlleeEnabled() {
		if c.ControlWord.ControlleeIsUUID() {
			out = append(out, c.controlleeUUID[:]...)
		} else {
			var idb [4]byte
			binary.BigEndian.PutUint32(idb[:], c.controlleeID)
			out = append(out, idb[:]...)
		}
	}
	if c.ControlWord.ControllerEnabled() {
		if c.ControlWord.ControllerIsUUID() {
			out = append(out, c.controllerUUID[:]...)
		} else {
			var idb [4]byte
			binary.BigEndian.PutUint32(idb[:], c.controllerID)
			out = append(out, idb[:]...)
		}
	}

	if c.ControlWord.Shape() == ShapeAcknowledgement {
		ack := c.AckResponse.encode()
		out = append(out, ack[:]...)
	}

	if c.ControlWord.Shape() == ShapeCancellation {
		body, err := encodeCIFIndicatorsOnly(c.CIFBlock)
		if err != nil {
			return nil, err
		}
		out = append(out, body...)
	} else {
		body, err := c.CIFBlock.encode()
		if err != nil {
			return nil, err
		}
		out = append(out, body...)
	}
	return out, nil
}

func encodeCIFIndicatorsOnly(c CIFBlock) ([]byte, error) {
	var out []byte
	cif0 := c.cif0.encode()
	out = append(out, cif0[:]...)
	if c.cif1Present {
		cif1 := c.cif1.encode()
		out = append(out, cif1[:]...)
	}
	if c.cif7Present {
		cif7 := c.cif7.encode()
		out = append(out, cif7[:]...)
	}
	return out, nil
}

func (c Command) sizeWords() int {
	n := 2 // control word + message id
	if c.ControlWord.ControlleeEnabled() {
		if c.ControlWord.ControlleeIsUUID() {
			n += 4
		} else {
			n++
		}
	}
	if c.ControlWord.ControllerEnabled() {
		if c.ControlWord.ControllerIsUUID() {
			n += 4
		} else {
			n++
		}
	}
	if c.ControlWord.Shape() == ShapeAcknowledgement {
		n++
	}
	if c.ControlWord.Shape() == ShapeCancellation {
		n += 1
		if c.cif1Present {
			n++
		}
		if c.cif7Present {
			n++
		}
	} else {
		n += c.CIFBlock.sizeWords()
	}
	return n
}
