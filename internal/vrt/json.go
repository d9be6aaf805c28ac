package vrt

import (
	"encoding/hex"
	"encoding/json"
)

// fieldToJSON renders one present CIF field as a JSON-friendly value,
// driven entirely by its schema kind.
func fieldToJSON(fields cifFields, spec fieldSpec) any {
	switch spec.kind {
	case kindFlag:
		return true
	case kindU32:
		v, _ := fields.rawU32(spec.name)
		return v
	case kindU64:
		v, _ := fields.rawU64(spec.name)
		return v
	case kindFixed32Signed, kindFixed32Hi16, kindFixed64Signed:
		v, _ := fields.getFixed(spec)
		return v
	case kindDualFixed16:
		v, _ := fields.getDualFixed16(spec)
		return map[string]float64{"stage1": v.Stage1, "stage2": v.Stage2}
	case kindDualFixed32:
		v, _ := fields.getDualFixed32(spec)
		return map[string]float64{"first": v.First, "second": v.Second}
	case kindDeviceID:
		v, _ := fields.getDeviceID(spec)
		return map[string]any{"manufacturerOui": v.ManufacturerOUI, "deviceCode": v.DeviceCode}
	case kindVariable:
		return fields.words[spec.name]
	default:
		return nil
	}
}

func (c CIFBlock) toJSON() map[string]any {
	out := make(map[string]any)
	for _, spec := range cif0Fields {
		if c.cif0.dataBit(spec.bit) {
			out[spec.name] = fieldToJSON(c.fields, spec)
		}
	}
	if c.cif1Present {
		for _, spec := range cif1Fields {
			if c.cif1.dataBit(spec.bit) {
				out[spec.name] = fieldToJSON(c.fields, spec)
			}
		}
	}
	return out
}

func jsonNumber(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

func cifBlockFromJSON(m map[string]any) (CIFBlock, error) {
	c := newCIFBlock()
	for name, raw := range m {
		spec, ok := cifFieldByName[name]
		if !ok {
			continue
		}
		switch spec.kind {
		case kindFlag:
			if err := c.SetFlag(name, true); err != nil {
				return CIFBlock{}, err
			}
		case kindU32, kindU64, kindFixed32Signed, kindFixed32Hi16, kindFixed64Signed:
			f, ok := jsonNumber(raw)
			if !ok {
				return CIFBlock{}, errInternalCifInconsistency("field " + name + " expects a number")
			}
			if err := c.SetFloat(name, f); err != nil {
				return CIFBlock{}, err
			}
		case kindDualFixed16:
			mm, ok := raw.(map[string]any)
			if !ok {
				return CIFBlock{}, errInternalCifInconsistency("field " + name + " expects a stage1/stage2 object")
			}
			s1, _ := jsonNumber(mm["stage1"])
			s2, _ := jsonNumber(mm["stage2"])
			if err := c.SetDualFixed16(name, dualFixed16{Stage1: s1, Stage2: s2}); err != nil {
				return CIFBlock{}, err
			}
		case kindDualFixed32:
			mm, ok := raw.(map[string]any)
			if !ok {
				return CIFBlock{}, errInternalCifInconsistency("field " + name + " expects a first/second object")
			}
			f, _ := jsonNumber(mm["first"])
			s, _ := jsonNumber(mm["second"])
			if err := c.SetDualFixed32(name, dualFixed32{First: f, Second: s}); err != nil {
				return CIFBlock{}, err
			}
		case kindDeviceID:
			mm, ok := raw.(map[string]any)
			if !ok {
				return CIFBlock{}, errInternalCifInconsistency("field " + name + " expects an oui/code object")
			}
			oui, _ := jsonNumber(mm["manufacturerOui"])
			code, _ := jsonNumber(mm["deviceCode"])
			if err := c.SetDeviceID(name, DeviceIdentifier{ManufacturerOUI: uint32(oui), DeviceCode: uint16(code)}); err != nil {
				return CIFBlock{}, err
			}
		case kindVariable:
			arr, ok := raw.([]any)
			if !ok {
				return CIFBlock{}, errInternalCifInconsistency("field " + name + " expects an array of words")
			}
			words := make([]uint32, len(arr))
			for i, v := range arr {
				f, _ := jsonNumber(v)
				words[i] = uint32(f)
			}
			if err := c.SetVariable(name, words); err != nil {
				return CIFBlock{}, err
			}
		}
	}
	return c, nil
}

type classIDJSON struct {
	OUI                   uint32 `json:"oui"`
	InformationClassCode uint16 `json:"informationClassCode"`
	PacketClassCode      uint16 `json:"packetClassCode"`
}

type commandJSON struct {
	Shape          string         `json:"shape"`
	AckClass       string         `json:"ackClass"`
	MessageID      uint32         `json:"messageId"`
	ControlleeID   *uint32        `json:"controlleeId,omitempty"`
	ControlleeUUID string         `json:"controlleeUuid,omitempty"`
	ControllerID   *uint32        `json:"controllerId,omitempty"`
	ControllerUUID string         `json:"controllerUuid,omitempty"`
	AckResponse    *uint32        `json:"ackResponseWord,omitempty"`
	Fields         map[string]any `json:"fields,omitempty"`
}

type packetJSON struct {
	PacketType          string         `json:"packetType"`
	ClassIDIncluded     bool           `json:"classIdIncluded"`
	TrailerIncluded     bool           `json:"trailerIncluded,omitempty"`
	TSI                 string         `json:"tsi,omitempty"`
	TSF                 string         `json:"tsf,omitempty"`
	PacketCount         uint8          `json:"packetCount"`
	PacketSizeWords     uint16         `json:"packetSizeWords"`
	StreamID            *uint32        `json:"streamId,omitempty"`
	ClassID             *classIDJSON   `json:"classId,omitempty"`
	IntegerTimestamp    *uint32        `json:"integerTimestamp,omitempty"`
	FractionalTimestamp *uint64        `json:"fractionalTimestamp,omitempty"`
	Context             map[string]any `json:"context,omitempty"`
	Command             *commandJSON   `json:"command,omitempty"`
	SignalDataHex       string         `json:"signalDataHex,omitempty"`
	TrailerWord         *uint32        `json:"trailerWord,omitempty"`
}

// MarshalJSON renders the packet's logical structure (not its wire bytes)
// as JSON, suitable for diagnostics and inspection tooling.
func (p *Packet) MarshalJSON() ([]byte, error) {
	out := packetJSON{
		PacketType:      p.Header.PacketType.String(),
		ClassIDIncluded: p.Header.ClassIDIncluded,
		TrailerIncluded: p.Header.TrailerIncluded,
		PacketCount:     p.Header.PacketCount,
		PacketSizeWords: p.Header.PacketSizeWords,
	}
	if p.Header.TSI != TSINone {
		out.TSI = tsiName(p.Header.TSI)
		ts := p.IntegerTimestamp
		out.IntegerTimestamp = &ts
	}
	if p.Header.TSF != TSFNone {
		out.TSF = tsfName(p.Header.TSF)
		ts := p.FractionalTimestamp
		out.FractionalTimestamp = &ts
	}
	if p.Header.PacketType.HasStreamID() {
		sid := p.StreamID
		out.StreamID = &sid
	}
	if p.Header.ClassIDIncluded {
		out.ClassID = &classIDJSON{
			OUI:                  p.ClassID.OUI,
			InformationClassCode: p.ClassID.InformationClassCode,
			PacketClassCode:      p.ClassID.PacketClassCode,
		}
	}

	switch {
	case p.Header.PacketType.IsContext():
		ctx, err := p.Payload.AsContext()
		if err != nil {
			return nil, err
		}
		out.Context = ctx.CIFBlock.toJSON()
	case p.Header.PacketType.IsCommand():
		cmd, err := p.Payload.AsCommand()
		if err != nil {
			return nil, err
		}
		cj := &commandJSON{
			Shape:     cmd.ControlWord.Shape().String(),
			AckClass:  cmd.ControlWord.AckClass().String(),
			MessageID: cmd.MessageID,
			Fields:    cmd.CIFBlock.toJSON(),
		}
		if cmd.ControlWord.ControlleeEnabled() {
			if cmd.ControlWord.ControlleeIsUUID() {
				u, _ := cmd.ControlleeUUID()
				cj.ControlleeUUID = hex.EncodeToString(u[:])
			} else {
				id, _ := cmd.ControlleeID()
				cj.ControlleeID = &id
			}
		}
		if cmd.ControlWord.ControllerEnabled() {
			if cmd.ControlWord.ControllerIsUUID() {
				u, _ := cmd.ControllerUUID()
				cj.ControllerUUID = hex.EncodeToString(u[:])
			} else {
				id, _ := cmd.ControllerID()
				cj.ControllerID = &id
			}
		}
		if cmd.ControlWord.Shape() == ShapeAcknowledgement {
			w := cmd.AckResponse.word
			cj.AckResponse = &w
		}
		out.Command = cj
	case p.Header.PacketType.IsSignalData():
		sd, err := p.Payload.AsSignalData()
		if err != nil {
			return nil, err
		}
		out.SignalDataHex = hex.EncodeToString(sd.Samples)
	}

	if p.Header.TrailerIncluded && p.Header.PacketType.IsSignalData() {
		w := p.Trailer.word
		out.TrailerWord = &w
	}

	return json.Marshal(out)
}

// UnmarshalJSON rebuilds a packet from MarshalJSON's representation. The
// resulting packet's Header.PacketSizeWords is taken as given; call
// RecomputeSize if the JSON was hand-edited.
func (p *Packet) UnmarshalJSON(data []byte) error {
	var in packetJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	pt, err := packetTypeFromString(in.PacketType)
	if err != nil {
		return err
	}
	p.Header = Header{
		PacketType:      pt,
		ClassIDIncluded: in.ClassIDIncluded,
		TrailerIncluded: in.TrailerIncluded,
		PacketCount:     in.PacketCount,
		PacketSizeWords: in.PacketSizeWords,
	}
	if in.TSI != "" {
		p.Header.TSI = tsiFromName(in.TSI)
		if in.IntegerTimestamp != nil {
			p.IntegerTimestamp = *in.IntegerTimestamp
		}
	}
	if in.TSF != "" {
		p.Header.TSF = tsfFromName(in.TSF)
		if in.FractionalTimestamp != nil {
			p.FractionalTimestamp = *in.FractionalTimestamp
		}
	}
	if in.StreamID != nil {
		p.StreamID = *in.StreamID
	}
	if in.ClassID != nil {
		p.ClassID = ClassID{
			OUI:                  in.ClassID.OUI,
			InformationClassCode: in.ClassID.InformationClassCode,
			PacketClassCode:      in.ClassID.PacketClassCode,
		}
	}

	switch {
	case pt.IsContext():
		block, err := cifBlockFromJSON(in.Context)
		if err != nil {
			return err
		}
		p.Payload = newContextPayload(Context{CIFBlock: block})
	case pt.IsCommand():
		if in.Command == nil {
			return errInternalCifInconsistency("command packet JSON missing \"command\" object")
		}
		block, err := cifBlockFromJSON(in.Command.Fields)
		if err != nil {
			return err
		}
		cmd := Command{CIFBlock: block, MessageID: in.Command.MessageID}
		cmd.ControlWord.SetShape(shapeFromName(in.Command.Shape))
		cmd.ControlWord.SetAckClass(ackClassFromName(in.Command.AckClass))
		if in.Command.ControlleeID != nil {
			cmd.SetControlleeID(*in.Command.ControlleeID)
			cmd.ControlWord.SetControlleeEnabled(true)
		} else if in.Command.ControlleeUUID != "" {
			u, err := hex.DecodeString(in.Command.ControlleeUUID)
			if err != nil {
				return err
			}
			var arr [16]byte
			copy(arr[:], u)
			cmd.SetControlleeUUID(arr)
			cmd.ControlWord.SetControlleeEnabled(true)
		}
		if in.Command.ControllerID != nil {
			cmd.SetControllerID(*in.Command.ControllerID)
			cmd.ControlWord.SetControllerEnabled(true)
		} else if in.Command.ControllerUUID != "" {
			u, err := hex.DecodeString(in.Command.ControllerUUID)
			if err != nil {
				return err
			}
			var arr [16]byte
			copy(arr[:], u)
			cmd.SetControllerUUID(arr)
			cmd.ControlWord.SetControllerEnabled(true)
		}
		if in.Command.AckResponse != nil {
			cmd.AckResponse = AckResponse{word: *in.Command.AckResponse}
		}
		p.Payload = newCommandPayload(cmd)
	case pt.IsSignalData():
		samples, err := hex.DecodeString(in.SignalDataHex)
		if err != nil {
			return err
		}
		p.Payload = newSignalDataPayload(SignalData{Samples: samples})
	}

	if in.TrailerWord != nil {
		p.Trailer = Trailer{word: *in.TrailerWord}
	}

	return nil
}

func tsiName(m TSIMode) string {
	switch m {
	case TSIUTC:
		return "UTC"
	case TSIGPS:
		return "GPS"
	case TSIOther:
		return "Other"
	default:
		return "None"
	}
}

func tsiFromName(s string) TSIMode {
	switch s {
	case "UTC":
		return TSIUTC
	case "GPS":
		return TSIGPS
	case "Other":
		return TSIOther
	default:
		return TSINone
	}
}

func tsfName(m TSFMode) string {
	switch m {
	case TSFSampleCount:
		return "SampleCount"
	case TSFRealTimePicosec:
		return "RealTimePicosec"
	case TSFFreeRunning:
		return "FreeRunning"
	default:
		return "None"
	}
}

func tsfFromName(s string) TSFMode {
	switch s {
	case "SampleCount":
		return TSFSampleCount
	case "RealTimePicosec":
		return TSFRealTimePicosec
	case "FreeRunning":
		return TSFFreeRunning
	default:
		return TSFNone
	}
}

func packetTypeFromString(s string) (PacketType, error) {
	switch s {
	case "SignalData":
		return PacketTypeSignalDataNoStreamID, nil
	case "SignalData+StreamID":
		return PacketTypeSignalDataStreamID, nil
	case "ExtensionData":
		return PacketTypeExtensionDataNoSID, nil
	case "ExtensionData+StreamID":
		return PacketTypeExtensionDataSID, nil
	case "Context":
		return PacketTypeContext, nil
	case "ExtensionContext":
		return PacketTypeExtensionContext, nil
	case "Command":
		return PacketTypeCommand, nil
	default:
		return 0, errInvalidHeader("unknown packetType in JSON: " + s)
	}
}

func shapeFromName(s string) CommandShape {
	switch s {
	case "Cancellation":
		return ShapeCancellation
	case "Acknowledgement":
		return ShapeAcknowledgement
	default:
		return ShapeControl
	}
}

func ackClassFromName(s string) AckClass {
	switch s {
	case "Validation":
		return AckClassValidation
	case "Execution":
		return AckClassExecution
	case "ValidationAndExecution":
		return AckClassValidationAndExecution
	case "Query":
		return AckClassQuery
	default:
		return AckClassNone
	}
}
