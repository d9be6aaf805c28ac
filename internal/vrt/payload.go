package vrt

// Payload is a tagged union over the three packet bodies this codec
// understands. Exactly one of the embedded variants is meaningful at a
// time; which one is decided by Header.PacketType. Use AsContext,
// AsCommand or AsSignalData rather than reading the fields directly, so
// that reading the wrong variant fails loudly instead of returning zero
// values.
type Payload struct {
	kind       PacketType
	context    Context
	command    Command
	signalData SignalData
}

func newContextPayload(c Context) Payload {
	return Payload{kind: PacketTypeContext, context: c}
}

func newCommandPayload(c Command) Payload {
	return Payload{kind: PacketTypeCommand, command: c}
}

func newSignalDataPayload(s SignalData) Payload {
	return Payload{kind: PacketTypeSignalDataNoStreamID, signalData: s}
}

// Kind reports which variant this payload actually holds.
func (p Payload) Kind() PacketType { return p.kind }

// AsContext returns the Context body, or WrongPayloadKind if this payload
// is not a context packet.
func (p Payload) AsContext() (Context, error) {
	if !p.kind.IsContext() {
		return Context{}, errWrongPayloadKind(PacketTypeContext, p.kind)
	}
	return p.context, nil
}

// AsCommand returns the Command body, or WrongPayloadKind if this payload
// is not a command packet.
func (p Payload) AsCommand() (Command, error) {
	if !p.kind.IsCommand() {
		return Command{}, errWrongPayloadKind(PacketTypeCommand, p.kind)
	}
	return p.command, nil
}

// AsSignalData returns the SignalData body, or WrongPayloadKind if this
// payload is not a signal-data or extension-data packet.
func (p Payload) AsSignalData() (SignalData, error) {
	if !p.kind.IsSignalData() {
		return SignalData{}, errWrongPayloadKind(PacketTypeSignalDataNoStreamID, p.kind)
	}
	return p.signalData, nil
}

func (p *Payload) SetContext(c Context) {
	p.context = c
}

func (p *Payload) SetCommand(c Command) {
	p.command = c
}

func (p *Payload) SetSignalData(s SignalData) {
	p.signalData = s
}

func (p Payload) encode() ([]byte, error) {
	switch {
	case p.kind.IsContext():
		return p.context.encode()
	case p.kind.IsCommand():
		return p.command.encode()
	case p.kind.IsSignalData():
		return p.signalData.encode(), nil
	default:
		return nil, errInvalidPacketType(byte(p.kind))
	}
}

func (p Payload) sizeBytes() int {
	switch {
	case p.kind.IsContext():
		return p.context.sizeWords() * 4
	case p.kind.IsCommand():
		return p.command.sizeWords() * 4
	case p.kind.IsSignalData():
		return p.signalData.sizeBytes()
	default:
		return 0
	}
}
