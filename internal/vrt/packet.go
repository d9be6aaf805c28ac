package vrt

import "encoding/binary"

// Packet is the top-level decoded form of one VITA 49 Radio Transport
// packet: the mandatory header plus whichever optional prologue fields the
// header's bits select, the tagged-union payload, and an optional
// trailer.
//
// Mutating a Packet (through its exported fields, through Payload's
// setters, or through a CIFBlock accessor) does not keep Header.
// PacketSizeWords in sync automatically. Call RecomputeSize before
// Serialize; Serialize itself refuses to run against a stale size rather
// than silently repairing it.
type Packet struct {
	Header Header

	StreamID uint32 // meaningful iff Header.PacketType.HasStreamID()
	ClassID  ClassID // meaningful iff Header.ClassIDIncluded

	IntegerTimestamp    uint32 // meaningful iff Header.TSI != TSINone
	FractionalTimestamp uint64 // meaningful iff Header.TSF != TSFNone

	Payload Payload
	Trailer Trailer // meaningful iff Header.TrailerIncluded

	features Features
}

// NewPacket returns an empty packet of the given type with its payload
// initialized to the matching variant.
func NewPacket(pt PacketType, features Features) (*Packet, error) {
	if !pt.valid() {
		return nil, errInvalidPacketType(byte(pt))
	}
	p := &Packet{Header: Header{PacketType: pt}, features: features}
	switch {
	case pt.IsContext():
		p.Payload = newContextPayload(Context{CIFBlock: newCIFBlock()})
	case pt.IsCommand():
		p.Payload = newCommandPayload(Command{CIFBlock: newCIFBlock()})
	case pt.IsSignalData():
		p.Payload = newSignalDataPayload(SignalData{})
	}
	return p, nil
}

// SetClassID attaches a Class ID and sets the header's inclusion bit.
func (p *Packet) SetClassID(id ClassID) {
	p.ClassID = id
	p.Header.ClassIDIncluded = true
}

// ClearClassID removes the Class ID and clears the header's inclusion bit.
func (p *Packet) ClearClassID() {
	p.ClassID = ClassID{}
	p.Header.ClassIDIncluded = false
}

// SetIntegerTimestamp attaches an integer (seconds) timestamp under the
// given interpretation mode.
func (p *Packet) SetIntegerTimestamp(ts uint32, mode TSIMode) {
	p.IntegerTimestamp = ts
	p.Header.TSI = mode
}

// SetFractionalTimestamp attaches a fractional timestamp under the given
// interpretation mode.
func (p *Packet) SetFractionalTimestamp(ts uint64, mode TSFMode) {
	p.FractionalTimestamp = ts
	p.Header.TSF = mode
}

// RequireStreamID returns the Stream ID, or WrongPayloadKind when the
// packet type carries none (the signal-data variants without a Stream ID).
func (p *Packet) RequireStreamID() (uint32, error) {
	if !p.Header.PacketType.HasStreamID() {
		return 0, errWrongPayloadKind(PacketTypeSignalDataStreamID, p.Header.PacketType)
	}
	return p.StreamID, nil
}

// Parse decodes exactly one packet from b. b must hold exactly the bytes
// of one packet, word-aligned; a short or overlong buffer is rejected
// with LengthMismatch once the header's declared size is known.
func Parse(b []byte, features Features) (*Packet, error) {
	hdr, err := DecodeHeader(b)
	if err != nil {
		return nil, err
	}
	declared := int(hdr.PacketSizeWords) * 4
	if len(b) != declared {
		return nil, errLengthMismatch(declared, len(b))
	}

	p := &Packet{Header: hdr, features: features}
	pos := 4

	if hdr.PacketType.HasStreamID() {
		if len(b) < pos+4 {
			return nil, errShortBuffer(pos+4, len(b))
		}
		p.StreamID = binary.BigEndian.Uint32(b[pos : pos+4])
		pos += 4
	}

	if hdr.ClassIDIncluded {
		cid, err := decodeClassID(b[pos:])
		if err != nil {
			return nil, err
		}
		p.ClassID = cid
		pos += 8
	}

	if hdr.TSI != TSINone {
		if len(b) < pos+4 {
			return nil, errShortBuffer(pos+4, len(b))
		}
		p.IntegerTimestamp = binary.BigEndian.Uint32(b[pos : pos+4])
		pos += 4
	}

	if hdr.TSF != TSFNone {
		if len(b) < pos+8 {
			return nil, errShortBuffer(pos+8, len(b))
		}
		p.FractionalTimestamp = binary.BigEndian.Uint64(b[pos : pos+8])
		pos += 8
	}

	trailerBytes := 0
	if hdr.TrailerIncluded {
		trailerBytes = 4
	}
	payloadBytes := len(b) - pos - trailerBytes
	if payloadBytes < 0 {
		return nil, errLengthMismatch(pos+trailerBytes, len(b))
	}
	payloadBuf := b[pos : pos+payloadBytes]

	switch {
	case hdr.PacketType.IsContext():
		ctx, n, err := decodeContext(payloadBuf, features)
		if err != nil {
			return nil, err
		}
		if n != payloadBytes {
			return nil, errLengthMismatch(payloadBytes, n)
		}
		p.Payload = newContextPayload(ctx)
	case hdr.PacketType.IsCommand():
		cmd, n, err := decodeCommand(payloadBuf, features)
		if err != nil {
			return nil, err
		}
		if n != payloadBytes {
			return nil, errLengthMismatch(payloadBytes, n)
		}
		p.Payload = newCommandPayload(cmd)
	case hdr.PacketType.IsSignalData():
		sd, err := decodeSignalData(payloadBuf, payloadBytes)
		if err != nil {
			return nil, err
		}
		p.Payload = newSignalDataPayload(sd)
	default:
		return nil, errInvalidPacketType(byte(hdr.PacketType))
	}
	pos += payloadBytes

	if hdr.TrailerIncluded {
		tr, err := decodeTrailer(b[pos:])
		if err != nil {
			return nil, err
		}
		p.Trailer = tr
		pos += 4
	}

	return p, nil
}

// wordsActual computes the packet's true wire size in 32-bit words from
// its current in-memory state, independent of whatever
// Header.PacketSizeWords currently says.
func (p *Packet) wordsActual() int {
	n := 1
	if p.Header.PacketType.HasStreamID() {
		n++
	}
	if p.Header.ClassIDIncluded {
		n += 2
	}
	if p.Header.TSI != TSINone {
		n++
	}
	if p.Header.TSF != TSFNone {
		n += 2
	}
	n += p.Payload.sizeBytes() / 4
	if p.Header.TrailerIncluded && p.Header.PacketType.IsSignalData() {
		n++
	}
	return n
}

// RecomputeSize recalculates the packet's true size and writes it into
// Header.PacketSizeWords. Call this after any mutation before Serialize.
func (p *Packet) RecomputeSize() {
	p.Header.PacketSizeWords = uint16(p.wordsActual())
}

// Serialize encodes the packet back to its wire form. It returns
// SizeStale if Header.PacketSizeWords does not match the packet's actual
// current size; call RecomputeSize first.
func (p *Packet) Serialize() ([]byte, error) {
	actual := p.wordsActual()
	if actual != int(p.Header.PacketSizeWords) {
		return nil, errSizeStale()
	}

	out := make([]byte, 0, actual*4)
	hdrBytes := p.Header.Encode()
	out = append(out, hdrBytes[:]...)

	if p.Header.PacketType.HasStreamID() {
		var sid [4]byte
		binary.BigEndian.PutUint32(sid[:], p.StreamID)
		out = append(out, sid[:]...)
	}

	if p.Header.ClassIDIncluded {
		cidBytes, err := p.ClassID.encode()
		if err != nil {
			return nil, err
		}
		out = append(out, cidBytes[:]...)
	}

	if p.Header.TSI != TSINone {
		var ts [4]byte
		binary.BigEndian.PutUint32(ts[:], p.IntegerTimestamp)
		out = append(out, ts[:]...)
	}

	if p.Header.TSF != TSFNone {
		var ts [8]byte
		binary.BigEndian.PutUint64(ts[:], p.FractionalTimestamp)
		out = append(out, ts[:]...)
	}

	payloadBytes, err := p.Payload.encode()
	if err != nil {
		return nil, err
	}
	out = append(out, payloadBytes...)

	if p.Header.TrailerIncluded && p.Header.PacketType.IsSignalData() {
		trBytes := p.Trailer.encode()
		out = append(out, trBytes[:]...)
	}

	return out, nil
}
