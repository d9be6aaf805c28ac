package rules

import (
	"errors"
	"time"

	"github.com/openvrt/vrtcodec/internal/vrt"
)

// RegisterBuiltins wires the stock diagnostic set into e's FixFunc
// registry. Callers still decide which rules run by including them in
// the loaded RulePack.
func (e *Engine) RegisterBuiltins() {
	e.Register("CheckSizeFresh", CheckSizeFresh)
	e.Register("CheckCIF7Supported", CheckCIF7Supported)
	e.Register("CheckReservedCIFBits", CheckReservedCIFBits)
	e.Register("CheckAckClassConsistent", CheckAckClassConsistent)
	e.Register("CheckSignalDataNonEmpty", CheckSignalDataNonEmpty)
	e.Register("CheckTrailerStateEventAgreesWithContext", CheckTrailerStateEventAgreesWithContext)
}

func diag(ctx *Context, rule Rule, sev Severity, msg string) Diagnostic {
	return Diagnostic{
		Ts:       time.Now(),
		File:     ctx.InputFile,
		RuleId:   rule.RuleId,
		Severity: sev,
		Message:  msg,
		Refs:     rule.Refs,
	}
}

// CheckSizeFresh verifies every decoded packet's Header.PacketSizeWords
// agrees with its actual encoded length. A capture that parsed cleanly
// can only fail this if a caller mutated a decoded Packet in place and
// forgot RecomputeSize before re-serializing it.
func CheckSizeFresh(ctx *Context, rule Rule) (Diagnostic, bool, error) {
	if err := ctx.EnsurePacketIndex(); err != nil {
		return diag(ctx, rule, ERROR, "cannot decode capture: "+err.Error()), false, err
	}
	for i, p := range ctx.Packets {
		if _, err := p.Serialize(); err != nil {
			d := diag(ctx, rule, ERROR, "stale packet size: "+err.Error())
			d.PacketIndex = i
			d.StreamId = p.StreamID
			return d, false, nil
		}
	}
	return diag(ctx, rule, INFO, "all packet sizes fresh"), false, nil
}

// CheckCIF7Supported flags a capture that a packet's CIF7 attribute
// indicator could not be decoded because Features.CIF7 was turned off
// for this run; decodeCIFBlock refuses to decode such a packet at all,
// so this surfaces as the EnsurePacketIndex error itself rather than a
// property of an already-decoded packet.
func CheckCIF7Supported(ctx *Context, rule Rule) (Diagnostic, bool, error) {
	if err := ctx.EnsurePacketIndex(); err != nil {
		var verr *vrt.Error
		if errors.As(err, &verr) && verr.Kind == vrt.KindCif7NotSupported {
			return diag(ctx, rule, WARN, "capture uses CIF7 attribute vectors; re-run with CIF7 enabled: "+err.Error()), false, nil
		}
		return diag(ctx, rule, ERROR, "cannot decode capture: "+err.Error()), false, err
	}
	return diag(ctx, rule, INFO, "no undecoded CIF7 attribute vectors found"), false, nil
}

// CheckReservedCIFBits flags any packet whose CIF0 reserved bits (2-7)
// are nonzero, which a conformant transmitter never sets.
func CheckReservedCIFBits(ctx *Context, rule Rule) (Diagnostic, bool, error) {
	if err := ctx.EnsurePacketIndex(); err != nil {
		return diag(ctx, rule, ERROR, "cannot decode capture: "+err.Error()), false, err
	}
	for i, p := range ctx.Packets {
		var cif0 vrt.CIF0
		switch p.Header.PacketType {
		case vrt.PacketTypeCommand:
			cmd, err := p.Payload.AsCommand()
			if err != nil {
				continue
			}
			cif0 = cmd.CIFBlock.RawCIF0()
		default:
			c, err := p.Payload.AsContext()
			if err != nil {
				continue
			}
			cif0 = c.CIFBlock.RawCIF0()
		}
		if cif0.ReservedBits() != 0 {
			d := diag(ctx, rule, WARN, "CIF0 reserved bits nonzero")
			d.PacketIndex = i
			d.StreamId = p.StreamID
			return d, false, nil
		}
	}
	return diag(ctx, rule, INFO, "CIF0 reserved bits clear across capture"), false, nil
}

// CheckAckClassConsistent flags a Command body whose wire shape is
// Acknowledgement but whose AckClass is None, an otherwise-legal but
// meaningless combination: an acknowledgement naming no ack kind.
func CheckAckClassConsistent(ctx *Context, rule Rule) (Diagnostic, bool, error) {
	if err := ctx.EnsurePacketIndex(); err != nil {
		return diag(ctx, rule, ERROR, "cannot decode capture: "+err.Error()), false, err
	}
	for i, p := range ctx.Packets {
		if p.Header.PacketType != vrt.PacketTypeCommand {
			continue
		}
		cmd, err := p.Payload.AsCommand()
		if err != nil {
			continue
		}
		if cmd.ControlWord.Shape() == vrt.ShapeAcknowledgement && cmd.ControlWord.AckClass() == vrt.AckClassNone {
			d := diag(ctx, rule, WARN, "acknowledgement body carries AckClassNone")
			d.PacketIndex = i
			return d, false, nil
		}
	}
	return diag(ctx, rule, INFO, "ack class usage consistent"), false, nil
}

// CheckSignalDataNonEmpty flags a SignalData packet whose sample
// payload is empty, which is legal on the wire but almost always a
// symptom of a truncated or misconfigured capture.
func CheckSignalDataNonEmpty(ctx *Context, rule Rule) (Diagnostic, bool, error) {
	if err := ctx.EnsurePacketIndex(); err != nil {
		return diag(ctx, rule, ERROR, "cannot decode capture: "+err.Error()), false, err
	}
	for i, p := range ctx.Packets {
		if !p.Header.PacketType.IsSignalData() {
			continue
		}
		sd, err := p.Payload.AsSignalData()
		if err != nil {
			continue
		}
		if len(sd.Samples) == 0 {
			d := diag(ctx, rule, WARN, "signal data packet carries zero sample bytes")
			d.PacketIndex = i
			d.StreamId = p.StreamID
			return d, false, nil
		}
	}
	return diag(ctx, rule, INFO, "all signal data packets carry samples"), false, nil
}

// CheckTrailerStateEventAgreesWithContext flags a non-context packet
// whose trailer state-event indicator bits assert a condition (e.g.
// calibrated-time) while the packet carries no context to back it,
// which is legal per the wire format but a signal the capture's
// context stream may be missing or dropped.
func CheckTrailerStateEventAgreesWithContext(ctx *Context, rule Rule) (Diagnostic, bool, error) {
	if err := ctx.EnsurePacketIndex(); err != nil {
		return diag(ctx, rule, ERROR, "cannot decode capture: "+err.Error()), false, err
	}
	sawContext := map[uint32]bool{}
	for i, p := range ctx.Packets {
		if p.Header.PacketType.IsContext() {
			sawContext[p.StreamID] = true
			continue
		}
		if !p.Header.TrailerIncluded {
			continue
		}
		calibrated, present := p.Trailer.CalTimeIndicator()
		if present && calibrated && !sawContext[p.StreamID] {
			d := diag(ctx, rule, WARN, "trailer asserts calibrated time with no prior context packet on this stream")
			d.PacketIndex = i
			d.StreamId = p.StreamID
			return d, false, nil
		}
	}
	return diag(ctx, rule, INFO, "trailer state-event assertions backed by context"), false, nil
}
