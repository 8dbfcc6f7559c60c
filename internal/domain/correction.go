package domain

import (
	"encoding/json"
	"fmt"
)

// CorrectionMode is the discriminant of a Correction.
type CorrectionMode string

const (
	CorrectionModeList      CorrectionMode = "list"
	CorrectionModeShortText CorrectionMode = "short_text"
)

// Correction is the answer key of an exercise. It is either a ListCorrection
// or a ShortTextCorrection; consumers switch over the concrete type.
type Correction interface {
	Mode() CorrectionMode
	isCorrection()
}

// ListCorrection holds one expected answer per question, in question order.
type ListCorrection struct {
	Values []string
}

func (ListCorrection) Mode() CorrectionMode { return CorrectionModeList }
func (ListCorrection) isCorrection()        {}

// ShortTextCorrection holds a single free-text correction.
type ShortTextCorrection struct {
	Text string
}

func (ShortTextCorrection) Mode() CorrectionMode { return CorrectionModeShortText }
func (ShortTextCorrection) isCorrection()        {}

type correctionWire struct {
	Mode CorrectionMode  `json:"mode"`
	V    json.RawMessage `json:"v"`
}

// UnmarshalCorrection decodes the {"mode": ..., "v": ...} wire form.
func UnmarshalCorrection(data []byte) (Correction, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var wire correctionWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode correction: %w", err)
	}
	switch wire.Mode {
	case CorrectionModeList:
		var values []string
		if err := json.Unmarshal(wire.V, &values); err != nil {
			return nil, fmt.Errorf("decode list correction: %w", err)
		}
		return ListCorrection{Values: values}, nil
	case CorrectionModeShortText:
		var text string
		if err := json.Unmarshal(wire.V, &text); err != nil {
			return nil, fmt.Errorf("decode short_text correction: %w", err)
		}
		return ShortTextCorrection{Text: text}, nil
	default:
		return nil, fmt.Errorf("unknown correction mode %q", wire.Mode)
	}
}

// MarshalCorrection encodes a Correction in its wire form.
func MarshalCorrection(c Correction) (json.RawMessage, error) {
	var wire struct {
		Mode CorrectionMode `json:"mode"`
		V    any            `json:"v"`
	}
	switch c := c.(type) {
	case nil:
		return json.RawMessage("null"), nil
	case ListCorrection:
		wire.Mode, wire.V = CorrectionModeList, c.Values
		if c.Values == nil {
			wire.V = []string{}
		}
	case ShortTextCorrection:
		wire.Mode, wire.V = CorrectionModeShortText, c.Text
	default:
		return nil, fmt.Errorf("unsupported correction type %T", c)
	}
	return json.Marshal(wire)
}
