package model

import (
	"encoding/json"
	"fmt"
)

// ConditionState mirrors the on-chain condition status enum.
type ConditionState uint8

const (
	ConditionCreated ConditionState = iota
	ConditionResolved
	ConditionCanceled
	ConditionPaused
)

func (s ConditionState) String() string {
	switch s {
	case ConditionCreated:
		return "CREATED"
	case ConditionResolved:
		return "RESOLVED"
	case ConditionCanceled:
		return "CANCELED"
	case ConditionPaused:
		return "PAUSED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(s))
	}
}

// MarshalJSON encodes the state by name.
func (s ConditionState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts either the state name or its numeric value.
func (s *ConditionState) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		parsed, err := ParseConditionState(name)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}

	var raw uint8
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("condition state: %w", err)
	}
	*s = ConditionState(raw)
	return nil
}

// ParseConditionState converts a state name into ConditionState.
func ParseConditionState(name string) (ConditionState, error) {
	switch name {
	case "CREATED":
		return ConditionCreated, nil
	case "RESOLVED":
		return ConditionResolved, nil
	case "CANCELED":
		return ConditionCanceled, nil
	case "PAUSED":
		return ConditionPaused, nil
	default:
		var raw uint8
		if _, err := fmt.Sscanf(name, "UNKNOWN(%d)", &raw); err == nil {
			return ConditionState(raw), nil
		}
		return 0, fmt.Errorf("unknown condition state: %s", name)
	}
}
