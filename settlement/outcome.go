package settlement

import (
	"encoding/json"

	"github.com/goliatone/go-assets/core"
)

// Outcome is the raw result of the receiver's notification call as
// observed by the host. Completed=false means the call failed or never
// ran; Value is the receiver's return encoded as JSON and is parsed by
// the resolver, which treats anything malformed as a rejection.
type Outcome struct {
	Completed bool
	Value     json.RawMessage
}

// FailedOutcome marks the receiver call as failed or not executed.
func FailedOutcome() Outcome {
	return Outcome{Completed: false}
}

// QuantityOutcome encodes a fungible receiver's unused-amount return.
func QuantityOutcome(unused core.Quantity) Outcome {
	value, _ := json.Marshal(unused.String())
	return Outcome{Completed: true, Value: value}
}

// BoolOutcome encodes a non-fungible receiver's return-the-token signal.
func BoolOutcome(returnToken bool) Outcome {
	value, _ := json.Marshal(returnToken)
	return Outcome{Completed: true, Value: value}
}

// UnusedQuantity parses a fungible outcome. The second return reports
// whether the value parsed; an unparseable or failed outcome must be
// treated by the caller as "everything unused" (reject).
func (o Outcome) UnusedQuantity() (core.Quantity, bool) {
	if !o.Completed || len(o.Value) == 0 {
		return core.ZeroQuantity, false
	}
	var text string
	if err := json.Unmarshal(o.Value, &text); err == nil {
		if parsed, parseErr := core.ParseQuantity(text); parseErr == nil {
			return parsed, true
		}
		return core.ZeroQuantity, false
	}
	var numeric uint64
	if err := json.Unmarshal(o.Value, &numeric); err == nil {
		return core.Q64(numeric), true
	}
	return core.ZeroQuantity, false
}

// ReturnToken parses a non-fungible outcome. The second return reports
// whether the value parsed; unparseable or failed outcomes are
// rejections.
func (o Outcome) ReturnToken() (bool, bool) {
	if !o.Completed || len(o.Value) == 0 {
		return false, false
	}
	var returnToken bool
	if err := json.Unmarshal(o.Value, &returnToken); err != nil {
		return false, false
	}
	return returnToken, true
}
