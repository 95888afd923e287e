package history

import (
	"fmt"

	"historyview/internal/models"
)

// Numeric check states as stored by the monitoring core.
const (
	StateOK       = 0
	StateWarning  = 1
	StateCritical = 2
	StateUnknown  = 3
	StatePending  = 99

	HostStateUp   = 0
	HostStateDown = 1
)

var (
	hostStates = map[int]string{
		HostStateUp:   "up",
		HostStateDown: "down",
		StatePending:  "pending",
	}
	serviceStates = map[int]string{
		StateOK:       "ok",
		StateWarning:  "warning",
		StateCritical: "critical",
		StateUnknown:  "unknown",
		StatePending:  "pending",
	}
)

// StateText maps a numeric state to its name for the given object type.
// Hosts know up, down and pending; services ok, warning, critical, unknown
// and pending.
func StateText(objectType models.ObjectType, state int) (string, error) {
	var table map[int]string
	switch objectType {
	case models.ObjectHost:
		table = hostStates
	case models.ObjectService:
		table = serviceStates
	default:
		return "", fmt.Errorf("%w: %q", models.ErrUnknownObjectType, objectType)
	}
	text, ok := table[state]
	if !ok {
		return "", fmt.Errorf("%w: %s state %d", models.ErrInvalidValue, objectType, state)
	}
	return text, nil
}
