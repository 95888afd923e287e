package models

// Host is the snapshot of a monitored host at render time.
type Host struct {
	Name                  string  `json:"name"`
	DisplayName           string  `json:"display_name"`
	CheckCommand          string  `json:"checkcommand,omitempty"`
	FlappingThresholdHigh float64 `json:"flapping_threshold_high,omitempty"`
	FlappingThresholdLow  float64 `json:"flapping_threshold_low,omitempty"`
}

// Label returns the display name, falling back to the object name.
func (h *Host) Label() string {
	if h.DisplayName != "" {
		return h.DisplayName
	}
	return h.Name
}

// Service is the snapshot of a monitored service. A service always belongs to
// the host of the same record.
type Service struct {
	Name                  string  `json:"name"`
	DisplayName           string  `json:"display_name"`
	CheckCommand          string  `json:"checkcommand,omitempty"`
	FlappingThresholdHigh float64 `json:"flapping_threshold_high,omitempty"`
	FlappingThresholdLow  float64 `json:"flapping_threshold_low,omitempty"`
}

// Label returns the display name, falling back to the object name.
func (s *Service) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Name
}

// CheckCommand returns the check command of the object the record concerns.
func (e *EventRecord) CheckCommand() string {
	if e.ObjectType == ObjectService && e.Service != nil {
		return e.Service.CheckCommand
	}
	if e.Host != nil {
		return e.Host.CheckCommand
	}
	return ""
}
