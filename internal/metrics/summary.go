package metrics

import (
	"math"
	"sort"
	"time"

	"historyview/internal/history"
	"historyview/internal/models"
)

// ObjectSummary condenses the history of one host or service.
type ObjectSummary struct {
	Object          string            `json:"object"`
	ObjectType      models.ObjectType `json:"object_type"`
	Host            string            `json:"host"`
	Service         string            `json:"service,omitempty"`
	Events          int               `json:"events"`
	StateChanges    int               `json:"state_changes"`
	Problems        int               `json:"problems"`
	Recoveries      int               `json:"recoveries"`
	// RecoveryPercent is the share of problem and recovery state changes
	// that were recoveries. It says nothing about time spent OK.
	RecoveryPercent float64           `json:"recovery_percent"`
	Notifications   int               `json:"notifications"`
	LastState       string            `json:"last_state,omitempty"`
	LastChange      string            `json:"last_change,omitempty"`
}

// Summarize aggregates history records per monitored object. Records that
// are not valid are ignored. The result is sorted by object name.
func Summarize(records []*models.EventRecord) []ObjectSummary {
	type acc struct {
		summary   ObjectSummary
		lastState int
		lastTime  time.Time
	}
	state := make(map[string]*acc)
	for _, rec := range records {
		if rec == nil || rec.Validate() != nil {
			continue
		}
		key := objectKey(rec)
		target := state[key]
		if target == nil {
			target = &acc{summary: ObjectSummary{
				Object:     key,
				ObjectType: rec.ObjectType,
				Host:       rec.Host.Name,
			}}
			if rec.Service != nil {
				target.summary.Service = rec.Service.Name
			}
			state[key] = target
		}
		target.summary.Events++

		switch rec.EventType {
		case models.EventNotification:
			target.summary.Notifications++
		case models.EventStateChange:
			s, err := rec.StateChange()
			if err != nil {
				continue
			}
			effective := s.EffectiveState()
			target.summary.StateChanges++
			switch effective {
			case history.StateOK:
				target.summary.Recoveries++
			case history.StatePending:
			default:
				target.summary.Problems++
			}
			if rec.EventTime.After(target.lastTime) {
				target.lastTime = rec.EventTime
				target.lastState = effective
			}
		}
	}
	if len(state) == 0 {
		return nil
	}

	keys := make([]string, 0, len(state))
	for k := range state {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	results := make([]ObjectSummary, 0, len(keys))
	for _, key := range keys {
		data := state[key]
		result := data.summary
		if decided := result.Problems + result.Recoveries; decided > 0 {
			result.RecoveryPercent = round2(float64(result.Recoveries) / float64(decided) * 100)
		}
		if !data.lastTime.IsZero() {
			if text, err := history.StateText(result.ObjectType, data.lastState); err == nil {
				result.LastState = text
			}
			result.LastChange = data.lastTime.UTC().Format(time.RFC3339)
		}
		results = append(results, result)
	}
	return results
}

func objectKey(rec *models.EventRecord) string {
	if rec.ObjectType == models.ObjectService {
		return rec.Host.Name + "!" + rec.Service.Name
	}
	return rec.Host.Name
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
