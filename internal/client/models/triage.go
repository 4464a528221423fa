package models

import (
	"fmt"
	"strings"
)

// Priority is an ordered severity scale: Low < Medium < High < Critical.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

var priorityNames = [...]string{"low", "medium", "high", "critical"}

func (p Priority) String() string {
	if p < PriorityLow || p > PriorityCritical {
		return fmt.Sprintf("priority(%d)", int(p))
	}
	return priorityNames[p]
}

func ParsePriority(s string) (Priority, error) {
	for i, name := range priorityNames {
		if strings.EqualFold(s, name) {
			return Priority(i), nil
		}
	}
	return PriorityLow, fmt.Errorf("unknown priority %q", s)
}

func (p Priority) MarshalText() ([]byte, error) {
	if p < PriorityLow || p > PriorityCritical {
		return nil, fmt.Errorf("invalid priority %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(b []byte) error {
	v, err := ParsePriority(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// SuggestedDoctor is one entry of the optional suggestion list returned by the
// remote processing service.
type SuggestedDoctor struct {
	Name           string  `json:"name"`
	Specialization string  `json:"specialization"`
	Hospital       string  `json:"hospital,omitempty"`
	AvailableDays  string  `json:"available_days,omitempty"`
	Fee            float64 `json:"fee,omitempty"`
	Phone          string  `json:"phone,omitempty"`
}

// TriageResult has the same shape whether it came from the remote processing
// service or from the local offline fallback.
type TriageResult struct {
	ConsultationID     *int64            `json:"consultation_id"`
	Priority           Priority          `json:"priority"`
	Response           string            `json:"ai_response"`
	FirstAid           string            `json:"first_aid_suggestions"`
	Specialization     string            `json:"recommended_specialization"`
	RecommendedDoctors []SuggestedDoctor `json:"recommended_doctors"`

	// Offline is set when the result was produced locally.
	Offline bool `json:"offline,omitempty"`
}
