// Package triage produces a basic assessment without the network. The
// classification is keyword driven and depends on the input text alone.
package triage

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/wecare/internal/client/models"
)

const (
	SpecializationGeneral    = "General Medicine"
	SpecializationCardiology = "Cardiology"
)

type rule struct {
	matches        func(text string) bool
	priority       models.Priority
	specialization string
	firstAid       string
}

func containsAny(words ...string) func(string) bool {
	return func(text string) bool {
		for _, w := range words {
			if strings.Contains(text, w) {
				return true
			}
		}
		return false
	}
}

func containsAll(words ...string) func(string) bool {
	return func(text string) bool {
		for _, w := range words {
			if !strings.Contains(text, w) {
				return false
			}
		}
		return true
	}
}

// First match wins.
var rules = []rule{
	{
		matches:        containsAny("chest pain", "heart", "breathing"),
		priority:       models.PriorityCritical,
		specialization: SpecializationCardiology,
		firstAid:       "Seek emergency care immediately. Call ambulance if available.",
	},
	{
		matches:        containsAll("fever", "severe"),
		priority:       models.PriorityHigh,
		specialization: SpecializationGeneral,
		firstAid:       "Rest, drink plenty of fluids, take paracetamol if available.",
	},
	{
		matches:        containsAny("fever", "headache", "cold"),
		priority:       models.PriorityMedium,
		specialization: SpecializationGeneral,
		firstAid:       "Rest well, stay hydrated, monitor temperature.",
	},
}

// Assess classifies symptoms text. The same input always yields the same result.
func Assess(symptoms string) models.TriageResult {
	text := strings.ToLower(symptoms)

	priority := models.PriorityLow
	specialization := SpecializationGeneral
	firstAid := ""

	for _, r := range rules {
		if r.matches(text) {
			priority, specialization, firstAid = r.priority, r.specialization, r.firstAid
			break
		}
	}

	return models.TriageResult{
		Priority:           priority,
		Response:           render(priority, firstAid, specialization),
		FirstAid:           firstAid,
		Specialization:     specialization,
		RecommendedDoctors: []models.SuggestedDoctor{},
		Offline:            true,
	}
}

func render(p models.Priority, firstAid, specialization string) string {
	return fmt.Sprintf(`[Offline Mode - Basic Assessment]

Your symptoms have been recorded. Priority level: %s

%s

This is a basic offline assessment. For accurate diagnosis and treatment, please consult with a healthcare professional as soon as possible.

Recommended: %s specialist`, strings.ToUpper(p.String()), firstAid, specialization)
}
