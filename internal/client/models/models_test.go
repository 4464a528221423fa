package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriority_OrderAndText(t *testing.T) {
	assert.True(t, PriorityLow < PriorityMedium)
	assert.True(t, PriorityMedium < PriorityHigh)
	assert.True(t, PriorityHigh < PriorityCritical)

	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical} {
		b, err := p.MarshalText()
		require.NoError(t, err)
		var back Priority
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, p, back)
	}

	_, err := Priority(9).MarshalText()
	require.Error(t, err)

	p, err := ParsePriority("CRITICAL")
	require.NoError(t, err)
	assert.Equal(t, PriorityCritical, p)

	_, err = ParsePriority("urgent")
	require.Error(t, err)
}

func TestConsultation_SyncItemOmitsBookkeeping(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c := &Consultation{
		ID:         7,
		Symptoms:   "cold",
		UseHistory: true,
		Result: TriageResult{
			Priority:       PriorityMedium,
			Response:       "rest",
			FirstAid:       "fluids",
			Specialization: "General Medicine",
		},
		CreatedAt: created,
		Synced:    false,
	}

	b, err := json.Marshal(c.SyncItem())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.NotContains(t, m, "id")
	assert.NotContains(t, m, "synced")
	assert.Equal(t, "medium", m["priority"])
	assert.Equal(t, "cold", m["symptoms"])
	assert.Equal(t, "rest", m["ai_response"])
	assert.Equal(t, true, m["use_history"])
	assert.Equal(t, "2024-05-01T10:00:00Z", m["created_at"])
}

func TestParseReferenceEntity(t *testing.T) {
	e, err := ParseReferenceEntity(DomainDoctors, json.RawMessage(`{"id": 12, "name": "Dr. Rahman", "specialization": "Cardiology"}`))
	require.NoError(t, err)
	assert.Equal(t, "12", e.ID)
	assert.Equal(t, DomainDoctors, e.Domain)
	assert.Equal(t, "Cardiology", e.Str("specialization"))
	assert.Equal(t, "", e.Str("missing"))

	e, err = ParseReferenceEntity(DomainNGOs, json.RawMessage(`{"id": "brac"}`))
	require.NoError(t, err)
	assert.Equal(t, "brac", e.ID)

	_, err = ParseReferenceEntity(DomainHospitals, json.RawMessage(`{"name": "no id"}`))
	require.ErrorIs(t, err, ErrMissingEntityID)

	_, err = ParseReferenceEntity(DomainHospitals, json.RawMessage(`[1,2]`))
	require.Error(t, err)
}

func TestParseDomain(t *testing.T) {
	d, err := ParseDomain("hospitals")
	require.NoError(t, err)
	assert.Equal(t, DomainHospitals, d)

	_, err = ParseDomain("pharmacies")
	require.Error(t, err)
	assert.Len(t, Domains(), 3)
}

func TestSubmission_HasMedia(t *testing.T) {
	assert.False(t, Submission{Symptoms: "x"}.HasMedia())
	assert.True(t, Submission{Media: []byte{1}}.HasMedia())
}
