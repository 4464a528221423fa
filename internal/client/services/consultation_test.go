package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/wecare/internal/client/models"
	"github.com/dmitrijs2005/wecare/internal/client/repositories/consultations"
	"github.com/dmitrijs2005/wecare/internal/client/syncqueue"
	"github.com/dmitrijs2005/wecare/internal/client/triage"
	"github.com/dmitrijs2005/wecare/internal/client/ui"
	"github.com/dmitrijs2005/wecare/internal/common"
	"github.com/dmitrijs2005/wecare/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type consultationFixture struct {
	svc    ConsultationService
	repo   *consultations.StoreRepository
	client *fakeClient
	net    *switchable
	notes  *notes
	clock  *timex.FixedClock
}

func newConsultationFixture(t *testing.T, online bool) *consultationFixture {
	t.Helper()
	f := &consultationFixture{
		repo:   consultations.NewStoreRepository(setupStore(t)),
		client: &fakeClient{},
		net:    &switchable{online: online},
		notes:  &notes{},
		clock:  &timex.FixedClock{T: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)},
	}
	f.svc = NewConsultationService(f.client, f.repo, f.net, &fakeDrainer{}, f.notes, f.clock, nil)
	return f
}

func (f *consultationFixture) all(t *testing.T) []*models.Consultation {
	t.Helper()
	all, err := f.repo.GetAll(context.Background())
	require.NoError(t, err)
	return all
}

func TestSubmit_EmptyInputRejectedBeforeAnyWrite(t *testing.T) {
	for _, online := range []bool{true, false} {
		f := newConsultationFixture(t, online)
		_, err := f.svc.Submit(context.Background(), models.Submission{Symptoms: "  \n\t "})
		require.ErrorIs(t, err, common.ErrEmptySubmission)
		assert.Empty(t, f.all(t))
		assert.Empty(t, f.client.CreateCalls)
	}
}

func TestSubmit_MediaOnlyNeedsNetwork(t *testing.T) {
	f := newConsultationFixture(t, false)
	_, err := f.svc.Submit(context.Background(), models.Submission{Media: []byte{1}})
	require.ErrorIs(t, err, common.ErrMediaNeedsNetwork)
	assert.Empty(t, f.all(t))

	f = newConsultationFixture(t, true)
	f.client.CreateErr = common.NetworkError("POST /api/consultation", errors.New("reset"))
	_, err = f.svc.Submit(context.Background(), models.Submission{Media: []byte{1}})
	require.ErrorIs(t, err, common.ErrMediaNeedsNetwork)
	require.ErrorIs(t, err, common.ErrNetworkFailure)
	assert.Empty(t, f.all(t))
}

func TestSubmit_OfflineUsesLocalRulesAndQueues(t *testing.T) {
	f := newConsultationFixture(t, false)

	c, err := f.svc.Submit(context.Background(), models.Submission{Symptoms: " I have chest pain ", UseHistory: true})
	require.NoError(t, err)
	assert.Equal(t, "I have chest pain", c.Symptoms)
	assert.Equal(t, models.PriorityCritical, c.Result.Priority)
	assert.Equal(t, triage.SpecializationCardiology, c.Result.Specialization)
	assert.True(t, c.Result.Offline)
	assert.False(t, c.Synced)
	assert.Equal(t, f.clock.T, c.CreatedAt)
	assert.Empty(t, f.client.CreateCalls)

	all := f.all(t)
	require.Len(t, all, 1)
	assert.False(t, all[0].Synced)
	assert.True(t, all[0].UseHistory)
	assert.Equal(t, []note{{MsgSavedOffline, ui.SeverityWarning}}, f.notes.got)
}

func TestSubmit_OnlineStoresRemoteAssessmentAsSynced(t *testing.T) {
	f := newConsultationFixture(t, true)
	id := int64(12)
	f.client.CreateRet = &models.TriageResult{
		ConsultationID: &id,
		Priority:       models.PriorityHigh,
		Response:       "See a doctor today.",
		Specialization: "Pulmonology",
	}

	c, err := f.svc.Submit(context.Background(), models.Submission{Symptoms: "cough", MediaName: "x.png", Media: []byte{1}})
	require.NoError(t, err)
	assert.True(t, c.Synced)
	assert.Equal(t, models.PriorityHigh, c.Result.Priority)
	assert.False(t, c.Result.Offline)

	require.Len(t, f.client.CreateCalls, 1)
	assert.Equal(t, "x.png", f.client.CreateCalls[0].MediaName)

	pending, err := f.repo.GetUnsynced(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Empty(t, f.notes.got)
}

func TestSubmit_OnlineFailureFallsBackAndQueues(t *testing.T) {
	f := newConsultationFixture(t, true)
	f.client.CreateErr = &common.RemoteRejection{Status: 503, Message: "AI service unavailable"}

	c, err := f.svc.Submit(context.Background(), models.Submission{Symptoms: "fever and severe chills"})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityHigh, c.Result.Priority)
	assert.True(t, c.Result.Offline)
	assert.False(t, c.Synced)

	pending, err := f.repo.GetUnsynced(context.Background())
	require.NoError(t, err)
	assert.Len(t, pending, 1)
	assert.Equal(t, []note{
		{"AI service unavailable", ui.SeverityError},
		{MsgSavedOffline, ui.SeverityWarning},
	}, f.notes.got)
}

func TestSubmit_OnlineFailureNotes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []note
	}{
		{
			name: "rejection message is shown",
			err:  &common.RemoteRejection{Status: 422, Message: "symptoms too long"},
			want: []note{{"symptoms too long", ui.SeverityError}, {MsgSavedOffline, ui.SeverityWarning}},
		},
		{
			name: "rejection without message",
			err:  &common.RemoteRejection{Status: 401},
			want: []note{{MsgSavedOffline, ui.SeverityWarning}},
		},
		{
			name: "network failure",
			err:  common.NetworkError("POST /api/consultation", errors.New("reset")),
			want: []note{{MsgSavedOffline, ui.SeverityWarning}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newConsultationFixture(t, true)
			f.client.CreateErr = tt.err

			c, err := f.svc.Submit(context.Background(), models.Submission{Symptoms: "cough"})
			require.NoError(t, err)
			assert.False(t, c.Synced)
			assert.Equal(t, tt.want, f.notes.got)
		})
	}
}

// storedFirstClient checks that the record is already in the local store
// when the processing service is called.
type storedFirstClient struct {
	fakeClient
	repo    *consultations.StoreRepository
	pending int
}

func (c *storedFirstClient) CreateConsultation(ctx context.Context, sub models.Submission) (*models.TriageResult, error) {
	p, err := c.repo.GetUnsynced(ctx)
	if err != nil {
		return nil, err
	}
	c.pending = len(p)
	return c.fakeClient.CreateConsultation(ctx, sub)
}

func TestSubmit_OnlineWritesLocallyBeforeRemoteCall(t *testing.T) {
	f := newConsultationFixture(t, true)
	client := &storedFirstClient{repo: f.repo}
	client.CreateRet = &models.TriageResult{Priority: models.PriorityLow, Response: "ok"}
	svc := NewConsultationService(client, f.repo, f.net, &fakeDrainer{}, f.notes, f.clock, nil)

	c, err := svc.Submit(context.Background(), models.Submission{Symptoms: "itchy eyes"})
	require.NoError(t, err)
	assert.Equal(t, 1, client.pending)
	assert.True(t, c.Synced)

	stored, err := f.repo.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.True(t, stored.Synced)
	assert.Equal(t, "ok", stored.Result.Response)
}

func TestSubmit_OnlineHoldsOffDrains(t *testing.T) {
	f := newConsultationFixture(t, true)
	ctx := context.Background()

	sub := &recordingSubmitter{}
	engine := syncqueue.New(f.repo, sub, nil, nil)

	client := &drainingClient{engine: engine}
	svc := NewConsultationService(client, f.repo, f.net, engine, f.notes, f.clock, nil)

	c, err := svc.Submit(ctx, models.Submission{Symptoms: "sore throat"})
	require.NoError(t, err)
	assert.True(t, c.Synced)

	require.NoError(t, <-client.drained)
	assert.Empty(t, sub.batch, "the in-flight submission is not drained")
}

// drainingClient starts a drain while the submission is in flight.
type drainingClient struct {
	fakeClient
	engine  *syncqueue.Engine
	drained chan error
}

func (c *drainingClient) CreateConsultation(ctx context.Context, sub models.Submission) (*models.TriageResult, error) {
	c.drained = make(chan error, 1)
	go func() {
		_, err := c.engine.Drain(ctx)
		c.drained <- err
	}()
	time.Sleep(20 * time.Millisecond)
	return &models.TriageResult{Priority: models.PriorityLow}, nil
}

func TestHistory_NewestFirst(t *testing.T) {
	f := newConsultationFixture(t, false)
	ctx := context.Background()

	for _, s := range []string{"cold", "headache", "rash"} {
		_, err := f.svc.Submit(ctx, models.Submission{Symptoms: s})
		require.NoError(t, err)
		f.clock.Advance(time.Minute)
	}
	// same timestamp as "rash": ties go to the later id
	f.clock.Advance(-time.Minute)
	_, err := f.svc.Submit(ctx, models.Submission{Symptoms: "cough"})
	require.NoError(t, err)

	got, err := f.svc.History(ctx)
	require.NoError(t, err)
	var order []string
	for _, c := range got {
		order = append(order, c.Symptoms)
	}
	assert.Equal(t, []string{"cough", "rash", "headache", "cold"}, order)
}

func TestSyncNow_Notifications(t *testing.T) {
	tests := []struct {
		name    string
		drainer *fakeDrainer
		want    note
	}{
		{"synced", &fakeDrainer{n: 3}, note{MsgSynced, ui.SeveritySuccess}},
		{"empty", &fakeDrainer{}, note{MsgNothingToSync, ui.SeverityInfo}},
		{"rejected", &fakeDrainer{err: &common.RemoteRejection{Status: 400, Message: "Invalid priority"}}, note{"Invalid priority", ui.SeverityError}},
		{"unreachable", &fakeDrainer{err: common.NetworkError("sync", errors.New("refused"))}, note{"Sync failed: the server cannot be reached", ui.SeverityError}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &notes{}
			svc := NewConsultationService(&fakeClient{}, nil, &switchable{online: true}, tt.drainer, n, nil, nil)
			count, err := svc.SyncNow(context.Background())
			assert.Equal(t, tt.drainer.err, err)
			assert.Equal(t, tt.drainer.n, count)
			assert.Equal(t, []note{tt.want}, n.got)
		})
	}
}

func TestSyncNow_WithEngineDrainsOfflineRecords(t *testing.T) {
	f := newConsultationFixture(t, false)
	ctx := context.Background()
	for _, s := range []string{"cold", "fever"} {
		_, err := f.svc.Submit(ctx, models.Submission{Symptoms: s})
		require.NoError(t, err)
	}

	sub := &recordingSubmitter{}
	svc := NewConsultationService(f.client, f.repo, f.net, syncqueue.New(f.repo, sub, nil, nil), f.notes, f.clock, nil)
	n, err := svc.SyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, sub.batch, 2)
}

type recordingSubmitter struct{ batch []models.SyncItem }

func (r *recordingSubmitter) SubmitConsultations(_ context.Context, b []models.SyncItem) error {
	r.batch = b
	return nil
}
