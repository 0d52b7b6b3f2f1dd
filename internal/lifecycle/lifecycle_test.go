package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/sistema-obras/internal/domain"
	"github.com/kingrea/sistema-obras/internal/draft"
	"github.com/kingrea/sistema-obras/internal/gateway"
	"github.com/kingrea/sistema-obras/internal/gateway/gatewaytest"
)

var today = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func seeded(t *testing.T) (*gateway.Memory, *gatewaytest.Recorder, domain.Work) {
	t.Helper()
	mem := gateway.NewMemory()
	work := mem.PutWork(domain.Work{Name: "Ponte Sul", Status: "Planejada"})
	return mem, gatewaytest.New(mem), work
}

func TestResourceIgnoresStaleTickets(t *testing.T) {
	var r Resource[string]
	assert.Equal(t, StateLoading, r.State())

	first := r.Begin()
	second := r.Begin()
	assert.False(t, r.Settle(first, "old", nil))
	assert.Equal(t, StateLoading, r.State())

	assert.True(t, r.Settle(second, "new", nil))
	v, ok := r.Value()
	require.True(t, ok)
	assert.Equal(t, "new", v)
	assert.False(t, r.Settle(second, "again", nil))
}

func TestResourceErrorThenRetry(t *testing.T) {
	var r Resource[int]
	ticket := r.Begin()
	r.Settle(ticket, 0, errors.New("offline"))
	assert.Equal(t, StateError, r.State())
	assert.EqualError(t, r.Err(), "offline")

	ticket = r.Begin()
	assert.Equal(t, StateLoading, r.State())
	assert.NoError(t, r.Err())
	r.Settle(ticket, 7, nil)
	v, ok := r.Value()
	assert.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestLoadWorkDetailCombinesBothCalls(t *testing.T) {
	mem, rec, work := seeded(t)
	mem.PutInspection(domain.Inspection{Work: domain.RefTo(work.ID), Status: domain.StatusPending})

	detail, err := LoadWorkDetail(context.Background(), rec, work.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ponte Sul", detail.Work.Name)
	assert.Len(t, detail.Inspections, 1)
	assert.Equal(t, 1, rec.Count(gatewaytest.OpGetWork))
	assert.Equal(t, 1, rec.Count(gatewaytest.OpListInspectionsOfWork))
}

func TestLoadWorkDetailFailsAsUnit(t *testing.T) {
	_, rec, work := seeded(t)
	rec.Fail(gatewaytest.OpListInspectionsOfWork, &gateway.RemoteError{Status: 500, Message: "boom"})

	detail, err := LoadWorkDetail(context.Background(), rec, work.ID)
	require.Error(t, err)
	assert.Equal(t, WorkDetail{}, detail)
	assert.Equal(t, "boom", gateway.UserMessage(err, "fallback"))
}

func TestSubmitNewWorkCreatesOnly(t *testing.T) {
	_, rec, _ := seeded(t)
	d, err := draft.NewWork(today).Set(draft.FieldName, "Viaduto")
	require.NoError(t, err)

	created, err := SubmitWork(context.Background(), rec, d, domain.DefaultWorkPhoto)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1, rec.Count(gatewaytest.OpCreateWork))
	assert.Equal(t, 0, rec.Count(gatewaytest.OpUpdateWork))

	call, ok := rec.Last(gatewaytest.OpCreateWork)
	require.True(t, ok)
	payload := call.Payload.(domain.WorkPayload)
	assert.Equal(t, domain.DefaultWorkPhoto, payload.Photo)
	assert.Equal(t, "2024-01-01T00:00:00.000Z", payload.StartDate.String())
}

func TestSubmitExistingWorkUpdatesOnly(t *testing.T) {
	_, rec, work := seeded(t)
	d, err := draft.SeedWork(work).Set(draft.FieldName, "Ponte Norte")
	require.NoError(t, err)

	updated, err := SubmitWork(context.Background(), rec, d, domain.DefaultWorkPhoto)
	require.NoError(t, err)
	assert.Equal(t, work.ID, updated.ID)
	assert.Equal(t, "Ponte Norte", updated.Name)
	assert.Equal(t, 0, rec.Count(gatewaytest.OpCreateWork))
	assert.Equal(t, 1, rec.Count(gatewaytest.OpUpdateWork))
	call, ok := rec.Last(gatewaytest.OpUpdateWork)
	require.True(t, ok)
	assert.Equal(t, work.ID, call.ID)
}

func TestSubmitInvalidCoordinatesMakesNoCall(t *testing.T) {
	_, rec, work := seeded(t)
	d := draft.NewInspection(work.ID, today)
	d, _ = d.Set(draft.FieldLatitude, "north")
	d, _ = d.Set(draft.FieldLongitude, "-46.6")

	_, err := SubmitInspection(context.Background(), rec, d, domain.DefaultInspectionPhoto)
	var verr *draft.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, draft.FieldLatitude, verr.Field)
	assert.Zero(t, rec.Total())
}

func TestSubmitLeavesDateOrderAndRangesToService(t *testing.T) {
	_, rec, _ := seeded(t)
	d := draft.NewWork(today)
	d, _ = d.Set(draft.FieldName, "Viaduto")
	d, _ = d.Set(draft.FieldStartDate, "2024-06-01")
	d, _ = d.Set(draft.FieldEndDate, "2024-01-01")
	d, _ = d.Set(draft.FieldLatitude, "95")
	d, _ = d.Set(draft.FieldLongitude, "10")

	_, err := SubmitWork(context.Background(), rec, d, domain.DefaultWorkPhoto)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Count(gatewaytest.OpCreateWork))
}

func TestResubmitUnchangedKeepsTimeOfDay(t *testing.T) {
	mem, rec, work := seeded(t)
	at, err := domain.ParseTimestamp("2024-05-01T14:23:11.123Z")
	require.NoError(t, err)
	in := mem.PutInspection(domain.Inspection{Work: domain.RefTo(work.ID), Date: at, Status: domain.StatusPending})

	fetched, err := LoadInspection(context.Background(), rec, in.ID)
	require.NoError(t, err)
	saved, err := SubmitInspection(context.Background(), rec, draft.SeedInspection(work.ID, fetched), domain.DefaultInspectionPhoto)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01T14:23:11.123Z", saved.Date.String())
	assert.Equal(t, 1, rec.Count(gatewaytest.OpUpdateInspection))
}

func TestSubmitInspectionFailureIsSingleCall(t *testing.T) {
	_, rec, work := seeded(t)
	rec.Fail(gatewaytest.OpCreateInspection, &gateway.RemoteError{Status: 422, Message: "Fiscal é obrigatório"})
	d := draft.NewInspection(work.ID, today)

	_, err := SubmitInspection(context.Background(), rec, d, domain.DefaultInspectionPhoto)
	require.Error(t, err)
	assert.Equal(t, "Fiscal é obrigatório", gateway.UserMessage(err, "fallback"))
	assert.Equal(t, 1, rec.Total())

	call, ok := rec.Last(gatewaytest.OpCreateInspection)
	require.True(t, ok)
	payload := call.Payload.(domain.InspectionPayload)
	assert.Equal(t, work.ID, payload.WorkID)
	assert.Equal(t, domain.StatusCompliant, payload.Status)
}

func TestDeletionWithoutConfirmMakesNoCall(t *testing.T) {
	_, rec, work := seeded(t)
	target := Target{Kind: gateway.KindWork, ID: work.ID, Label: work.Name}

	var d Deletion
	assert.ErrorIs(t, Delete(context.Background(), rec, d), ErrNotConfirmed)

	d = d.Request(target)
	assert.Equal(t, PhaseConfirming, d.Phase())
	assert.Contains(t, d.Target().Prompt(), "all of its inspections")
	assert.ErrorIs(t, Delete(context.Background(), rec, d), ErrNotConfirmed)

	d = d.Cancel()
	assert.Equal(t, PhaseIdle, d.Phase())
	_, ok := d.Confirm()
	assert.False(t, ok)
	assert.Zero(t, rec.Total())
}

func TestDeletionConfirmedMakesExactlyOneCall(t *testing.T) {
	_, rec, work := seeded(t)
	d, ok := Deletion{}.Request(Target{Kind: gateway.KindWork, ID: work.ID}).Confirm()
	require.True(t, ok)
	assert.Equal(t, PhaseExecuting, d.Phase())

	require.NoError(t, Delete(context.Background(), rec, d))
	assert.Equal(t, 1, rec.Count(gatewaytest.OpDeleteWork))
	assert.Equal(t, 1, rec.Total())
	assert.Equal(t, PhaseIdle, d.Finish().Phase())
}

func TestDeletionRequestIgnoredWhileExecuting(t *testing.T) {
	d, _ := Deletion{}.Request(Target{Kind: gateway.KindInspection, ID: "f1"}).Confirm()
	again := d.Request(Target{Kind: gateway.KindInspection, ID: "f2"})
	assert.Equal(t, "f1", again.Target().ID)
	assert.Equal(t, "Delete this inspection?", again.Target().Prompt())
}

func TestDeleteFailureWraps(t *testing.T) {
	_, rec, _ := seeded(t)
	rec.Fail(gatewaytest.OpDeleteInspection, &gateway.RemoteError{Status: 500, Message: "locked"})
	d, _ := Deletion{}.Request(Target{Kind: gateway.KindInspection, ID: "f1"}).Confirm()
	err := Delete(context.Background(), rec, d)
	require.Error(t, err)
	assert.Equal(t, "locked", gateway.UserMessage(err, "fallback"))
}

func TestSendReport(t *testing.T) {
	mem, rec, work := seeded(t)

	assert.Error(t, SendReport(context.Background(), rec, work.ID, "  "))
	assert.Error(t, SendReport(context.Background(), rec, work.ID, "not-an-address"))
	assert.Error(t, SendReport(context.Background(), rec, work.ID, "Ana <ana@example.com>"))
	assert.Zero(t, rec.Total())

	require.NoError(t, SendReport(context.Background(), rec, work.ID, " ana@example.com "))
	assert.Equal(t, []gateway.Report{{WorkID: work.ID, Recipient: "ana@example.com"}}, mem.Reports())
}
