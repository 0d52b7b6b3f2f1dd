package draft

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/sistema-obras/internal/device"
	"github.com/kingrea/sistema-obras/internal/domain"
)

var jan1 = time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC)

func TestNewWorkPayloadUsesPlaceholderAndMidnightDates(t *testing.T) {
	d, err := NewWork(jan1).Set(FieldName, "Ponte Sul")
	require.NoError(t, err)
	assert.True(t, d.IsNew())

	payload, err := d.Payload(domain.DefaultWorkPhoto)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultWorkPhoto, payload.Photo)
	assert.Equal(t, domain.DefaultWorkStatus, payload.Status)
	assert.Nil(t, payload.Location)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	var wire map[string]any
	require.NoError(t, json.Unmarshal(raw, &wire))
	assert.Equal(t, "2024-01-01T00:00:00.000Z", wire["dataInicio"])
	assert.Equal(t, "2024-01-01T00:00:00.000Z", wire["dataFim"])
	assert.Equal(t, domain.DefaultWorkPhoto, wire["foto"])
}

func TestSeedWorkCopiesFields(t *testing.T) {
	w := domain.Work{
		ID:          "w1",
		Name:        "Ponte Sul",
		Responsible: "Ana",
		StartDate:   domain.NewTimestamp(time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC)),
		Status:      "Em Andamento",
		Location:    &domain.Location{Latitude: -23.55, Longitude: -46.633},
		Photo:       "file:///tmp/p.jpg",
	}
	d := SeedWork(w)
	assert.False(t, d.IsNew())
	assert.Equal(t, "2024-02-03", d.StartDate)
	assert.Equal(t, "", d.EndDate)
	assert.Equal(t, "-23.55", d.Latitude())
	assert.Equal(t, "-46.633", d.Longitude())

	payload, err := d.Payload(domain.DefaultWorkPhoto)
	require.NoError(t, err)
	assert.Equal(t, "file:///tmp/p.jpg", payload.Photo)
	assert.Equal(t, w.Location, payload.Location)
	assert.True(t, payload.EndDate.IsZero())
}

func TestApplyLocationIsIdempotentAndScoped(t *testing.T) {
	base, err := NewWork(jan1).Set(FieldName, "Ponte Sul")
	require.NoError(t, err)
	base, err = base.Set(FieldPhoto, "file:///tmp/a.jpg")
	require.NoError(t, err)
	fix := device.LocationResult(device.Fix{Latitude: -23.5, Longitude: -46.6})

	once := base.Apply(fix)
	twice := once.Apply(fix)
	assert.Equal(t, once, twice)
	assert.Equal(t, "-23.5", once.Latitude())
	assert.Equal(t, "-46.6", once.Longitude())

	for _, field := range WorkFields {
		if field == FieldLatitude || field == FieldLongitude {
			continue
		}
		assert.Equal(t, base.Value(field), once.Value(field), "field %s", field)
	}
}

func TestApplyPhotoTouchesOnlyPhoto(t *testing.T) {
	base := NewInspection("w1", jan1)
	got := base.Apply(device.PhotoResult("file:///tmp/b.jpg"))
	assert.Equal(t, "file:///tmp/b.jpg", got.Photo)
	got.Photo = base.Photo
	assert.Equal(t, base, got)
}

func TestApplyIgnoresUnsuccessfulResults(t *testing.T) {
	base, err := NewWork(jan1).Set(FieldLatitude, "1")
	require.NoError(t, err)
	base, err = base.Set(FieldLongitude, "2")
	require.NoError(t, err)
	denied := device.Result{Kind: device.KindLocation, Outcome: device.OutcomeDenied}
	cancelled := device.Result{Kind: device.KindPhoto, Outcome: device.OutcomeCancelled}
	assert.Equal(t, base, base.Apply(denied))
	assert.Equal(t, base, base.Apply(cancelled))
}

func TestSeedInspectionCoercesUnknownStatus(t *testing.T) {
	snap := domain.Inspection{
		ID:        "f1",
		Work:      domain.RefTo("w1"),
		Date:      domain.NewTimestamp(jan1),
		Inspector: "Carlos",
		Status:    "Aprovada",
		Remarks:   "Sem pendências",
		Location:  &domain.Location{Latitude: 1.5, Longitude: 2.5},
		Photo:     "file:///tmp/f.jpg",
	}
	d := SeedInspection("w1", snap)
	assert.Equal(t, domain.StatusCompliant, d.Status)

	snap.Status = domain.StatusPending
	valid := SeedInspection("w1", snap)
	d.Status = valid.Status
	assert.Equal(t, valid, d)
}

func TestInspectionWorkIDComesFromNavigation(t *testing.T) {
	snap := domain.Inspection{ID: "f1", Work: domain.RefTo("other"), Status: domain.StatusPending}
	d := SeedInspection("w1", snap)
	assert.Equal(t, "w1", d.WorkID())

	payload, err := d.Payload(domain.DefaultInspectionPhoto)
	require.NoError(t, err)
	assert.Equal(t, "w1", payload.WorkID)
	assert.Equal(t, domain.DefaultInspectionPhoto, payload.Photo)

	_, err = NewInspection("", jan1).Payload(domain.DefaultInspectionPhoto)
	assert.Error(t, err)
}

func TestInspectionStatusSetRejectsUnknown(t *testing.T) {
	d := NewInspection("w1", jan1)
	_, err := d.Set(FieldStatus, "Aprovada")
	assert.Error(t, err)
	d, err = d.Set(FieldStatus, string(domain.StatusUnderReview))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnderReview, d.Status)
}

func TestValidateCoordinates(t *testing.T) {
	cases := []struct {
		name  string
		lat   string
		lon   string
		field Field
	}{
		{name: "half filled latitude", lat: "-23.5", lon: "", field: FieldLongitude},
		{name: "half filled longitude", lat: "", lon: "-46.6", field: FieldLatitude},
		{name: "not a number", lat: "abc", lon: "-46.6", field: FieldLatitude},
		{name: "infinite", lat: "1", lon: "Inf", field: FieldLongitude},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewWork(jan1)
			d, _ = d.Set(FieldLatitude, tc.lat)
			d, _ = d.Set(FieldLongitude, tc.lon)
			err := d.Validate()
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestValidateAcceptsDecimalComma(t *testing.T) {
	d := NewInspection("w1", jan1)
	d, _ = d.Set(FieldLatitude, "-23,5")
	d, _ = d.Set(FieldLongitude, "-46,6")
	payload, err := d.Payload(domain.DefaultInspectionPhoto)
	require.NoError(t, err)
	assert.Equal(t, &domain.Location{Latitude: -23.5, Longitude: -46.6}, payload.Location)
}

func TestValidateDates(t *testing.T) {
	d := NewWork(jan1)
	d, _ = d.Set(FieldStartDate, "01/02/2024")
	var verr *ValidationError
	require.True(t, errors.As(d.Validate(), &verr))
	assert.Equal(t, FieldStartDate, verr.Field)

	// Date order is checked by the service, not here.
	d, _ = d.Set(FieldStartDate, "2024-06-01")
	d, _ = d.Set(FieldEndDate, "2024-01-01")
	assert.NoError(t, d.Validate())
}

func TestCoordinatesOnlyHaveToParse(t *testing.T) {
	d := NewWork(jan1)
	d, _ = d.Set(FieldName, "Ponte Sul")
	d, _ = d.Set(FieldLatitude, "95")
	d, _ = d.Set(FieldLongitude, "-200.5")
	payload, err := d.Payload(domain.DefaultWorkPhoto)
	require.NoError(t, err)
	assert.Equal(t, &domain.Location{Latitude: 95, Longitude: -200.5}, payload.Location)
}

func TestSeededDatesKeepTimeOfDay(t *testing.T) {
	at, err := domain.ParseTimestamp("2024-05-01T14:23:11.123Z")
	require.NoError(t, err)

	in := SeedInspection("w1", domain.Inspection{ID: "f1", Work: domain.RefTo("w1"), Date: at, Status: domain.StatusPending})
	assert.Equal(t, "2024-05-01", in.Date)
	payload, err := in.Payload(domain.DefaultInspectionPhoto)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01T14:23:11.123Z", payload.Date.String())

	in, err = in.Set(FieldDate, "2024-05-03")
	require.NoError(t, err)
	payload, err = in.Payload(domain.DefaultInspectionPhoto)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-03T14:23:11.123Z", payload.Date.String())

	w := SeedWork(domain.Work{ID: "w1", Name: "Ponte Sul", StartDate: at})
	workPayload, err := w.Payload(domain.DefaultWorkPhoto)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01T14:23:11.123Z", workPayload.StartDate.String())
	assert.True(t, workPayload.EndDate.IsZero())

	w, _ = w.Set(FieldEndDate, "2024-07-01")
	workPayload, err = w.Payload(domain.DefaultWorkPhoto)
	require.NoError(t, err)
	assert.Equal(t, "2024-07-01T00:00:00.000Z", workPayload.EndDate.String())
}

func TestSetUnknownField(t *testing.T) {
	_, err := NewWork(jan1).Set(FieldInspector, "x")
	assert.Error(t, err)
	_, err = NewInspection("w1", jan1).Set(FieldName, "x")
	assert.Error(t, err)
}
