package draft

import (
	"fmt"
	"strings"
	"time"

	"github.com/kingrea/sistema-obras/internal/device"
	"github.com/kingrea/sistema-obras/internal/domain"
)

// WorkFields is the form order of a work draft.
var WorkFields = []Field{
	FieldName,
	FieldResponsible,
	FieldStartDate,
	FieldEndDate,
	FieldStatus,
	FieldDescription,
	FieldLatitude,
	FieldLongitude,
	FieldPhoto,
}

// Work is the editable copy of a work. ID is empty for a new work.
type Work struct {
	ID          string
	Name        string
	Responsible string
	StartDate   string
	EndDate     string
	Description string
	Status      string
	coords      coordinates
	Photo       string

	startSeed domain.Timestamp
	endSeed   domain.Timestamp
}

// NewWork starts a draft for a work that does not exist yet.
func NewWork(today time.Time) Work {
	d := Today(today)
	return Work{StartDate: d, EndDate: d, Status: domain.DefaultWorkStatus}
}

// SeedWork copies a fetched work into a draft.
func SeedWork(w domain.Work) Work {
	return Work{
		ID:          w.ID,
		Name:        w.Name,
		Responsible: w.Responsible,
		StartDate:   w.StartDate.Date(),
		EndDate:     w.EndDate.Date(),
		Description: w.Description,
		Status:      w.Status,
		coords:      coordinatesOf(w.Location),
		Photo:       w.Photo,
		startSeed:   w.StartDate,
		endSeed:     w.EndDate,
	}
}

// IsNew reports whether submitting creates rather than updates.
func (w Work) IsNew() bool {
	return strings.TrimSpace(w.ID) == ""
}

func (w Work) Latitude() string  { return w.coords.Latitude }
func (w Work) Longitude() string { return w.coords.Longitude }

// Apply merges a capability result. Only the fields of the result's kind
// change; unsuccessful results change nothing.
func (w Work) Apply(res device.Result) Work {
	w.coords = w.coords.apply(res)
	if res.Kind == device.KindPhoto && res.OK() {
		w.Photo = res.URI
	}
	return w
}

// Value returns the text of field.
func (w Work) Value(field Field) string {
	switch field {
	case FieldName:
		return w.Name
	case FieldResponsible:
		return w.Responsible
	case FieldStartDate:
		return w.StartDate
	case FieldEndDate:
		return w.EndDate
	case FieldDescription:
		return w.Description
	case FieldStatus:
		return w.Status
	case FieldLatitude:
		return w.coords.Latitude
	case FieldLongitude:
		return w.coords.Longitude
	case FieldPhoto:
		return w.Photo
	}
	return ""
}

// Set returns a copy with field replaced.
func (w Work) Set(field Field, value string) (Work, error) {
	switch field {
	case FieldName:
		w.Name = value
	case FieldResponsible:
		w.Responsible = value
	case FieldStartDate:
		w.StartDate = value
	case FieldEndDate:
		w.EndDate = value
	case FieldDescription:
		w.Description = value
	case FieldStatus:
		w.Status = value
	case FieldLatitude:
		w.coords.Latitude = value
	case FieldLongitude:
		w.coords.Longitude = value
	case FieldPhoto:
		w.Photo = value
	default:
		return w, fmt.Errorf("draft: work has no field %q", field)
	}
	return w, nil
}

// Validate reports the first local problem, or nil.
func (w Work) Validate() error {
	_, err := w.Payload(domain.DefaultWorkPhoto)
	return err
}

// Payload serializes the draft for the gateway. placeholder fills an empty
// photo.
func (w Work) Payload(placeholder string) (domain.WorkPayload, error) {
	start, err := parseDate(FieldStartDate, w.StartDate, w.startSeed)
	if err != nil {
		return domain.WorkPayload{}, err
	}
	end, err := parseDate(FieldEndDate, w.EndDate, w.endSeed)
	if err != nil {
		return domain.WorkPayload{}, err
	}
	loc, err := w.coords.location()
	if err != nil {
		return domain.WorkPayload{}, err
	}
	status := strings.TrimSpace(w.Status)
	if status == "" {
		status = domain.DefaultWorkStatus
	}
	return domain.WorkPayload{
		Name:        strings.TrimSpace(w.Name),
		Responsible: strings.TrimSpace(w.Responsible),
		StartDate:   start,
		EndDate:     end,
		Location:    loc,
		Description: w.Description,
		Photo:       photoOr(w.Photo, placeholder),
		Status:      status,
	}, nil
}
