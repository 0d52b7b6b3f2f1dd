package draft

import (
	"fmt"
	"strings"
	"time"

	"github.com/kingrea/sistema-obras/internal/device"
	"github.com/kingrea/sistema-obras/internal/domain"
)

// InspectionFields is the form order of an inspection draft.
var InspectionFields = []Field{
	FieldDate,
	FieldInspector,
	FieldStatus,
	FieldRemarks,
	FieldLatitude,
	FieldLongitude,
	FieldPhoto,
}

// Inspection is the editable copy of an inspection. The owning work is fixed
// at construction and cannot be set afterwards.
type Inspection struct {
	ID        string
	workID    string
	Date      string
	Inspector string
	Status    domain.InspectionStatus
	Remarks   string
	coords    coordinates
	Photo     string
	dateSeed  domain.Timestamp
}

// NewInspection starts a draft for a new inspection of workID.
func NewInspection(workID string, today time.Time) Inspection {
	return Inspection{
		workID: workID,
		Date:   Today(today),
		Status: domain.StatusCompliant,
	}
}

// SeedInspection copies a fetched inspection into a draft. workID comes from
// the navigation that opened the form, not from the snapshot. A status outside
// the known set becomes the default.
func SeedInspection(workID string, in domain.Inspection) Inspection {
	return Inspection{
		ID:        in.ID,
		workID:    workID,
		Date:      in.Date.Date(),
		Inspector: in.Inspector,
		Status:    in.Status.Normalize(),
		Remarks:   in.Remarks,
		coords:    coordinatesOf(in.Location),
		Photo:     in.Photo,
		dateSeed:  in.Date,
	}
}

func (d Inspection) WorkID() string    { return d.workID }
func (d Inspection) Latitude() string  { return d.coords.Latitude }
func (d Inspection) Longitude() string { return d.coords.Longitude }

// IsNew reports whether submitting creates rather than updates.
func (d Inspection) IsNew() bool {
	return strings.TrimSpace(d.ID) == ""
}

// Apply merges a capability result, touching only the fields of its kind.
func (d Inspection) Apply(res device.Result) Inspection {
	d.coords = d.coords.apply(res)
	if res.Kind == device.KindPhoto && res.OK() {
		d.Photo = res.URI
	}
	return d
}

// Value returns the text of field.
func (d Inspection) Value(field Field) string {
	switch field {
	case FieldDate:
		return d.Date
	case FieldInspector:
		return d.Inspector
	case FieldStatus:
		return d.Status.String()
	case FieldRemarks:
		return d.Remarks
	case FieldLatitude:
		return d.coords.Latitude
	case FieldLongitude:
		return d.coords.Longitude
	case FieldPhoto:
		return d.Photo
	}
	return ""
}

// Set returns a copy with field replaced. Status must be one of the known
// values; the form offers them as a picker.
func (d Inspection) Set(field Field, value string) (Inspection, error) {
	switch field {
	case FieldDate:
		d.Date = value
	case FieldInspector:
		d.Inspector = value
	case FieldStatus:
		status := domain.InspectionStatus(value)
		if !status.IsValid() {
			return d, invalid(FieldStatus, "%q is not an inspection status", value)
		}
		d.Status = status
	case FieldRemarks:
		d.Remarks = value
	case FieldLatitude:
		d.coords.Latitude = value
	case FieldLongitude:
		d.coords.Longitude = value
	case FieldPhoto:
		d.Photo = value
	default:
		return d, fmt.Errorf("draft: inspection has no field %q", field)
	}
	return d, nil
}

// Validate reports the first local problem, or nil.
func (d Inspection) Validate() error {
	_, err := d.Payload(domain.DefaultInspectionPhoto)
	return err
}

// Payload serializes the draft for the gateway.
func (d Inspection) Payload(placeholder string) (domain.InspectionPayload, error) {
	if strings.TrimSpace(d.workID) == "" {
		return domain.InspectionPayload{}, invalid("work", "inspection has no work")
	}
	date, err := parseDate(FieldDate, d.Date, d.dateSeed)
	if err != nil {
		return domain.InspectionPayload{}, err
	}
	loc, err := d.coords.location()
	if err != nil {
		return domain.InspectionPayload{}, err
	}
	return domain.InspectionPayload{
		Date:      date,
		Status:    d.Status.Normalize(),
		Remarks:   d.Remarks,
		Location:  loc,
		Photo:     photoOr(d.Photo, placeholder),
		WorkID:    d.workID,
		Inspector: strings.TrimSpace(d.Inspector),
	}, nil
}
