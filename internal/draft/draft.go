// Package draft holds the screen-local, in-progress copy of a work or an
// inspection. Drafts are plain values: every mutation returns a new draft,
// so a failed submission can always fall back to the value it started from.
package draft

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kingrea/sistema-obras/internal/device"
	"github.com/kingrea/sistema-obras/internal/domain"
)

// Field names an editable draft field. The values double as form keys.
type Field string

const (
	FieldName        Field = "name"
	FieldResponsible Field = "responsible"
	FieldStartDate   Field = "start_date"
	FieldEndDate     Field = "end_date"
	FieldDescription Field = "description"
	FieldStatus      Field = "status"
	FieldDate        Field = "date"
	FieldInspector   Field = "inspector"
	FieldRemarks     Field = "remarks"
	FieldLatitude    Field = "latitude"
	FieldLongitude   Field = "longitude"
	FieldPhoto       Field = "photo"
)

// ValidationError is a local, user-correctable problem with a draft. It
// never involves the gateway.
type ValidationError struct {
	Field  Field
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field Field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Today formats t as the date the editing screens expect.
func Today(t time.Time) string {
	return t.UTC().Format(domain.DateLayout)
}

// coordinates is the text-editable location shared by both entity drafts.
type coordinates struct {
	Latitude  string
	Longitude string
}

func coordinatesOf(loc *domain.Location) coordinates {
	if loc == nil {
		return coordinates{}
	}
	return coordinates{
		Latitude:  domain.FormatCoordinate(loc.Latitude),
		Longitude: domain.FormatCoordinate(loc.Longitude),
	}
}

func (c coordinates) apply(res device.Result) coordinates {
	if res.Kind != device.KindLocation || !res.OK() {
		return c
	}
	return coordinates{
		Latitude:  domain.FormatCoordinate(res.Fix.Latitude),
		Longitude: domain.FormatCoordinate(res.Fix.Longitude),
	}
}

// location parses the pair. Both empty means no location; one empty is a
// half-filled pair and rejected.
func (c coordinates) location() (*domain.Location, error) {
	lat := strings.TrimSpace(c.Latitude)
	lon := strings.TrimSpace(c.Longitude)
	switch {
	case lat == "" && lon == "":
		return nil, nil
	case lat == "":
		return nil, invalid(FieldLatitude, "latitude is required when longitude is set")
	case lon == "":
		return nil, invalid(FieldLongitude, "longitude is required when latitude is set")
	}
	latV, err := parseCoordinate(FieldLatitude, lat)
	if err != nil {
		return nil, err
	}
	lonV, err := parseCoordinate(FieldLongitude, lon)
	if err != nil {
		return nil, err
	}
	// Ranges are the service's call; locally a coordinate only has to parse.
	return &domain.Location{Latitude: latV, Longitude: lonV}, nil
}

func parseCoordinate(field Field, text string) (float64, error) {
	// Accept the decimal comma the device keyboards produce.
	v, err := strconv.ParseFloat(strings.Replace(text, ",", ".", 1), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalid(field, "%q is not a decimal number", text)
	}
	return v, nil
}

// parseDate turns "YYYY-MM-DD" into a timestamp. Without a seed the result
// is midnight UTC. A seeded timestamp keeps its time of day, so unchanged
// text gives the seed back and a new date only moves the day. Empty text is
// the zero timestamp, which the wire encodes as null.
func parseDate(field Field, text string, seeded domain.Timestamp) (domain.Timestamp, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Timestamp{}, nil
	}
	day, err := time.Parse(domain.DateLayout, text)
	if err != nil {
		return domain.Timestamp{}, invalid(field, "%q is not a date (YYYY-MM-DD)", text)
	}
	if seeded.IsZero() {
		return domain.NewTimestamp(day), nil
	}
	clock := seeded.Time.UTC()
	return domain.NewTimestamp(time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), time.UTC)), nil
}

func photoOr(photo, placeholder string) string {
	if p := strings.TrimSpace(photo); p != "" {
		return p
	}
	return placeholder
}
