// internal/device/device.go
//
// Capability providers and the permission -> capability -> result pipeline.
// A pipeline run always settles into exactly one Result; callers merge it
// into a draft and show its Notice.

package device

import (
	"context"
	"fmt"
)

// Permission names a platform permission.
type Permission string

const (
	PermissionLocation Permission = "location"
	PermissionCamera   Permission = "camera"
	PermissionGallery  Permission = "gallery"
)

// Permissions grants or refuses access to a capability.
type Permissions interface {
	Request(ctx context.Context, p Permission) (bool, error)
}

// Fix is one GPS reading in decimal degrees.
type Fix struct {
	Latitude  float64
	Longitude float64
}

// Locator reads the current position.
type Locator interface {
	CurrentPosition(ctx context.Context) (Fix, error)
}

// Camera captures or picks an image. ok is false when the user cancelled.
type Camera interface {
	Capture(ctx context.Context) (uri string, ok bool, err error)
}

// Kind says which draft fields a Result may touch.
type Kind int

const (
	KindLocation Kind = iota
	KindPhoto
)

func (k Kind) String() string {
	switch k {
	case KindLocation:
		return "location"
	case KindPhoto:
		return "photo"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is how a pipeline run settled.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeDenied
	OutcomeCancelled
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeDenied:
		return "denied"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the single value a capability pipeline produces.
type Result struct {
	Kind    Kind
	Outcome Outcome
	Fix     Fix
	URI     string
	Err     error
}

// LocationResult is a successful GPS reading.
func LocationResult(fix Fix) Result {
	return Result{Kind: KindLocation, Outcome: OutcomeSuccess, Fix: fix}
}

// PhotoResult is a successful capture.
func PhotoResult(uri string) Result {
	return Result{Kind: KindPhoto, Outcome: OutcomeSuccess, URI: uri}
}

// OK reports a successful outcome.
func (r Result) OK() bool {
	return r.Outcome == OutcomeSuccess
}

// Notice is the message shown to the user. Cancellation is silent.
func (r Result) Notice() string {
	switch r.Kind {
	case KindLocation:
		switch r.Outcome {
		case OutcomeSuccess:
			return fmt.Sprintf("Location acquired: Lat %.4f, Lon %.4f", r.Fix.Latitude, r.Fix.Longitude)
		case OutcomeDenied:
			return "Location permission denied. Grant location access to use this feature."
		case OutcomeFailed:
			return "Could not get the current location."
		}
	case KindPhoto:
		switch r.Outcome {
		case OutcomeSuccess:
			return "Photo selected, ready to submit."
		case OutcomeDenied:
			return "Camera or gallery permission is required to select a photo."
		case OutcomeFailed:
			return "Could not capture a photo."
		}
	}
	return ""
}

// AcquireLocation asks for the location permission and, only when granted,
// reads the current position. A refused or failed permission request never
// reaches the locator.
func AcquireLocation(ctx context.Context, perms Permissions, loc Locator) Result {
	granted, err := request(ctx, perms, PermissionLocation)
	if err != nil || !granted {
		return Result{Kind: KindLocation, Outcome: OutcomeDenied, Err: err}
	}
	if loc == nil {
		return Result{Kind: KindLocation, Outcome: OutcomeFailed, Err: fmt.Errorf("device: no locator configured")}
	}
	fix, err := loc.CurrentPosition(ctx)
	if err != nil {
		return Result{Kind: KindLocation, Outcome: OutcomeFailed, Err: err}
	}
	return LocationResult(fix)
}

// AcquirePhoto requests camera and gallery permissions; either one is enough.
func AcquirePhoto(ctx context.Context, perms Permissions, cam Camera) Result {
	cameraOK, cameraErr := request(ctx, perms, PermissionCamera)
	galleryOK, galleryErr := request(ctx, perms, PermissionGallery)
	if !cameraOK && !galleryOK {
		err := cameraErr
		if err == nil {
			err = galleryErr
		}
		return Result{Kind: KindPhoto, Outcome: OutcomeDenied, Err: err}
	}
	if cam == nil {
		return Result{Kind: KindPhoto, Outcome: OutcomeFailed, Err: fmt.Errorf("device: no camera configured")}
	}
	uri, ok, err := cam.Capture(ctx)
	if err != nil {
		return Result{Kind: KindPhoto, Outcome: OutcomeFailed, Err: err}
	}
	if !ok || uri == "" {
		return Result{Kind: KindPhoto, Outcome: OutcomeCancelled}
	}
	return PhotoResult(uri)
}

func request(ctx context.Context, perms Permissions, p Permission) (bool, error) {
	if perms == nil {
		return false, fmt.Errorf("device: no permission provider")
	}
	granted, err := perms.Request(ctx, p)
	if err != nil {
		return false, fmt.Errorf("device: request %s permission: %w", p, err)
	}
	return granted, nil
}
