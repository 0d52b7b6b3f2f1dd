package device

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrNoFix is returned by FixedLocator when no coordinates are configured.
var ErrNoFix = errors.New("device: location unavailable")

// PolicyPermissions answers permission requests from a fixed policy, the
// terminal stand-in for the platform prompt.
type PolicyPermissions map[Permission]bool

func (p PolicyPermissions) Request(_ context.Context, perm Permission) (bool, error) {
	return p[perm], nil
}

// FixedLocator reports a configured position.
type FixedLocator struct {
	Fix   Fix
	Known bool
}

// NewFixedLocator returns a locator that always reports fix.
func NewFixedLocator(fix Fix) FixedLocator {
	return FixedLocator{Fix: fix, Known: true}
}

// ParseFix reads "lat,lon".
func ParseFix(value string) (Fix, error) {
	parts := strings.Split(strings.TrimSpace(value), ",")
	if len(parts) != 2 {
		return Fix{}, fmt.Errorf("device: position must be \"lat,lon\", got %q", value)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Fix{}, fmt.Errorf("device: latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Fix{}, fmt.Errorf("device: longitude: %w", err)
	}
	return Fix{Latitude: lat, Longitude: lon}, nil
}

func (l FixedLocator) CurrentPosition(ctx context.Context) (Fix, error) {
	if err := ctx.Err(); err != nil {
		return Fix{}, err
	}
	if !l.Known {
		return Fix{}, ErrNoFix
	}
	return l.Fix, nil
}

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".heic": {},
	".webp": {},
}

// DirectoryCamera "captures" the most recently modified image in Dir, which
// is where a phone sync or screenshot tool drops files. An empty directory
// counts as a cancelled capture.
type DirectoryCamera struct {
	Dir string
}

func (c DirectoryCamera) Capture(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if strings.TrimSpace(c.Dir) == "" {
		return "", false, fmt.Errorf("device: capture directory is not configured")
	}
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("device: read capture dir: %w", err)
	}
	var (
		newest   string
		newestAt time.Time
	)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestAt) {
			newest = entry.Name()
			newestAt = info.ModTime()
		}
	}
	if newest == "" {
		return "", false, nil
	}
	abs, err := filepath.Abs(filepath.Join(c.Dir, newest))
	if err != nil {
		return "", false, fmt.Errorf("device: resolve capture: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), true, nil
}
