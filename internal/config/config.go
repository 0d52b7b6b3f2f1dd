// internal/config/config.go
//
// This package handles configuration and the .obras directory structure.
// Every directory the client runs from gets a .obras/ folder holding the
// config file, the journey log and the capture drop folder.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ObrasDir is the name of the directory we create in each project
	ObrasDir = ".obras"

	defaultBaseURL         = "http://127.0.0.1:8787/api"
	defaultTimeout         = 15 * time.Second
	defaultWorkPhoto       = "https://via.placeholder.com/150"
	defaultInspectionPhoto = "https://via.placeholder.com/150/0000FF/FFFFFF?text=Fiscalizacao"
	defaultCaptureDir      = ObrasDir + "/captures"
	defaultStubHost        = "127.0.0.1"
	defaultStubPort        = 8787
	envAPIURL              = "OBRAS_API_URL"
	envAPITimeout          = "OBRAS_API_TIMEOUT"
	envGPS                 = "OBRAS_GPS"
	envStubHost            = "OBRAS_STUB_HOST"
	envStubPort            = "OBRAS_STUB_PORT"
)

const defaultProjectConfigYAML = `# obras client configuration
version: 1

# Remote service. OBRAS_API_URL and OBRAS_API_TIMEOUT override these.
api:
  base_url: http://127.0.0.1:8787/api
  timeout: 15s

# Sent as "foto" when a record has no photo.
placeholders:
  work_photo: https://via.placeholder.com/150
  inspection_photo: https://via.placeholder.com/150/0000FF/FFFFFF?text=Fiscalizacao

device:
  # Answers given when the client asks for a permission.
  permissions:
    location: true
    camera: true
    gallery: true
  # Fixed GPS position. OBRAS_GPS="lat,lon" overrides it.
  # location:
  #   latitude: -23.5505
  #   longitude: -46.6333
  # Photos are picked from the newest image in this folder.
  capture_dir: .obras/captures

# Development server (obras-stub). OBRAS_STUB_HOST and OBRAS_STUB_PORT
# override host and port.
stub:
  host: 127.0.0.1
  port: 8787
  seed: true
`

// APIConfig describes the remote service.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// PlaceholderConfig holds the photo URLs sent when a record has none.
type PlaceholderConfig struct {
	WorkPhoto       string `yaml:"work_photo"`
	InspectionPhoto string `yaml:"inspection_photo"`
}

// PermissionConfig is the answer given to each permission request.
type PermissionConfig struct {
	Location bool `yaml:"location"`
	Camera   bool `yaml:"camera"`
	Gallery  bool `yaml:"gallery"`
}

// LocationConfig is a fixed GPS position.
type LocationConfig struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// DeviceConfig configures the capability providers.
type DeviceConfig struct {
	Permissions PermissionConfig `yaml:"permissions"`
	Location    *LocationConfig  `yaml:"location,omitempty"`
	CaptureDir  string           `yaml:"capture_dir"`
}

// StubConfig configures the development server.
type StubConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Seed *bool  `yaml:"seed,omitempty"`
}

// ProjectConfig models .obras/config.yaml.
type ProjectConfig struct {
	Version      int               `yaml:"version"`
	API          APIConfig         `yaml:"api"`
	Placeholders PlaceholderConfig `yaml:"placeholders"`
	Device       DeviceConfig      `yaml:"device"`
	Stub         StubConfig        `yaml:"stub"`
}

// Config holds the runtime configuration.
type Config struct {
	// ProjectDir is the directory the client was started from
	ProjectDir string

	// ObrasProjectDir is ProjectDir/.obras
	ObrasProjectDir string

	Project ProjectConfig

	lookupEnv func(string) (string, bool)
}

// InitObrasDir creates the .obras directory structure in the given project
// directory and writes a commented default config.yaml if none exists.
//
// Structure created:
// .obras/
// ├── config.yaml
// ├── logs/      <- journey.log
// └── captures/  <- drop photos here to attach them
func InitObrasDir(projectDir string) error {
	obrasDir := filepath.Join(projectDir, ObrasDir)
	dirs := []string{
		filepath.Join(obrasDir, "logs"),
		filepath.Join(obrasDir, "captures"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	return ensureProjectConfig(filepath.Join(obrasDir, "config.yaml"))
}

// NewConfig loads .obras/config.yaml (defaults when absent) and applies
// environment overrides.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:      projectDir,
		ObrasProjectDir: filepath.Join(projectDir, ObrasDir),
		Project:         defaultProjectConfig(),
		lookupEnv:       os.LookupEnv,
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.ObrasProjectDir, "logs")
}

// JourneyLogPath is the logbook file.
func (c *Config) JourneyLogPath() string {
	return filepath.Join(c.LogsDir(), "journey.log")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.ObrasProjectDir, "config.yaml")
}

// BaseURL returns the remote service root.
func (c *Config) BaseURL() string {
	return c.Project.API.BaseURL
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return c.Project.API.Timeout
}

// WorkPlaceholder returns the photo sent for works without one.
func (c *Config) WorkPlaceholder() string {
	return c.Project.Placeholders.WorkPhoto
}

// InspectionPlaceholder returns the photo sent for inspections without one.
func (c *Config) InspectionPlaceholder() string {
	return c.Project.Placeholders.InspectionPhoto
}

// CaptureDir returns the absolute capture folder.
func (c *Config) CaptureDir() string {
	return c.Project.Device.CaptureDir
}

// SeedStub reports whether the development server starts with sample data.
func (c *Config) SeedStub() bool {
	return c.Project.Stub.Seed == nil || *c.Project.Stub.Seed
}

// SetBaseURL updates the remote service root and persists it back to
// .obras/config.yaml.
func (c *Config) SetBaseURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if err := validateBaseURL(raw); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Project.API.BaseURL = raw
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.Project.normalize(c.ProjectDir)
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func (c *Config) applyEnvOverrides() error {
	lookup := c.lookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if value, ok := lookup(envAPIURL); ok && strings.TrimSpace(value) != "" {
		c.Project.API.BaseURL = strings.TrimRight(strings.TrimSpace(value), "/")
	}
	if value, ok := lookup(envAPITimeout); ok && strings.TrimSpace(value) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: %s: %w", envAPITimeout, err)
		}
		c.Project.API.Timeout = d
	}
	if value, ok := lookup(envGPS); ok && strings.TrimSpace(value) != "" {
		loc, err := parseLatLon(value)
		if err != nil {
			return fmt.Errorf("config: %s: %w", envGPS, err)
		}
		c.Project.Device.Location = &loc
	}
	if value, ok := lookup(envStubHost); ok && strings.TrimSpace(value) != "" {
		c.Project.Stub.Host = strings.TrimSpace(value)
	}
	if value, ok := lookup(envStubPort); ok && strings.TrimSpace(value) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: %s: %w", envStubPort, err)
		}
		c.Project.Stub.Port = port
	}
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		API: APIConfig{
			BaseURL: defaultBaseURL,
			Timeout: defaultTimeout,
		},
		Placeholders: PlaceholderConfig{
			WorkPhoto:       defaultWorkPhoto,
			InspectionPhoto: defaultInspectionPhoto,
		},
		Device: DeviceConfig{
			Permissions: PermissionConfig{Location: true, Camera: true, Gallery: true},
			CaptureDir:  defaultCaptureDir,
		},
		Stub: StubConfig{
			Host: defaultStubHost,
			Port: defaultStubPort,
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.API.Timeout <= 0 {
		pc.API.Timeout = defaultTimeout
	}
	if strings.TrimSpace(pc.Placeholders.WorkPhoto) == "" {
		pc.Placeholders.WorkPhoto = defaultWorkPhoto
	}
	if strings.TrimSpace(pc.Placeholders.InspectionPhoto) == "" {
		pc.Placeholders.InspectionPhoto = defaultInspectionPhoto
	}
	if strings.TrimSpace(pc.Device.CaptureDir) == "" {
		pc.Device.CaptureDir = defaultCaptureDir
	}
	if strings.TrimSpace(pc.Stub.Host) == "" {
		pc.Stub.Host = defaultStubHost
	}
	if pc.Stub.Port == 0 {
		pc.Stub.Port = defaultStubPort
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.API.BaseURL = strings.TrimRight(strings.TrimSpace(pc.API.BaseURL), "/")
	pc.Placeholders.WorkPhoto = strings.TrimSpace(pc.Placeholders.WorkPhoto)
	pc.Placeholders.InspectionPhoto = strings.TrimSpace(pc.Placeholders.InspectionPhoto)
	pc.Device.CaptureDir = resolvePath(base, pc.Device.CaptureDir)
	pc.Stub.Host = strings.TrimSpace(pc.Stub.Host)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if err := validateBaseURL(pc.API.BaseURL); err != nil {
		return err
	}
	if pc.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if loc := pc.Device.Location; loc != nil {
		if math.IsNaN(loc.Latitude) || loc.Latitude < -90 || loc.Latitude > 90 {
			return fmt.Errorf("device.location.latitude must be between -90 and 90")
		}
		if math.IsNaN(loc.Longitude) || loc.Longitude < -180 || loc.Longitude > 180 {
			return fmt.Errorf("device.location.longitude must be between -180 and 180")
		}
	}
	if pc.Stub.Port < 1 || pc.Stub.Port > 65535 {
		return fmt.Errorf("stub.port must be between 1 and 65535")
	}
	return nil
}

func validateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("api.base_url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url must be an http or https URL")
	}
	if u.Host == "" {
		return fmt.Errorf("api.base_url has no host")
	}
	return nil
}

func parseLatLon(value string) (LocationConfig, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return LocationConfig{}, fmt.Errorf("expected \"lat,lon\", got %q", value)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return LocationConfig{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return LocationConfig{}, fmt.Errorf("longitude: %w", err)
	}
	return LocationConfig{Latitude: lat, Longitude: lon}, nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize(c.ProjectDir)
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.ObrasProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure obras dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
