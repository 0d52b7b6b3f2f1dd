package stubapi

import (
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kingrea/sistema-obras/internal/config"
)

const (
	// DefaultPrefix is where the resource routes are mounted when the
	// client's base URL has no path.
	DefaultPrefix = "/api"
	// DefaultMaxBodyBytes limits request payloads to 1 MB.
	DefaultMaxBodyBytes int64 = 1 << 20

	defaultHost    = "127.0.0.1"
	defaultPort    = 8787
	defaultTimeout = 15 * time.Second
	defaultIdle    = 60 * time.Second
)

// Settings captures runtime configuration for the development server.
type Settings struct {
	Host string
	Port int
	// Prefix is the path the routes live under, so a client configured
	// with http://host:port/v1 finds them at /v1/obras.
	Prefix       string
	Seed         bool
	MaxBodyBytes int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// SettingsFromConfig takes host, port and seeding from the stub section of
// the config (environment overrides already applied there) and the route
// prefix from the client's own base URL.
func SettingsFromConfig(cfg *config.Config) Settings {
	settings := Settings{Host: defaultHost, Port: defaultPort, Seed: true}
	if cfg != nil {
		stub := cfg.Project.Stub
		settings.Host = stub.Host
		settings.Port = stub.Port
		settings.Seed = cfg.SeedStub()
		if u, err := url.Parse(cfg.BaseURL()); err == nil {
			settings.Prefix = u.Path
		}
	}
	settings.normalize()
	return settings
}

// normalize fills every unset field. Port 0 is kept: it asks the listener
// for a free port.
func (s *Settings) normalize() {
	s.Host = strings.TrimSpace(s.Host)
	if s.Host == "" {
		s.Host = defaultHost
	}
	if s.Port < 0 || s.Port > 65535 {
		s.Port = defaultPort
	}
	s.Prefix = normalizePrefix(s.Prefix)
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if s.ReadTimeout <= 0 {
		s.ReadTimeout = defaultTimeout
	}
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = defaultTimeout
	}
	if s.IdleTimeout <= 0 {
		s.IdleTimeout = defaultIdle
	}
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return DefaultPrefix
	}
	return "/" + prefix
}

// Address returns the TCP bind address in host:port form.
func (s Settings) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// URL returns the API base URL a client should use.
func (s Settings) URL() string {
	return "http://" + s.Address() + normalizePrefix(s.Prefix)
}
