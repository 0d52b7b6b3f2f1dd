// internal/tui/screen.go
//
// Defines the Screen interface that every view on the navigation stack
// implements. A screen is shown by pushing it; popping reveals the screen
// underneath and gives it a fresh focus event.

package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/sistema-obras/internal/device"
	"github.com/kingrea/sistema-obras/internal/gateway"
	"github.com/kingrea/sistema-obras/internal/logbook"
)

// ScreenID identifies one screen instance. Async results carry it so a
// response for a screen that is no longer on the stack is dropped.
type ScreenID uint64

// Screen defines the interface that all stacked views must implement
type Screen interface {
	// ID returns the instance identity assigned at construction
	ID() ScreenID

	// Title is the breadcrumb label
	Title() string

	// Focus runs every time the screen becomes visible: on push and when
	// the screen above it is popped
	Focus() tea.Cmd

	// Update handles keys and the screen's own async results
	Update(msg tea.Msg) tea.Cmd

	// View renders the screen body for the given width
	View(width, height int) string

	// Capturing reports whether the screen owns the keyboard, so the App
	// must not treat esc or q as navigation
	Capturing() bool

	// Keys lists the key hints shown next to the screen
	Keys() []string

	Notice() string
	SetNotice(string)
}

// screenMsg is an async result addressed to one screen.
type screenMsg interface {
	target() ScreenID
}

type pushMsg struct {
	screen Screen
}

type popMsg struct {
	notice string
}

// noticeMsg sets a screen's notice from inside a command.
type noticeMsg struct {
	screen ScreenID
	text   string
}

func (m noticeMsg) target() ScreenID { return m.screen }

func push(s Screen) tea.Cmd {
	return func() tea.Msg { return pushMsg{screen: s} }
}

func pop(notice string) tea.Cmd {
	return func() tea.Msg { return popMsg{notice: notice} }
}

// session is what every screen shares: the remote store, the device
// capabilities and the journey log.
type session struct {
	gateway     gateway.Gateway
	permissions device.Permissions
	locator     device.Locator
	camera      device.Camera
	clipboard   func(string) error
	now         func() time.Time
	logbook     *logbook.Logbook

	workPhoto       string
	inspectionPhoto string

	lastID ScreenID
}

func (s *session) nextID() ScreenID {
	s.lastID++
	return s.lastID
}

// ctx is the context for gateway and device calls. The gateway client
// carries its own timeout and navigation never cancels a request.
func (s *session) ctx() context.Context {
	return context.Background()
}

// baseScreen provides common functionality for all screens
type baseScreen struct {
	sess   *session
	id     ScreenID
	title  string
	notice string
}

func newBaseScreen(sess *session, title string) baseScreen {
	return baseScreen{sess: sess, id: sess.nextID(), title: title}
}

func (b *baseScreen) ID() ScreenID          { return b.id }
func (b *baseScreen) Title() string         { return b.title }
func (b *baseScreen) Notice() string        { return b.notice }
func (b *baseScreen) SetNotice(text string) { b.notice = text }
