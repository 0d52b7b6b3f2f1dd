// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for the obras client.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The App owns a stack of screens. Pushing or popping raises a focus event
// on the screen that becomes visible, and that is where every screen
// revalidates its remote data.

package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/sistema-obras/internal/config"
	"github.com/kingrea/sistema-obras/internal/device"
	"github.com/kingrea/sistema-obras/internal/gateway"
	"github.com/kingrea/sistema-obras/internal/logbook"
)

const logPanelLines = 8

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithGateway replaces the HTTP client built from the config.
func WithGateway(gw gateway.Gateway) AppOption {
	return func(a *App) {
		if gw != nil {
			a.sess.gateway = gw
		}
	}
}

// WithPermissions overrides the permission policy from the config.
func WithPermissions(p device.Permissions) AppOption {
	return func(a *App) {
		if p != nil {
			a.sess.permissions = p
		}
	}
}

// WithLocator overrides the configured GPS position.
func WithLocator(l device.Locator) AppOption {
	return func(a *App) {
		if l != nil {
			a.sess.locator = l
		}
	}
}

// WithCamera overrides the capture directory camera.
func WithCamera(c device.Camera) AppOption {
	return func(a *App) {
		if c != nil {
			a.sess.camera = c
		}
	}
}

// WithClipboard overrides the system clipboard writer.
func WithClipboard(write func(string) error) AppOption {
	return func(a *App) {
		if write != nil {
			a.sess.clipboard = write
		}
	}
}

// WithClock overrides the clock used for new drafts' dates.
func WithClock(now func() time.Time) AppOption {
	return func(a *App) {
		if now != nil {
			a.sess.now = now
		}
	}
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	config  *config.Config
	logbook *logbook.Logbook
	sess    *session

	stack []Screen

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// NewApp creates a new App instance
func NewApp(projectDir string, opts ...AppOption) (*App, error) {
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, err
	}
	lb, err := logbook.New(cfg.JourneyLogPath())
	if err != nil {
		return nil, err
	}
	lb.Info("Session opened · api: %s", cfg.BaseURL())

	client, err := gateway.NewClient(cfg.BaseURL(),
		gateway.WithTimeout(cfg.Timeout()),
		gateway.WithLogger(lb),
	)
	if err != nil {
		return nil, err
	}

	perms := cfg.Project.Device.Permissions
	locator := device.FixedLocator{}
	if loc := cfg.Project.Device.Location; loc != nil {
		locator = device.NewFixedLocator(device.Fix{Latitude: loc.Latitude, Longitude: loc.Longitude})
	}

	app := &App{
		config:  cfg,
		logbook: lb,
		sess: &session{
			gateway: client,
			permissions: device.PolicyPermissions{
				device.PermissionLocation: perms.Location,
				device.PermissionCamera:   perms.Camera,
				device.PermissionGallery:  perms.Gallery,
			},
			locator:         locator,
			camera:          device.DirectoryCamera{Dir: cfg.CaptureDir()},
			clipboard:       clipboard.WriteAll,
			now:             time.Now,
			logbook:         lb,
			workPhoto:       cfg.WorkPlaceholder(),
			inspectionPhoto: cfg.InspectionPlaceholder(),
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	app.stack = []Screen{newWorksList(app.sess)}
	return app, nil
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

func (a *App) top() Screen {
	return a.stack[len(a.stack)-1]
}

func (a *App) find(id ScreenID) Screen {
	for _, s := range a.stack {
		if s.ID() == id {
			return s
		}
	}
	return nil
}

// Init is called once when the program starts. The home screen gets its
// first focus event here.
func (a *App) Init() tea.Cmd {
	return a.top().Focus()
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case pushMsg:
		a.stack = append(a.stack, msg.screen)
		a.logInfo("Opened %s", msg.screen.Title())
		return a, msg.screen.Focus()

	case popMsg:
		return a, a.popScreen(msg.notice)

	case screenMsg:
		screen := a.find(msg.target())
		if screen == nil {
			a.logWarn("Dropped %T for a closed screen", msg)
			return a, nil
		}
		return a, screen.Update(msg)

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.top().Capturing() {
			switch key {
			case "q":
				if len(a.stack) == 1 {
					return a, tea.Quit
				}
			case "esc":
				if len(a.stack) > 1 {
					return a, a.popScreen("")
				}
			}
		}
	}

	return a, a.top().Update(msg)
}

// popScreen discards the top screen and refocuses the one revealed. The
// root screen is never popped.
func (a *App) popScreen(notice string) tea.Cmd {
	if len(a.stack) <= 1 {
		return nil
	}
	closed := a.top()
	a.stack = a.stack[:len(a.stack)-1]
	revealed := a.top()
	a.logInfo("Closed %s, back to %s", closed.Title(), revealed.Title())
	revealed.SetNotice(notice)
	return revealed.Focus()
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	height := a.height
	if height <= 0 {
		height = 30
	}
	rightWidth := max(32, width/3)
	leftWidth := width - rightWidth - 4
	if leftWidth < 40 {
		leftWidth = width - 4
	}
	if leftWidth < 20 {
		leftWidth = width
		rightWidth = 0
	}
	content := a.top().View(max(20, leftWidth-4), max(6, height-logPanelLines-12))
	return a.renderStatusBoard(content, leftWidth, rightWidth)
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(logPanelLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s (%d/%d)", fileName, len(lines), total))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
	return box
}

func (a *App) renderStatusBoard(mainContent string, leftWidth, rightWidth int) string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render("▣ OBRAS · " + a.config.BaseURL())
	left := lipgloss.JoinVertical(lipgloss.Left,
		a.renderBreadcrumb(),
		"",
		mainContent,
	)
	leftBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(max(20, leftWidth)).
		Render(left)
	var body string
	if rightWidth > 0 {
		rightBox := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1).
			Width(max(20, rightWidth)).
			Render(a.renderKeysPanel())
		body = lipgloss.JoinHorizontal(lipgloss.Top, leftBox, rightBox)
	} else {
		body = leftBox
	}
	sections := []string{header, body}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := noticeStyle.
		MarginTop(1).
		Render(a.top().Notice())
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func (a *App) renderBreadcrumb() string {
	titles := make([]string, 0, len(a.stack))
	for _, s := range a.stack {
		titles = append(titles, s.Title())
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Render(strings.Join(titles, " › "))
}

func (a *App) renderKeysPanel() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render("KEYS")
	lines := append([]string{}, a.top().Keys()...)
	lines = append(lines, "ctrl+c quit")
	return lipgloss.JoinVertical(lipgloss.Left, title, hintStyle.Render(strings.Join(lines, "\n")))
}
