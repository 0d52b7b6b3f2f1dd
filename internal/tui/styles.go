package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/sistema-obras/internal/domain"
	"github.com/kingrea/sistema-obras/internal/lifecycle"
)

var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	labelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999")).Width(14)
	valueStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	noticeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	selectedStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	promptStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#FF6B6B")).Padding(0, 1)
	dialogStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#5B8DEF")).Padding(0, 1)
	statusStyleOK   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	statusStyleBad  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	statusStyleWait = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	statusStyleInfo = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
)

func inspectionStatusStyle(s domain.InspectionStatus) lipgloss.Style {
	switch s {
	case domain.StatusCompliant:
		return statusStyleOK
	case domain.StatusNonCompliant:
		return statusStyleBad
	case domain.StatusPending:
		return statusStyleWait
	default:
		return statusStyleInfo
	}
}

func field(label, value string) string {
	if strings.TrimSpace(value) == "" {
		value = "-"
	}
	return labelStyle.Render(label) + valueStyle.Render(value)
}

func locationText(loc *domain.Location) string {
	if loc == nil {
		return ""
	}
	return loc.String()
}

func geoText(loc *domain.Location, label string) string {
	if loc == nil {
		return ""
	}
	return loc.GeoURI(label)
}

// loadingView renders the non-ready states every fetching screen shares.
// ok is false when the caller should render its value instead.
func loadingView[T any](res *lifecycle.Resource[T], what, retryKey string) (string, bool) {
	switch res.State() {
	case lifecycle.StateLoading:
		return hintStyle.Render(fmt.Sprintf("Loading %s...", what)), true
	case lifecycle.StateError:
		return lipgloss.JoinVertical(lipgloss.Left,
			errorStyle.Render(fmt.Sprintf("Could not load %s.", what)),
			hintStyle.Render(fmt.Sprintf("Press %s to try again.", retryKey)),
		), true
	}
	return "", false
}
