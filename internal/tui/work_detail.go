package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/sistema-obras/internal/domain"
	"github.com/kingrea/sistema-obras/internal/gateway"
	"github.com/kingrea/sistema-obras/internal/lifecycle"
)

type workDetailLoadedMsg struct {
	screen ScreenID
	ticket lifecycle.Ticket
	detail lifecycle.WorkDetail
	err    error
}

func (m workDetailLoadedMsg) target() ScreenID { return m.screen }

type deletedMsg struct {
	screen ScreenID
	record lifecycle.Target
	err    error
}

func (m deletedMsg) target() ScreenID { return m.screen }

type reportSentMsg struct {
	screen    ScreenID
	recipient string
	err       error
}

func (m reportSentMsg) target() ScreenID { return m.screen }

// reportDialog collects the recipient of the work report e-mail.
type reportDialog struct {
	input   textinput.Model
	sending bool
}

func newReportDialog() *reportDialog {
	in := textinput.New()
	in.Placeholder = "name@example.com"
	in.Prompt = "E-mail: "
	in.CharLimit = 254
	in.Cursor.SetMode(cursor.CursorStatic)
	in.Focus()
	return &reportDialog{input: in}
}

// workDetail shows one work and its inspections.
type workDetail struct {
	baseScreen
	workID    string
	detail    lifecycle.Resource[lifecycle.WorkDetail]
	selection int
	deletion  lifecycle.Deletion
	dialog    *reportDialog
}

func newWorkDetail(sess *session, workID, name string) *workDetail {
	title := strings.TrimSpace(name)
	if title == "" {
		title = "Work"
	}
	return &workDetail{
		baseScreen: newBaseScreen(sess, title),
		workID:     workID,
	}
}

func (s *workDetail) Focus() tea.Cmd {
	return s.fetch()
}

func (s *workDetail) fetch() tea.Cmd {
	ticket := s.detail.Begin()
	id, sess, workID := s.id, s.sess, s.workID
	return func() tea.Msg {
		detail, err := lifecycle.LoadWorkDetail(sess.ctx(), sess.gateway, workID)
		return workDetailLoadedMsg{screen: id, ticket: ticket, detail: detail, err: err}
	}
}

func (s *workDetail) Capturing() bool {
	return s.dialog != nil || s.deletion.Phase() != lifecycle.PhaseIdle
}

func (s *workDetail) Keys() []string {
	return []string{
		"↑/↓    select inspection",
		"enter  open inspection",
		"a      add inspection",
		"e      edit work",
		"d      delete work",
		"m      e-mail report",
		"c      copy map link",
		"r      refresh",
		"esc    back",
	}
}

func (s *workDetail) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case workDetailLoadedMsg:
		if !s.detail.Settle(msg.ticket, msg.detail, msg.err) {
			return nil
		}
		if msg.err != nil {
			s.sess.logbook.Warn("work %s: %v", s.workID, msg.err)
			s.notice = gateway.UserMessage(msg.err, "Could not load the work.")
			return nil
		}
		s.title = msg.detail.Work.Name
		if s.selection >= len(msg.detail.Inspections) {
			s.selection = max(0, len(msg.detail.Inspections)-1)
		}
		return nil

	case deletedMsg:
		s.deletion = s.deletion.Finish()
		if msg.err != nil {
			s.sess.logbook.Error("delete work %s: %v", msg.record.ID, msg.err)
			s.notice = gateway.UserMessage(msg.err, "Could not delete the work.")
			return nil
		}
		s.sess.logbook.Info("deleted work %s", msg.record.ID)
		return pop("Work deleted.")

	case reportSentMsg:
		if s.dialog == nil {
			return nil
		}
		s.dialog.sending = false
		if msg.err != nil {
			s.sess.logbook.Error("report for work %s: %v", s.workID, msg.err)
			s.notice = gateway.UserMessage(msg.err, "Could not send the report.")
			return nil
		}
		s.sess.logbook.Info("report for work %s sent to %s", s.workID, msg.recipient)
		s.dialog = nil
		s.notice = fmt.Sprintf("Report sent to %s.", msg.recipient)
		return nil

	case noticeMsg:
		s.notice = msg.text
		return nil

	case tea.KeyMsg:
		switch {
		case s.dialog != nil:
			return s.updateDialog(msg)
		case s.deletion.Phase() != lifecycle.PhaseIdle:
			return s.updateDeletion(msg)
		}
		return s.handleKey(msg.String())
	}
	return nil
}

func (s *workDetail) handleKey(key string) tea.Cmd {
	if key == "r" {
		s.notice = ""
		return s.fetch()
	}
	detail, ok := s.detail.Value()
	if !ok {
		return nil
	}
	switch key {
	case "up", "k":
		if s.selection > 0 {
			s.selection--
		}
	case "down", "j":
		if s.selection < len(detail.Inspections)-1 {
			s.selection++
		}
	case "enter":
		if len(detail.Inspections) == 0 {
			return nil
		}
		in := detail.Inspections[s.selection]
		return push(newInspectionDetail(s.sess, in.ID))
	case "a":
		return push(newInspectionForm(s.sess, s.workID, ""))
	case "e":
		return push(newWorkForm(s.sess, s.workID))
	case "d":
		s.deletion = s.deletion.Request(lifecycle.Target{
			Kind:  gateway.KindWork,
			ID:    s.workID,
			Label: detail.Work.Name,
		})
	case "m":
		s.dialog = newReportDialog()
		s.notice = ""
	case "c":
		return copyMapLink(s.sess, s.id, detail.Work.Location)
	}
	return nil
}

func (s *workDetail) updateDeletion(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		next, ok := s.deletion.Confirm()
		if !ok {
			return nil
		}
		s.deletion = next
		return runDeletion(s.sess, s.id, next)
	case "n", "N", "esc":
		s.deletion = s.deletion.Cancel()
	}
	return nil
}

func (s *workDetail) updateDialog(msg tea.KeyMsg) tea.Cmd {
	if s.dialog.sending {
		return nil
	}
	switch msg.String() {
	case "esc":
		s.dialog = nil
		return nil
	case "enter":
		recipient, err := lifecycle.ValidateRecipient(s.dialog.input.Value())
		if err != nil {
			s.notice = err.Error()
			return nil
		}
		s.dialog.sending = true
		s.notice = ""
		id, sess, workID := s.id, s.sess, s.workID
		return func() tea.Msg {
			err := lifecycle.SendReport(sess.ctx(), sess.gateway, workID, recipient)
			return reportSentMsg{screen: id, recipient: recipient, err: err}
		}
	}
	var cmd tea.Cmd
	s.dialog.input, cmd = s.dialog.input.Update(msg)
	return cmd
}

func (s *workDetail) View(width, height int) string {
	if text, ok := loadingView(&s.detail, "the work", "r"); ok {
		return text
	}
	detail, _ := s.detail.Value()
	w := detail.Work
	sections := []string{
		titleStyle.Render(w.Name),
		"",
		field("Responsible", w.Responsible),
		field("Status", w.Status),
		field("Start", w.StartDate.Date()),
		field("End", w.EndDate.Date()),
		field("Location", locationText(w.Location)),
		field("Map", geoText(w.Location, w.Name)),
		field("Photo", w.Photo),
		field("Description", w.Description),
		"",
		titleStyle.Render(fmt.Sprintf("Inspections (%d)", len(detail.Inspections))),
	}
	if len(detail.Inspections) == 0 {
		sections = append(sections, hintStyle.Render("No inspections yet. Press a to add one."))
	}
	for i, in := range detail.Inspections {
		sections = append(sections, renderInspectionRow(in, i == s.selection, width))
	}
	switch {
	case s.deletion.Phase() == lifecycle.PhaseConfirming:
		sections = append(sections, "", promptStyle.Render(s.deletion.Target().Prompt()+"  [y/n]"))
	case s.deletion.Phase() == lifecycle.PhaseExecuting:
		sections = append(sections, "", hintStyle.Render("Deleting..."))
	case s.dialog != nil:
		body := s.dialog.input.View()
		if s.dialog.sending {
			body += "\n" + hintStyle.Render("Sending...")
		} else {
			body += "\n" + hintStyle.Render("enter send · esc close")
		}
		sections = append(sections, "", dialogStyle.Render("Send work report\n"+body))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderInspectionRow(in domain.Inspection, selected bool, width int) string {
	marker := "  "
	if selected {
		marker = "> "
	}
	row := fmt.Sprintf("%s%s  %s  %s", marker, in.Date.Date(), inspectionStatusStyle(in.Status).Render(in.Status.String()), in.Remarks)
	if width > 0 && lipgloss.Width(row) > width {
		row = lipgloss.NewStyle().MaxWidth(width).Render(row)
	}
	if selected {
		return selectedStyle.Render(row)
	}
	return row
}

// runDeletion makes the single delete call of a confirmed deletion.
func runDeletion(sess *session, id ScreenID, d lifecycle.Deletion) tea.Cmd {
	return func() tea.Msg {
		err := lifecycle.Delete(sess.ctx(), sess.gateway, d)
		return deletedMsg{screen: id, record: d.Target(), err: err}
	}
}

// copyMapLink puts the maps URL of loc on the clipboard.
func copyMapLink(sess *session, id ScreenID, loc *domain.Location) tea.Cmd {
	return func() tea.Msg {
		if loc == nil {
			return noticeMsg{screen: id, text: "This record has no location."}
		}
		link := loc.MapURL()
		if err := sess.clipboard(link); err != nil {
			sess.logbook.Warn("clipboard: %v", err)
			return noticeMsg{screen: id, text: "Map link: " + link}
		}
		sess.logbook.Info("copied map link %s", link)
		return noticeMsg{screen: id, text: "Map link copied to the clipboard."}
	}
}
