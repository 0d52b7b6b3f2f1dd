package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/sistema-obras/internal/domain"
	"github.com/kingrea/sistema-obras/internal/gateway"
	"github.com/kingrea/sistema-obras/internal/lifecycle"
)

type inspectionLoadedMsg struct {
	screen     ScreenID
	ticket     lifecycle.Ticket
	inspection domain.Inspection
	err        error
}

func (m inspectionLoadedMsg) target() ScreenID { return m.screen }

// inspectionDetail shows one inspection and the work it belongs to.
type inspectionDetail struct {
	baseScreen
	inspectionID string
	inspection   lifecycle.Resource[domain.Inspection]
	deletion     lifecycle.Deletion
}

func newInspectionDetail(sess *session, inspectionID string) *inspectionDetail {
	return &inspectionDetail{
		baseScreen:   newBaseScreen(sess, "Inspection"),
		inspectionID: inspectionID,
	}
}

func (s *inspectionDetail) Focus() tea.Cmd {
	return s.fetch()
}

func (s *inspectionDetail) fetch() tea.Cmd {
	ticket := s.inspection.Begin()
	id, sess, inspectionID := s.id, s.sess, s.inspectionID
	return func() tea.Msg {
		in, err := lifecycle.LoadInspection(sess.ctx(), sess.gateway, inspectionID)
		return inspectionLoadedMsg{screen: id, ticket: ticket, inspection: in, err: err}
	}
}

func (s *inspectionDetail) Capturing() bool {
	return s.deletion.Phase() != lifecycle.PhaseIdle
}

func (s *inspectionDetail) Keys() []string {
	return []string{"e      edit", "d      delete", "c      copy map link", "r      refresh", "esc    back"}
}

func (s *inspectionDetail) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case inspectionLoadedMsg:
		if !s.inspection.Settle(msg.ticket, msg.inspection, msg.err) {
			return nil
		}
		if msg.err != nil {
			s.sess.logbook.Warn("inspection %s: %v", s.inspectionID, msg.err)
			s.notice = gateway.UserMessage(msg.err, "Could not load the inspection.")
		}
		return nil

	case deletedMsg:
		s.deletion = s.deletion.Finish()
		if msg.err != nil {
			s.sess.logbook.Error("delete inspection %s: %v", msg.record.ID, msg.err)
			s.notice = gateway.UserMessage(msg.err, "Could not delete the inspection.")
			return nil
		}
		s.sess.logbook.Info("deleted inspection %s", msg.record.ID)
		return pop("Inspection deleted.")

	case noticeMsg:
		s.notice = msg.text
		return nil

	case tea.KeyMsg:
		if s.deletion.Phase() != lifecycle.PhaseIdle {
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
		return s.handleKey(msg.String())
	}
	return nil
}

func (s *inspectionDetail) handleKey(key string) tea.Cmd {
	if key == "r" {
		s.notice = ""
		return s.fetch()
	}
	in, ok := s.inspection.Value()
	if !ok {
		return nil
	}
	switch key {
	case "e":
		return push(newInspectionForm(s.sess, in.Work.ID, in.ID))
	case "d":
		s.deletion = s.deletion.Request(lifecycle.Target{
			Kind:  gateway.KindInspection,
			ID:    in.ID,
			Label: in.Date.Date(),
		})
	case "c":
		return copyMapLink(s.sess, s.id, in.Location)
	}
	return nil
}

func (s *inspectionDetail) View(width, height int) string {
	if text, ok := loadingView(&s.inspection, "the inspection", "r"); ok {
		return text
	}
	in, _ := s.inspection.Value()
	sections := []string{
		titleStyle.Render("Inspection " + in.Date.Date()),
		"",
		field("Work", in.Work.Label()),
		field("Date", in.Date.Date()),
		field("Inspector", in.Inspector),
		labelStyle.Render("Status") + inspectionStatusStyle(in.Status).Render(in.Status.String()),
		field("Location", locationText(in.Location)),
		field("Map", geoText(in.Location, in.Work.Label())),
		field("Photo", in.Photo),
		field("Remarks", in.Remarks),
	}
	switch s.deletion.Phase() {
	case lifecycle.PhaseConfirming:
		sections = append(sections, "", promptStyle.Render(s.deletion.Target().Prompt()+"  [y/n]"))
	case lifecycle.PhaseExecuting:
		sections = append(sections, "", hintStyle.Render("Deleting..."))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
