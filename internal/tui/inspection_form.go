package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/sistema-obras/internal/domain"
	"github.com/kingrea/sistema-obras/internal/draft"
	"github.com/kingrea/sistema-obras/internal/gateway"
	"github.com/kingrea/sistema-obras/internal/lifecycle"
)

type inspectionSeedMsg struct {
	screen     ScreenID
	ticket     lifecycle.Ticket
	inspection domain.Inspection
	err        error
}

func (m inspectionSeedMsg) target() ScreenID { return m.screen }

type inspectionSavedMsg struct {
	screen     ScreenID
	created    bool
	inspection domain.Inspection
	err        error
}

func (m inspectionSavedMsg) target() ScreenID { return m.screen }

// inspectionForm creates or edits an inspection of workID. The work comes
// from the screen that opened the form and cannot be changed here.
type inspectionForm struct {
	baseScreen
	workID       string
	inspectionID string
	seed         lifecycle.Resource[domain.Inspection]
	focused      bool
	draft        draft.Inspection
	form         form
	submitting   bool
	acquiring    bool
}

func newInspectionForm(sess *session, workID, inspectionID string) *inspectionForm {
	s := &inspectionForm{
		baseScreen:   newBaseScreen(sess, "New inspection"),
		workID:       workID,
		inspectionID: inspectionID,
		form:         newForm(draft.InspectionFields, draft.FieldStatus),
	}
	if inspectionID != "" {
		s.title = "Edit inspection"
		return s
	}
	s.draft = draft.NewInspection(workID, sess.now())
	s.seed.Begin()
	s.seed.Settle(s.seed.Ticket(), domain.Inspection{}, nil)
	s.form.load(s.draft.Value)
	return s
}

func (s *inspectionForm) Focus() tea.Cmd {
	if s.focused {
		return nil
	}
	s.focused = true
	if s.inspectionID == "" {
		return nil
	}
	return s.fetchSeed()
}

func (s *inspectionForm) fetchSeed() tea.Cmd {
	ticket := s.seed.Begin()
	id, sess, inspectionID := s.id, s.sess, s.inspectionID
	return func() tea.Msg {
		in, err := lifecycle.LoadInspection(sess.ctx(), sess.gateway, inspectionID)
		return inspectionSeedMsg{screen: id, ticket: ticket, inspection: in, err: err}
	}
}

func (s *inspectionForm) Capturing() bool { return true }

func (s *inspectionForm) Keys() []string {
	return append([]string{"←/→    change status"}, formKeys...)
}

func (s *inspectionForm) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case inspectionSeedMsg:
		if !s.seed.Settle(msg.ticket, msg.inspection, msg.err) {
			return nil
		}
		if msg.err != nil {
			s.sess.logbook.Warn("inspection form seed %s: %v", s.inspectionID, msg.err)
			s.notice = gateway.UserMessage(msg.err, "Could not load the inspection.")
			return nil
		}
		if !msg.inspection.Status.IsValid() {
			s.sess.logbook.Warn("inspection %s: unknown status %q, editing as %s",
				msg.inspection.ID, msg.inspection.Status, msg.inspection.Status.Normalize())
		}
		s.draft = draft.SeedInspection(s.workID, msg.inspection)
		s.form.load(s.draft.Value)
		return nil

	case capabilityMsg:
		s.acquiring = false
		logCapability(s.sess, msg.result)
		s.draft = s.draft.Apply(msg.result)
		s.form.load(s.draft.Value)
		s.notice = msg.result.Notice()
		return nil

	case inspectionSavedMsg:
		s.submitting = false
		if msg.err != nil {
			s.sess.logbook.Error("save inspection: %v", msg.err)
			s.notice = submitNotice(msg.err, "Could not save the inspection.")
			return nil
		}
		if msg.created {
			s.sess.logbook.Info("created inspection %s for work %s", msg.inspection.ID, s.workID)
			return pop("Inspection created.")
		}
		s.sess.logbook.Info("updated inspection %s", msg.inspection.ID)
		return pop("Inspection saved.")

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return nil
}

func (s *inspectionForm) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		return pop("")
	case "ctrl+r":
		if s.seed.State() == lifecycle.StateError {
			s.notice = ""
			return s.fetchSeed()
		}
		return nil
	}
	if s.seed.State() != lifecycle.StateReady {
		return nil
	}
	switch msg.String() {
	case "tab", "down", "enter":
		s.form.move(1)
		return nil
	case "shift+tab", "up":
		s.form.move(-1)
		return nil
	case "ctrl+g":
		if s.acquiring {
			return nil
		}
		s.acquiring = true
		return acquireLocation(s.sess, s.id)
	case "ctrl+p":
		if s.acquiring {
			return nil
		}
		s.acquiring = true
		return acquirePhoto(s.sess, s.id)
	case "ctrl+s":
		return s.submit()
	}
	if s.form.focused().picker {
		return s.pickStatus(msg.String())
	}
	field, value, cmd := s.form.edit(msg)
	if next, err := s.draft.Set(field, value); err == nil {
		s.draft = next
	}
	return cmd
}

func (s *inspectionForm) pickStatus(key string) tea.Cmd {
	status := s.draft.Status
	switch key {
	case "right", "l", " ":
		status = status.Next()
	case "left", "h":
		status = status.Prev()
	default:
		return nil
	}
	if next, err := s.draft.Set(draft.FieldStatus, status.String()); err == nil {
		s.draft = next
	}
	return nil
}

func (s *inspectionForm) submit() tea.Cmd {
	if s.submitting {
		s.sess.logbook.Info("inspection form: save already in progress")
		return nil
	}
	if err := s.draft.Validate(); err != nil {
		s.notice = submitNotice(err, "Check the form.")
		return nil
	}
	s.submitting = true
	s.notice = ""
	id, sess, d := s.id, s.sess, s.draft
	return func() tea.Msg {
		in, err := lifecycle.SubmitInspection(sess.ctx(), sess.gateway, d, sess.inspectionPhoto)
		return inspectionSavedMsg{screen: id, created: d.IsNew(), inspection: in, err: err}
	}
}

func (s *inspectionForm) View(width, height int) string {
	if text, ok := loadingView(&s.seed, "the inspection", "ctrl+r"); ok {
		return text
	}
	sections := []string{titleStyle.Render(s.title), "", s.form.view(width, s.draft.Value)}
	if s.submitting {
		sections = append(sections, "", hintStyle.Render("Saving..."))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
