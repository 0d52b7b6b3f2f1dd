package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/sistema-obras/internal/domain"
	"github.com/kingrea/sistema-obras/internal/draft"
	"github.com/kingrea/sistema-obras/internal/gateway"
	"github.com/kingrea/sistema-obras/internal/lifecycle"
)

type workSeedMsg struct {
	screen ScreenID
	ticket lifecycle.Ticket
	work   domain.Work
	err    error
}

func (m workSeedMsg) target() ScreenID { return m.screen }

type workSavedMsg struct {
	screen  ScreenID
	created bool
	work    domain.Work
	err     error
}

func (m workSavedMsg) target() ScreenID { return m.screen }

// workForm creates a work (empty workID) or edits one. The draft is seeded
// once, on the first focus, and never refetched while the screen lives.
type workForm struct {
	baseScreen
	workID     string
	seed       lifecycle.Resource[domain.Work]
	focused    bool
	draft      draft.Work
	form       form
	submitting bool
	acquiring  bool
}

func newWorkForm(sess *session, workID string) *workForm {
	s := &workForm{
		baseScreen: newBaseScreen(sess, "New work"),
		workID:     workID,
		form:       newForm(draft.WorkFields),
	}
	if workID != "" {
		s.title = "Edit work"
		return s
	}
	// A new work has nothing to fetch; its seed is ready from the start.
	s.draft = draft.NewWork(sess.now())
	s.seed.Begin()
	s.seed.Settle(s.seed.Ticket(), domain.Work{}, nil)
	s.form.load(s.draft.Value)
	return s
}

func (s *workForm) Focus() tea.Cmd {
	if s.focused {
		return nil
	}
	s.focused = true
	if s.workID == "" {
		return nil
	}
	return s.fetchSeed()
}

func (s *workForm) fetchSeed() tea.Cmd {
	ticket := s.seed.Begin()
	id, sess, workID := s.id, s.sess, s.workID
	return func() tea.Msg {
		w, err := lifecycle.LoadWork(sess.ctx(), sess.gateway, workID)
		return workSeedMsg{screen: id, ticket: ticket, work: w, err: err}
	}
}

func (s *workForm) Capturing() bool { return true }

func (s *workForm) Keys() []string {
	return append([]string{"status: " + strings.Join(domain.WorkStatuses, ", ")}, formKeys...)
}

func (s *workForm) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case workSeedMsg:
		if !s.seed.Settle(msg.ticket, msg.work, msg.err) {
			return nil
		}
		if msg.err != nil {
			s.sess.logbook.Warn("work form seed %s: %v", s.workID, msg.err)
			s.notice = gateway.UserMessage(msg.err, "Could not load the work.")
			return nil
		}
		s.draft = draft.SeedWork(msg.work)
		s.form.load(s.draft.Value)
		return nil

	case capabilityMsg:
		s.acquiring = false
		logCapability(s.sess, msg.result)
		s.draft = s.draft.Apply(msg.result)
		s.form.load(s.draft.Value)
		s.notice = msg.result.Notice()
		return nil

	case workSavedMsg:
		s.submitting = false
		if msg.err != nil {
			s.sess.logbook.Error("save work: %v", msg.err)
			s.notice = submitNotice(msg.err, "Could not save the work.")
			return nil
		}
		if msg.created {
			s.sess.logbook.Info("created work %s (%s)", msg.work.ID, msg.work.Name)
			return pop("Work created.")
		}
		s.sess.logbook.Info("updated work %s (%s)", msg.work.ID, msg.work.Name)
		return pop("Work saved.")

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return nil
}

func (s *workForm) handleKey(msg tea.KeyMsg) tea.Cmd {
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
	field, value, cmd := s.form.edit(msg)
	if next, err := s.draft.Set(field, value); err == nil {
		s.draft = next
	}
	return cmd
}

// submit ignores repeats while a save is pending. A draft that fails local
// validation never reaches the gateway.
func (s *workForm) submit() tea.Cmd {
	if s.submitting {
		s.sess.logbook.Info("work form: save already in progress")
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
		w, err := lifecycle.SubmitWork(sess.ctx(), sess.gateway, d, sess.workPhoto)
		return workSavedMsg{screen: id, created: d.IsNew(), work: w, err: err}
	}
}

func (s *workForm) View(width, height int) string {
	if text, ok := loadingView(&s.seed, "the work", "ctrl+r"); ok {
		return text
	}
	sections := []string{titleStyle.Render(s.title), "", s.form.view(width, s.draft.Value)}
	if s.submitting {
		sections = append(sections, "", hintStyle.Render("Saving..."))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
