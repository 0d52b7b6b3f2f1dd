package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/sistema-obras/internal/domain"
	"github.com/kingrea/sistema-obras/internal/gateway"
	"github.com/kingrea/sistema-obras/internal/lifecycle"
)

// workItem implements list.Item for the home list
type workItem struct {
	work domain.Work
}

func (i workItem) Title() string { return i.work.Name }

func (i workItem) Description() string {
	parts := []string{}
	if r := strings.TrimSpace(i.work.Responsible); r != "" {
		parts = append(parts, r)
	}
	if s := strings.TrimSpace(i.work.Status); s != "" {
		parts = append(parts, s)
	}
	if d := i.work.StartDate.Date(); d != "" {
		parts = append(parts, "since "+d)
	}
	return strings.Join(parts, " · ")
}

func (i workItem) FilterValue() string {
	return i.work.Name + " " + i.work.Responsible + " " + i.work.Status
}

type worksLoadedMsg struct {
	screen ScreenID
	ticket lifecycle.Ticket
	works  []domain.Work
	err    error
}

func (m worksLoadedMsg) target() ScreenID { return m.screen }

// worksList is the home screen.
type worksList struct {
	baseScreen
	works lifecycle.Resource[[]domain.Work]
	list  list.Model
}

func newWorksList(sess *session) *worksList {
	l := list.New(nil, list.NewDefaultDelegate(), 80, 20)
	l.Title = "Works"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	return &worksList{
		baseScreen: newBaseScreen(sess, "Works"),
		list:       l,
	}
}

func (s *worksList) Focus() tea.Cmd {
	return s.fetch()
}

func (s *worksList) fetch() tea.Cmd {
	ticket := s.works.Begin()
	id, sess := s.id, s.sess
	return func() tea.Msg {
		works, err := lifecycle.LoadWorks(sess.ctx(), sess.gateway, nil)
		return worksLoadedMsg{screen: id, ticket: ticket, works: works, err: err}
	}
}

// Capturing is true only while the filter prompt is open. An applied
// filter still lets esc reach the list, which clears it.
func (s *worksList) Capturing() bool {
	return s.list.FilterState() == list.Filtering
}

func (s *worksList) Keys() []string {
	return []string{"enter  open", "n      new work", "/      filter", "r      refresh", "q      quit"}
}

func (s *worksList) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case worksLoadedMsg:
		if !s.works.Settle(msg.ticket, msg.works, msg.err) {
			return nil
		}
		if msg.err != nil {
			s.sess.logbook.Warn("works list: %v", msg.err)
			s.notice = gateway.UserMessage(msg.err, "Could not load works.")
			return s.list.SetItems(nil)
		}
		s.sess.logbook.Info("works list: loaded %d works", len(msg.works))
		items := make([]list.Item, 0, len(msg.works))
		for _, w := range msg.works {
			items = append(items, workItem{work: w})
		}
		return s.list.SetItems(items)

	case noticeMsg:
		s.notice = msg.text
		return nil

	case tea.KeyMsg:
		if !s.Capturing() {
			switch msg.String() {
			case "n":
				return push(newWorkForm(s.sess, ""))
			case "r":
				s.notice = ""
				return s.fetch()
			case "enter":
				item, ok := s.list.SelectedItem().(workItem)
				if !ok {
					return nil
				}
				return push(newWorkDetail(s.sess, item.work.ID, item.work.Name))
			}
		}
	}
	var cmd tea.Cmd
	s.list, cmd = s.list.Update(msg)
	return cmd
}

func (s *worksList) View(width, height int) string {
	if text, ok := loadingView(&s.works, "works", "r"); ok {
		return text
	}
	if len(s.list.Items()) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Works"),
			"",
			hintStyle.Render("No works registered yet. Press n to add the first one."),
		)
	}
	s.list.SetSize(max(20, width), max(6, height))
	footer := hintStyle.Render(fmt.Sprintf("%d works", len(s.list.Items())))
	return lipgloss.JoinVertical(lipgloss.Left, s.list.View(), footer)
}
