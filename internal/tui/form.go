package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/sistema-obras/internal/device"
	"github.com/kingrea/sistema-obras/internal/draft"
	"github.com/kingrea/sistema-obras/internal/gateway"
)

var fieldLabels = map[draft.Field]string{
	draft.FieldName:        "Name",
	draft.FieldResponsible: "Responsible",
	draft.FieldStartDate:   "Start date",
	draft.FieldEndDate:     "End date",
	draft.FieldDescription: "Description",
	draft.FieldStatus:      "Status",
	draft.FieldDate:        "Date",
	draft.FieldInspector:   "Inspector",
	draft.FieldRemarks:     "Remarks",
	draft.FieldLatitude:    "Latitude",
	draft.FieldLongitude:   "Longitude",
	draft.FieldPhoto:       "Photo",
}

var fieldPlaceholders = map[draft.Field]string{
	draft.FieldStartDate: "YYYY-MM-DD",
	draft.FieldEndDate:   "YYYY-MM-DD",
	draft.FieldDate:      "YYYY-MM-DD",
	draft.FieldLatitude:  "-23.5505",
	draft.FieldLongitude: "-46.6333",
	draft.FieldPhoto:     "ctrl+p to pick the newest capture",
}

func fieldLabel(f draft.Field) string {
	if label, ok := fieldLabels[f]; ok {
		return label
	}
	return string(f)
}

type formField struct {
	field  draft.Field
	input  textinput.Model
	picker bool
}

// form is the focusable list of inputs behind both editing screens. The
// draft stays the source of truth; inputs only mirror it.
type form struct {
	fields []formField
	focus  int
}

func newForm(fields []draft.Field, pickers ...draft.Field) form {
	f := form{fields: make([]formField, 0, len(fields))}
	for _, name := range fields {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = fieldPlaceholders[name]
		in.Cursor.SetMode(cursor.CursorStatic)
		picker := false
		for _, p := range pickers {
			if p == name {
				picker = true
			}
		}
		f.fields = append(f.fields, formField{field: name, input: in, picker: picker})
	}
	f.setFocus(0)
	return f
}

func (f *form) focused() formField {
	return f.fields[f.focus]
}

func (f *form) setFocus(i int) {
	if len(f.fields) == 0 {
		return
	}
	i = (i + len(f.fields)) % len(f.fields)
	for idx := range f.fields {
		if idx == i && !f.fields[idx].picker {
			f.fields[idx].input.Focus()
		} else {
			f.fields[idx].input.Blur()
		}
	}
	f.focus = i
}

func (f *form) move(delta int) {
	f.setFocus(f.focus + delta)
}

// load copies every field value from the draft into the inputs.
func (f *form) load(value func(draft.Field) string) {
	for idx := range f.fields {
		f.fields[idx].input.SetValue(value(f.fields[idx].field))
	}
}

// edit forwards a key to the focused text input and returns its new value.
func (f *form) edit(msg tea.KeyMsg) (draft.Field, string, tea.Cmd) {
	ff := &f.fields[f.focus]
	var cmd tea.Cmd
	ff.input, cmd = ff.input.Update(msg)
	return ff.field, ff.input.Value(), cmd
}

func (f *form) view(width int, value func(draft.Field) string) string {
	rows := make([]string, 0, len(f.fields))
	inputWidth := max(10, width-16)
	for idx, ff := range f.fields {
		label := labelStyle.Render(fieldLabel(ff.field))
		if idx == f.focus {
			label = selectedStyle.Width(14).Render(fieldLabel(ff.field))
		}
		var body string
		if ff.picker {
			body = "‹ " + value(ff.field) + " ›"
			if idx == f.focus {
				body = selectedStyle.Render(body)
			}
		} else {
			ff.input.Width = inputWidth
			body = ff.input.View()
		}
		rows = append(rows, label+body)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

type capabilityMsg struct {
	screen ScreenID
	result device.Result
}

func (m capabilityMsg) target() ScreenID { return m.screen }

func acquireLocation(sess *session, id ScreenID) tea.Cmd {
	return func() tea.Msg {
		return capabilityMsg{screen: id, result: device.AcquireLocation(sess.ctx(), sess.permissions, sess.locator)}
	}
}

func acquirePhoto(sess *session, id ScreenID) tea.Cmd {
	return func() tea.Msg {
		return capabilityMsg{screen: id, result: device.AcquirePhoto(sess.ctx(), sess.permissions, sess.camera)}
	}
}

func logCapability(sess *session, res device.Result) {
	if res.Outcome == device.OutcomeFailed {
		sess.logbook.Warn("capability %s: %s: %v", res.Kind, res.Outcome, res.Err)
		return
	}
	sess.logbook.Info("capability %s: %s", res.Kind, res.Outcome)
}

// submitNotice turns a submission error into the inline notice. Local
// validation problems name the field.
func submitNotice(err error, fallback string) string {
	var verr *draft.ValidationError
	if errors.As(err, &verr) {
		return "Check " + strings.ToLower(fieldLabel(verr.Field)) + ": " + verr.Reason + "."
	}
	return gateway.UserMessage(err, fallback)
}

var formKeys = []string{
	"tab    next field",
	"ctrl+g use GPS position",
	"ctrl+p attach photo",
	"ctrl+s save",
	"esc    discard",
}
