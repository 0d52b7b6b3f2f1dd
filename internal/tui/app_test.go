package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/sistema-obras/internal/config"
	"github.com/kingrea/sistema-obras/internal/device"
	"github.com/kingrea/sistema-obras/internal/domain"
	"github.com/kingrea/sistema-obras/internal/draft"
	"github.com/kingrea/sistema-obras/internal/gateway"
	"github.com/kingrea/sistema-obras/internal/gateway/gatewaytest"
	"github.com/kingrea/sistema-obras/internal/lifecycle"
)

var testNow = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

type countingLocator struct {
	fix   device.Fix
	calls int
}

func (l *countingLocator) CurrentPosition(context.Context) (device.Fix, error) {
	l.calls++
	return l.fix, nil
}

type fixture struct {
	app     *App
	store   *gateway.Memory
	rec     *gatewaytest.Recorder
	work    domain.Work
	locator *countingLocator
	copied  []string
}

func newFixture(t *testing.T, opts ...AppOption) *fixture {
	t.Helper()
	t.Setenv("OBRAS_API_URL", "")
	t.Setenv("OBRAS_GPS", "")
	projectDir := t.TempDir()
	if err := config.InitObrasDir(projectDir); err != nil {
		t.Fatalf("init obras dir: %v", err)
	}
	store := gateway.NewMemory()
	work := store.PutWork(domain.Work{
		ID:          "w1",
		Name:        "Ponte Sul",
		Responsible: "Ana",
		Status:      "Em Andamento",
		StartDate:   domain.NewTimestamp(testNow),
		Location:    &domain.Location{Latitude: -23.5, Longitude: -46.6},
	})
	f := &fixture{
		store:   store,
		rec:     gatewaytest.New(store),
		work:    work,
		locator: &countingLocator{fix: device.Fix{Latitude: -22.9, Longitude: -43.2}},
	}
	baseOpts := []AppOption{
		WithGateway(f.rec),
		WithLocator(f.locator),
		WithClock(func() time.Time { return testNow }),
		WithClipboard(func(s string) error {
			f.copied = append(f.copied, s)
			return nil
		}),
	}
	baseOpts = append(baseOpts, opts...)
	app, err := NewApp(projectDir, baseOpts...)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	model, _ := app.Update(tea.WindowSizeMsg{Width: 160, Height: 60})
	f.app = runCommands(t, model, app.Init())
	return f
}

// runCommands executes cmd and every command it leads to, feeding each
// message back through Update.
func runCommands(t *testing.T, model tea.Model, cmd tea.Cmd) *App {
	t.Helper()
	app, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 500 {
			t.Fatalf("commands did not settle")
		}
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		switch m := msg.(type) {
		case nil:
			continue
		case tea.BatchMsg:
			queue = append(queue, m...)
			continue
		}
		nextModel, nextCmd := app.Update(msg)
		app, ok = nextModel.(*App)
		if !ok {
			t.Fatalf("unexpected model type: %T", nextModel)
		}
		queue = append(queue, nextCmd)
	}
	return app
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+g":
		return tea.KeyMsg{Type: tea.KeyCtrlG}
	case "ctrl+p":
		return tea.KeyMsg{Type: tea.KeyCtrlP}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func (f *fixture) press(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		model, cmd := f.app.Update(keyMsg(key))
		f.app = runCommands(t, model, cmd)
	}
}

func (f *fixture) typeText(t *testing.T, text string) {
	t.Helper()
	for _, r := range text {
		f.press(t, string(r))
	}
}

func topAs[T Screen](t *testing.T, app *App) T {
	t.Helper()
	s, ok := app.top().(T)
	if !ok {
		t.Fatalf("unexpected top screen %T", app.top())
	}
	return s
}

func TestHomeListsWorksOnStart(t *testing.T) {
	f := newFixture(t)
	if got := f.rec.Count(gatewaytest.OpListWorks); got != 1 {
		t.Fatalf("expected one list call, got %d", got)
	}
	if view := f.app.View(); !strings.Contains(view, "Ponte Sul") {
		t.Fatalf("expected work in home list, got:\n%s", view)
	}
}

func TestHomeEmptyState(t *testing.T) {
	f := newFixture(t)
	if err := f.store.DeleteWork(context.Background(), f.work.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	f.press(t, "r")
	if view := f.app.View(); !strings.Contains(view, "No works registered yet") {
		t.Fatalf("expected empty state, got:\n%s", view)
	}
}

func TestHomeLoadFailureShowsProviderMessage(t *testing.T) {
	f := newFixture(t)
	f.rec.Fail(gatewaytest.OpListWorks, &gateway.RemoteError{Method: "GET", Path: "/obras", Status: 503, Message: "Serviço indisponível"})
	f.press(t, "r")
	home := topAs[*worksList](t, f.app)
	if home.works.State() != lifecycle.StateError {
		t.Fatalf("expected error state, got %s", home.works.State())
	}
	if home.Notice() != "Serviço indisponível" {
		t.Fatalf("unexpected notice %q", home.Notice())
	}
	f.rec.Fail(gatewaytest.OpListWorks, nil)
	f.press(t, "r")
	if home.works.State() != lifecycle.StateReady {
		t.Fatalf("retry should recover, got %s", home.works.State())
	}
}

func TestRefocusAfterRemoteRenameShowsNewName(t *testing.T) {
	f := newFixture(t)
	f.press(t, "enter")
	detail := topAs[*workDetail](t, f.app)
	if detail.Title() != "Ponte Sul" {
		t.Fatalf("unexpected detail title %q", detail.Title())
	}

	f.press(t, "e")
	topAs[*workForm](t, f.app)
	if _, err := f.store.UpdateWork(context.Background(), f.work.ID, domain.WorkPayload{Name: "Ponte Norte", Status: "Concluída"}); err != nil {
		t.Fatalf("rename: %v", err)
	}
	f.press(t, "esc")

	topAs[*workDetail](t, f.app)
	if got := f.rec.Count(gatewaytest.OpGetWork); got != 3 {
		t.Fatalf("expected detail, form seed and refocus fetches, got %d", got)
	}
	view := f.app.View()
	if !strings.Contains(view, "Ponte Norte") {
		t.Fatalf("expected renamed work after refocus, got:\n%s", view)
	}
}

func TestGPSDeniedLeavesCoordinatesUntouched(t *testing.T) {
	f := newFixture(t, WithPermissions(device.PolicyPermissions{
		device.PermissionLocation: false,
		device.PermissionCamera:   true,
		device.PermissionGallery:  true,
	}))
	f.press(t, "n")
	form := topAs[*workForm](t, f.app)
	form.draft, _ = form.draft.Set(draft.FieldLatitude, "-10")
	form.draft, _ = form.draft.Set(draft.FieldLongitude, "-20")
	before := form.draft

	f.press(t, "ctrl+g")
	if form.draft != before {
		t.Fatalf("denied location must not change the draft")
	}
	if f.locator.calls != 0 {
		t.Fatalf("locator must not run without permission, ran %d times", f.locator.calls)
	}
	if !strings.Contains(form.Notice(), "Location permission denied") {
		t.Fatalf("expected denial notice, got %q", form.Notice())
	}
}

func TestGPSFillsCoordinates(t *testing.T) {
	f := newFixture(t)
	f.press(t, "n", "ctrl+g")
	form := topAs[*workForm](t, f.app)
	if form.draft.Latitude() != "-22.9" || form.draft.Longitude() != "-43.2" {
		t.Fatalf("unexpected coordinates %s, %s", form.draft.Latitude(), form.draft.Longitude())
	}
	if form.Notice() != "Location acquired: Lat -22.9000, Lon -43.2000" {
		t.Fatalf("unexpected notice %q", form.Notice())
	}
}

func TestCreateWorkSubmitsOnceAndReturnsHome(t *testing.T) {
	f := newFixture(t)
	f.press(t, "n")
	f.typeText(t, "Ponte Nova")

	model, cmd := f.app.Update(keyMsg("ctrl+s"))
	_, repeat := model.(*App).Update(keyMsg("ctrl+s"))
	if repeat != nil {
		t.Fatalf("second save while pending must be ignored")
	}
	f.app = runCommands(t, model, cmd)

	if got := f.rec.Count(gatewaytest.OpCreateWork); got != 1 {
		t.Fatalf("expected exactly one create, got %d", got)
	}
	if got := f.rec.Count(gatewaytest.OpUpdateWork); got != 0 {
		t.Fatalf("new work must not update, got %d", got)
	}
	call, ok := f.rec.Last(gatewaytest.OpCreateWork)
	if !ok {
		t.Fatalf("missing create call")
	}
	payload := call.Payload.(domain.WorkPayload)
	if payload.Name != "Ponte Nova" || payload.Photo != domain.DefaultWorkPhoto {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if got := payload.StartDate.String(); got != "2024-01-01T00:00:00.000Z" {
		t.Fatalf("unexpected start date %s", got)
	}
	home := topAs[*worksList](t, f.app)
	if home.Notice() != "Work created." {
		t.Fatalf("unexpected notice %q", home.Notice())
	}
	if !strings.Contains(f.app.View(), "Ponte Nova") {
		t.Fatalf("home should refetch and show the new work")
	}
}

func TestInvalidCoordinatesNeverReachGateway(t *testing.T) {
	f := newFixture(t)
	f.press(t, "n")
	form := topAs[*workForm](t, f.app)
	form.draft, _ = form.draft.Set(draft.FieldName, "Ponte")
	form.draft, _ = form.draft.Set(draft.FieldLatitude, "abc")
	form.draft, _ = form.draft.Set(draft.FieldLongitude, "-46")
	calls := f.rec.Total()

	f.press(t, "ctrl+s")
	if f.rec.Total() != calls {
		t.Fatalf("invalid draft reached the gateway")
	}
	if !strings.HasPrefix(form.Notice(), "Check latitude") {
		t.Fatalf("unexpected notice %q", form.Notice())
	}
	topAs[*workForm](t, f.app)
}

func TestSaveFailureKeepsDraft(t *testing.T) {
	f := newFixture(t)
	f.press(t, "enter", "e")
	form := topAs[*workForm](t, f.app)
	f.rec.Fail(gatewaytest.OpUpdateWork, &gateway.RemoteError{Method: "PUT", Path: "/obras/w1", Status: 400, Message: "Nome é obrigatório"})
	form.draft, _ = form.draft.Set(draft.FieldResponsible, "Bruno")

	f.press(t, "ctrl+s")
	topAs[*workForm](t, f.app)
	if form.draft.Responsible != "Bruno" {
		t.Fatalf("draft lost after failure")
	}
	if form.Notice() != "Nome é obrigatório" {
		t.Fatalf("unexpected notice %q", form.Notice())
	}
	if got := f.rec.Count(gatewaytest.OpUpdateWork); got != 1 {
		t.Fatalf("expected a single update attempt, got %d", got)
	}
}

func TestDeleteWorkNeedsConfirmation(t *testing.T) {
	f := newFixture(t)
	f.press(t, "enter", "d")
	detail := topAs[*workDetail](t, f.app)
	if detail.deletion.Phase() != lifecycle.PhaseConfirming {
		t.Fatalf("expected a confirmation prompt")
	}
	if want := `Delete work "Ponte Sul" and all of its inspections?`; detail.deletion.Target().Prompt() != want {
		t.Fatalf("unexpected prompt %q", detail.deletion.Target().Prompt())
	}
	f.press(t, "n")
	if got := f.rec.Count(gatewaytest.OpDeleteWork); got != 0 {
		t.Fatalf("cancelled deletion made %d calls", got)
	}

	f.press(t, "d", "y")
	if got := f.rec.Count(gatewaytest.OpDeleteWork); got != 1 {
		t.Fatalf("expected exactly one delete, got %d", got)
	}
	home := topAs[*worksList](t, f.app)
	if home.Notice() != "Work deleted." {
		t.Fatalf("unexpected notice %q", home.Notice())
	}
}

func TestDeleteFailureStaysOnScreen(t *testing.T) {
	f := newFixture(t)
	f.rec.Fail(gatewaytest.OpDeleteWork, errors.New("boom"))
	f.press(t, "enter", "d", "y")
	detail := topAs[*workDetail](t, f.app)
	if detail.deletion.Phase() != lifecycle.PhaseIdle {
		t.Fatalf("confirmer should return to idle after failure")
	}
	if detail.Notice() != "Could not delete the work." {
		t.Fatalf("unexpected notice %q", detail.Notice())
	}
}

func TestLateResponseForClosedScreenIsDropped(t *testing.T) {
	f := newFixture(t)
	f.press(t, "enter")

	model, cmd := f.app.Update(keyMsg("e"))
	model, seed := model.(*App).Update(cmd())
	if seed == nil {
		t.Fatalf("edit form should fetch its seed on first focus")
	}
	f.app = model.(*App)
	f.press(t, "esc")
	topAs[*workDetail](t, f.app)

	model, next := f.app.Update(seed())
	if next != nil {
		t.Fatalf("late response must not produce commands")
	}
	f.app = model.(*App)
	topAs[*workDetail](t, f.app)
	lines, _ := f.app.logbook.Tail(20)
	if !strings.Contains(strings.Join(lines, "\n"), "Dropped tui.workSeedMsg") {
		t.Fatalf("expected dropped response in log, got:\n%s", strings.Join(lines, "\n"))
	}
}

func TestReportDialog(t *testing.T) {
	f := newFixture(t)
	f.press(t, "enter", "m", "enter")
	detail := topAs[*workDetail](t, f.app)
	if detail.dialog == nil {
		t.Fatalf("empty recipient must keep the dialog open")
	}
	if got := f.rec.Count(gatewaytest.OpSendWorkReport); got != 0 {
		t.Fatalf("empty recipient reached the gateway")
	}

	f.typeText(t, "ana@example.com")
	f.press(t, "enter")
	if detail.dialog != nil {
		t.Fatalf("dialog should close after sending")
	}
	reports := f.store.Reports()
	if len(reports) != 1 || reports[0].Recipient != "ana@example.com" || reports[0].WorkID != f.work.ID {
		t.Fatalf("unexpected reports %+v", reports)
	}
	if detail.Notice() != "Report sent to ana@example.com." {
		t.Fatalf("unexpected notice %q", detail.Notice())
	}
}

func TestCopyMapLink(t *testing.T) {
	f := newFixture(t)
	f.press(t, "enter", "c")
	if len(f.copied) != 1 || !strings.Contains(f.copied[0], "query=-23.5%2C-46.6") {
		t.Fatalf("unexpected clipboard writes %v", f.copied)
	}
	if got := f.app.top().Notice(); got != "Map link copied to the clipboard." {
		t.Fatalf("unexpected notice %q", got)
	}
}

func TestAddInspectionCarriesWorkAndStatus(t *testing.T) {
	f := newFixture(t)
	f.press(t, "enter", "a")
	form := topAs[*inspectionForm](t, f.app)
	if form.draft.WorkID() != f.work.ID {
		t.Fatalf("inspection draft must carry the work id")
	}
	f.press(t, "tab", "tab", "right", "ctrl+s")

	call, ok := f.rec.Last(gatewaytest.OpCreateInspection)
	if !ok {
		t.Fatalf("missing create call")
	}
	payload := call.Payload.(domain.InspectionPayload)
	if payload.WorkID != f.work.ID || payload.Status != domain.StatusNonCompliant {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.Photo != domain.DefaultInspectionPhoto {
		t.Fatalf("expected placeholder photo, got %q", payload.Photo)
	}
	detail := topAs[*workDetail](t, f.app)
	if detail.Notice() != "Inspection created." {
		t.Fatalf("unexpected notice %q", detail.Notice())
	}
	value, _ := detail.detail.Value()
	if len(value.Inspections) != 1 {
		t.Fatalf("detail should refetch inspections, got %d", len(value.Inspections))
	}
}

func TestInspectionDetailFallsBackToRawWorkID(t *testing.T) {
	f := newFixture(t)
	f.store.PutInspection(domain.Inspection{
		ID:     "i1",
		Work:   domain.RefTo("w-gone"),
		Date:   domain.NewTimestamp(testNow),
		Status: domain.StatusPending,
	})
	model, cmd := f.app.Update(pushMsg{screen: newInspectionDetail(f.app.sess, "i1")})
	f.app = runCommands(t, model, cmd)
	if view := f.app.View(); !strings.Contains(view, "w-gone") {
		t.Fatalf("expected raw work id, got:\n%s", view)
	}

	f.press(t, "e")
	form := topAs[*inspectionForm](t, f.app)
	if form.draft.WorkID() != "w-gone" {
		t.Fatalf("edit should carry the raw work id, got %q", form.draft.WorkID())
	}
}
