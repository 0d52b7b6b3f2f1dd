package gateway

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/kingrea/sistema-obras/internal/domain"
)

// Report records one work report request accepted by Memory.
type Report struct {
	WorkID    string
	Recipient string
}

// Memory is an in-process Gateway. The stub server serves it over HTTP and
// tests use it directly.
type Memory struct {
	mu          sync.RWMutex
	works       map[string]domain.Work
	inspections map[string]domain.Inspection
	// Insertion order of each map; deletes prune them.
	workOrder       []string
	inspectionOrder []string
	reports         []Report
	cascade         bool
	newID           func() string
}

// MemoryOption customizes a Memory store.
type MemoryOption func(*Memory)

// WithCascade controls whether deleting a work removes its inspections.
func WithCascade(enabled bool) MemoryOption {
	return func(m *Memory) {
		m.cascade = enabled
	}
}

// WithIDs overrides identifier generation.
func WithIDs(next func() string) MemoryOption {
	return func(m *Memory) {
		if next != nil {
			m.newID = next
		}
	}
}

// NewMemory returns an empty store that cascades work deletion.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		works:       map[string]domain.Work{},
		inspections: map[string]domain.Inspection{},
		cascade:     true,
		newID:       func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:24] },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// PutWork stores w as-is, assigning an identifier when it has none.
func (m *Memory) PutWork(w domain.Work) domain.Work {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w.ID == "" {
		w.ID = m.newID()
	}
	if _, ok := m.works[w.ID]; !ok {
		m.workOrder = append(m.workOrder, w.ID)
	}
	m.works[w.ID] = w
	return w
}

// PutInspection stores in as-is, assigning an identifier when it has none.
// The owning work does not have to exist.
func (m *Memory) PutInspection(in domain.Inspection) domain.Inspection {
	m.mu.Lock()
	defer m.mu.Unlock()
	if in.ID == "" {
		in.ID = m.newID()
	}
	in.Work = domain.RefTo(in.Work.ID)
	if _, ok := m.inspections[in.ID]; !ok {
		m.inspectionOrder = append(m.inspectionOrder, in.ID)
	}
	m.inspections[in.ID] = in
	return in
}

// Reports returns the report requests accepted so far.
func (m *Memory) Reports() []Report {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Report(nil), m.reports...)
}

// pruneOrder drops the identifiers no longer in present, keeping order.
func pruneOrder[T any](order []string, present map[string]T) []string {
	kept := order[:0]
	for _, id := range order {
		if _, ok := present[id]; ok {
			kept = append(kept, id)
		}
	}
	return kept
}

func (m *Memory) ListWorks(ctx context.Context, params Params) ([]domain.Work, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	works := make([]domain.Work, 0, len(m.works))
	for _, id := range m.workOrder {
		w, ok := m.works[id]
		if !ok || !matchWork(w, params) {
			continue
		}
		works = append(works, w)
	}
	return works, nil
}

func (m *Memory) GetWork(ctx context.Context, id string) (domain.Work, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.works[id]
	if !ok {
		return domain.Work{}, fmt.Errorf("obra %s: %w", id, ErrNotFound)
	}
	return w, nil
}

func (m *Memory) CreateWork(ctx context.Context, payload domain.WorkPayload) (domain.Work, error) {
	return m.PutWork(payload.Apply(domain.Work{})), nil
}

func (m *Memory) UpdateWork(ctx context.Context, id string, payload domain.WorkPayload) (domain.Work, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.works[id]
	if !ok {
		return domain.Work{}, fmt.Errorf("obra %s: %w", id, ErrNotFound)
	}
	w = payload.Apply(w)
	m.works[id] = w
	return w, nil
}

func (m *Memory) DeleteWork(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.works[id]; !ok {
		return fmt.Errorf("obra %s: %w", id, ErrNotFound)
	}
	delete(m.works, id)
	m.workOrder = pruneOrder(m.workOrder, m.works)
	if m.cascade {
		for inspID, in := range m.inspections {
			if in.Work.ID == id {
				delete(m.inspections, inspID)
			}
		}
		m.inspectionOrder = pruneOrder(m.inspectionOrder, m.inspections)
	}
	return nil
}

func (m *Memory) ListInspections(ctx context.Context, params Params) ([]domain.Inspection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inspectionsLocked(func(in domain.Inspection) bool {
		return matchInspection(in, params)
	}), nil
}

// GetInspection embeds the owning work's summary when the work still exists.
func (m *Memory) GetInspection(ctx context.Context, id string) (domain.Inspection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	in, ok := m.inspections[id]
	if !ok {
		return domain.Inspection{}, fmt.Errorf("fiscalizacao %s: %w", id, ErrNotFound)
	}
	if w, ok := m.works[in.Work.ID]; ok {
		summary := w.Summary()
		in.Work.Summary = &summary
	}
	return in, nil
}

func (m *Memory) CreateInspection(ctx context.Context, payload domain.InspectionPayload) (domain.Inspection, error) {
	if err := requireID(KindWork, payload.WorkID); err != nil {
		return domain.Inspection{}, err
	}
	m.mu.RLock()
	_, ok := m.works[payload.WorkID]
	m.mu.RUnlock()
	if !ok {
		return domain.Inspection{}, fmt.Errorf("obra %s: %w", payload.WorkID, ErrNotFound)
	}
	return m.PutInspection(payload.Apply(domain.Inspection{})), nil
}

func (m *Memory) UpdateInspection(ctx context.Context, id string, payload domain.InspectionPayload) (domain.Inspection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.inspections[id]
	if !ok {
		return domain.Inspection{}, fmt.Errorf("fiscalizacao %s: %w", id, ErrNotFound)
	}
	in = payload.Apply(in)
	m.inspections[id] = in
	return in, nil
}

func (m *Memory) DeleteInspection(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.inspections[id]; !ok {
		return fmt.Errorf("fiscalizacao %s: %w", id, ErrNotFound)
	}
	delete(m.inspections, id)
	m.inspectionOrder = pruneOrder(m.inspectionOrder, m.inspections)
	return nil
}

func (m *Memory) ListInspectionsOfWork(ctx context.Context, workID string) ([]domain.Inspection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.works[workID]; !ok {
		return nil, fmt.Errorf("obra %s: %w", workID, ErrNotFound)
	}
	return m.inspectionsLocked(func(in domain.Inspection) bool {
		return in.Work.ID == workID
	}), nil
}

func (m *Memory) SendWorkReport(ctx context.Context, workID, recipient string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.works[workID]; !ok {
		return fmt.Errorf("obra %s: %w", workID, ErrNotFound)
	}
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return fmt.Errorf("gateway: recipient is required")
	}
	m.reports = append(m.reports, Report{WorkID: workID, Recipient: recipient})
	return nil
}

// inspectionsLocked returns matches newest date first, like the work detail
// screen shows them.
func (m *Memory) inspectionsLocked(keep func(domain.Inspection) bool) []domain.Inspection {
	out := make([]domain.Inspection, 0)
	for _, id := range m.inspectionOrder {
		in, ok := m.inspections[id]
		if !ok || !keep(in) {
			continue
		}
		out = append(out, in)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out
}

func matchWork(w domain.Work, params Params) bool {
	for key, value := range params {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch key {
		case "status":
			if !strings.EqualFold(w.Status, value) {
				return false
			}
		case "responsavel":
			if !strings.EqualFold(w.Responsible, value) {
				return false
			}
		case "nome":
			if !strings.Contains(strings.ToLower(w.Name), strings.ToLower(value)) {
				return false
			}
		}
	}
	return true
}

func matchInspection(in domain.Inspection, params Params) bool {
	for key, value := range params {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch key {
		case "obra":
			if in.Work.ID != value {
				return false
			}
		case "status":
			if string(in.Status) != value {
				return false
			}
		case "fiscal":
			if !strings.EqualFold(in.Inspector, value) {
				return false
			}
		}
	}
	return true
}
