// Package gatewaytest provides a Gateway wrapper that counts calls and
// injects failures, for tests of code that sits on top of the gateway.
package gatewaytest

import (
	"context"
	"sync"

	"github.com/kingrea/sistema-obras/internal/domain"
	"github.com/kingrea/sistema-obras/internal/gateway"
)

// Operation names one Gateway method.
type Operation string

const (
	OpListWorks             Operation = "ListWorks"
	OpGetWork               Operation = "GetWork"
	OpCreateWork            Operation = "CreateWork"
	OpUpdateWork            Operation = "UpdateWork"
	OpDeleteWork            Operation = "DeleteWork"
	OpListInspections       Operation = "ListInspections"
	OpGetInspection         Operation = "GetInspection"
	OpCreateInspection      Operation = "CreateInspection"
	OpUpdateInspection      Operation = "UpdateInspection"
	OpDeleteInspection      Operation = "DeleteInspection"
	OpListInspectionsOfWork Operation = "ListInspectionsOfWork"
	OpSendWorkReport        Operation = "SendWorkReport"
)

// Call is one recorded invocation.
type Call struct {
	Op      Operation
	ID      string
	Payload any
}

// Recorder wraps a Gateway. Failures registered with Fail are returned
// instead of delegating, until cleared.
type Recorder struct {
	Next gateway.Gateway

	mu       sync.Mutex
	calls    []Call
	failures map[Operation]error
}

// New wraps next, typically a *gateway.Memory.
func New(next gateway.Gateway) *Recorder {
	return &Recorder{Next: next, failures: map[Operation]error{}}
}

// Fail makes every later call to op return err. A nil err clears it.
func (r *Recorder) Fail(op Operation, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.failures, op)
		return
	}
	r.failures[op] = err
}

// Calls returns every recorded call in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Count returns how many times op was invoked.
func (r *Recorder) Count(op Operation) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Total returns the number of calls of any kind.
func (r *Recorder) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// Last returns the most recent call to op.
func (r *Recorder) Last(op Operation) (Call, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.calls) - 1; i >= 0; i-- {
		if r.calls[i].Op == op {
			return r.calls[i], true
		}
	}
	return Call{}, false
}

func (r *Recorder) record(op Operation, id string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Op: op, ID: id, Payload: payload})
	return r.failures[op]
}

func (r *Recorder) ListWorks(ctx context.Context, params gateway.Params) ([]domain.Work, error) {
	if err := r.record(OpListWorks, "", params); err != nil {
		return nil, err
	}
	return r.Next.ListWorks(ctx, params)
}

func (r *Recorder) GetWork(ctx context.Context, id string) (domain.Work, error) {
	if err := r.record(OpGetWork, id, nil); err != nil {
		return domain.Work{}, err
	}
	return r.Next.GetWork(ctx, id)
}

func (r *Recorder) CreateWork(ctx context.Context, payload domain.WorkPayload) (domain.Work, error) {
	if err := r.record(OpCreateWork, "", payload); err != nil {
		return domain.Work{}, err
	}
	return r.Next.CreateWork(ctx, payload)
}

func (r *Recorder) UpdateWork(ctx context.Context, id string, payload domain.WorkPayload) (domain.Work, error) {
	if err := r.record(OpUpdateWork, id, payload); err != nil {
		return domain.Work{}, err
	}
	return r.Next.UpdateWork(ctx, id, payload)
}

func (r *Recorder) DeleteWork(ctx context.Context, id string) error {
	if err := r.record(OpDeleteWork, id, nil); err != nil {
		return err
	}
	return r.Next.DeleteWork(ctx, id)
}

func (r *Recorder) ListInspections(ctx context.Context, params gateway.Params) ([]domain.Inspection, error) {
	if err := r.record(OpListInspections, "", params); err != nil {
		return nil, err
	}
	return r.Next.ListInspections(ctx, params)
}

func (r *Recorder) GetInspection(ctx context.Context, id string) (domain.Inspection, error) {
	if err := r.record(OpGetInspection, id, nil); err != nil {
		return domain.Inspection{}, err
	}
	return r.Next.GetInspection(ctx, id)
}

func (r *Recorder) CreateInspection(ctx context.Context, payload domain.InspectionPayload) (domain.Inspection, error) {
	if err := r.record(OpCreateInspection, "", payload); err != nil {
		return domain.Inspection{}, err
	}
	return r.Next.CreateInspection(ctx, payload)
}

func (r *Recorder) UpdateInspection(ctx context.Context, id string, payload domain.InspectionPayload) (domain.Inspection, error) {
	if err := r.record(OpUpdateInspection, id, payload); err != nil {
		return domain.Inspection{}, err
	}
	return r.Next.UpdateInspection(ctx, id, payload)
}

func (r *Recorder) DeleteInspection(ctx context.Context, id string) error {
	if err := r.record(OpDeleteInspection, id, nil); err != nil {
		return err
	}
	return r.Next.DeleteInspection(ctx, id)
}

func (r *Recorder) ListInspectionsOfWork(ctx context.Context, workID string) ([]domain.Inspection, error) {
	if err := r.record(OpListInspectionsOfWork, workID, nil); err != nil {
		return nil, err
	}
	return r.Next.ListInspectionsOfWork(ctx, workID)
}

func (r *Recorder) SendWorkReport(ctx context.Context, workID, recipient string) error {
	if err := r.record(OpSendWorkReport, workID, recipient); err != nil {
		return err
	}
	return r.Next.SendWorkReport(ctx, workID, recipient)
}

var _ gateway.Gateway = (*Recorder)(nil)
