package lifecycle

import (
	"context"
	"fmt"

	"github.com/kingrea/sistema-obras/internal/domain"
	"github.com/kingrea/sistema-obras/internal/draft"
	"github.com/kingrea/sistema-obras/internal/gateway"
)

// SubmitWork validates d and then makes exactly one gateway call: create
// when d has no id, update otherwise. A validation failure is returned as
// the *draft.ValidationError itself and makes no call.
func SubmitWork(ctx context.Context, gw gateway.Gateway, d draft.Work, placeholder string) (domain.Work, error) {
	payload, err := d.Payload(placeholder)
	if err != nil {
		return domain.Work{}, err
	}
	if d.IsNew() {
		w, err := gw.CreateWork(ctx, payload)
		if err != nil {
			return domain.Work{}, fmt.Errorf("lifecycle: create work: %w", err)
		}
		return w, nil
	}
	w, err := gw.UpdateWork(ctx, d.ID, payload)
	if err != nil {
		return domain.Work{}, fmt.Errorf("lifecycle: update work %s: %w", d.ID, err)
	}
	return w, nil
}

// SubmitInspection is SubmitWork for inspections.
func SubmitInspection(ctx context.Context, gw gateway.Gateway, d draft.Inspection, placeholder string) (domain.Inspection, error) {
	payload, err := d.Payload(placeholder)
	if err != nil {
		return domain.Inspection{}, err
	}
	if d.IsNew() {
		in, err := gw.CreateInspection(ctx, payload)
		if err != nil {
			return domain.Inspection{}, fmt.Errorf("lifecycle: create inspection: %w", err)
		}
		return in, nil
	}
	in, err := gw.UpdateInspection(ctx, d.ID, payload)
	if err != nil {
		return domain.Inspection{}, fmt.Errorf("lifecycle: update inspection %s: %w", d.ID, err)
	}
	return in, nil
}
