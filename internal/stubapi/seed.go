package stubapi

import (
	"context"
	"fmt"
	"time"

	"github.com/kingrea/sistema-obras/internal/domain"
	"github.com/kingrea/sistema-obras/internal/gateway"
)

// Seed fills store with a couple of works and inspections so a fresh client
// has something to show.
func Seed(ctx context.Context, store gateway.Gateway, now time.Time) error {
	day := func(offset int) domain.Timestamp {
		y, m, d := now.UTC().Date()
		return domain.NewTimestamp(time.Date(y, m, d+offset, 0, 0, 0, 0, time.UTC))
	}
	works := []domain.WorkPayload{
		{
			Name:        "Ponte do Rio Claro",
			Responsible: "Eng. Marta Lopes",
			StartDate:   day(-60),
			EndDate:     day(120),
			Description: "Recuperação estrutural da ponte e troca do guarda-corpo.",
			Status:      "Em Andamento",
			Location:    &domain.Location{Latitude: -22.4114, Longitude: -47.5614},
			Photo:       domain.DefaultWorkPhoto,
		},
		{
			Name:        "Escola Municipal Vila Nova",
			Responsible: "Eng. Paulo Reis",
			StartDate:   day(14),
			EndDate:     day(300),
			Description: "Ampliação com quatro salas de aula.",
			Status:      domain.DefaultWorkStatus,
			Photo:       domain.DefaultWorkPhoto,
		},
	}
	created := make([]domain.Work, 0, len(works))
	for _, payload := range works {
		w, err := store.CreateWork(ctx, payload)
		if err != nil {
			return fmt.Errorf("stubapi: seed work %q: %w", payload.Name, err)
		}
		created = append(created, w)
	}
	inspections := []domain.InspectionPayload{
		{
			WorkID:    created[0].ID,
			Date:      day(-30),
			Inspector: "Carlos Mendes",
			Status:    domain.StatusCompliant,
			Remarks:   "Escoramento conforme projeto.",
			Photo:     domain.DefaultInspectionPhoto,
		},
		{
			WorkID:    created[0].ID,
			Date:      day(-2),
			Inspector: "Carlos Mendes",
			Status:    domain.StatusNonCompliant,
			Remarks:   "Falta sinalização na cabeceira norte.",
			Location:  &domain.Location{Latitude: -22.4109, Longitude: -47.5618},
			Photo:     domain.DefaultInspectionPhoto,
		},
	}
	for _, payload := range inspections {
		if _, err := store.CreateInspection(ctx, payload); err != nil {
			return fmt.Errorf("stubapi: seed inspection: %w", err)
		}
	}
	return nil
}
