package services

import (
	"context"
	"fmt"

	"github.com/ArowuTest/padel-arena-backend/internal/fidelity"
	"github.com/ArowuTest/padel-arena-backend/internal/repositories"
)

type fidelityService struct {
	reservations repositories.ReservationRepository
}

// NewFidelityService creates a new FidelityService implementation
func NewFidelityService(reservations repositories.ReservationRepository) FidelityService {
	return &fidelityService{reservations: reservations}
}

// Summary computes the loyalty summary from the participant's bookings
func (s *fidelityService) Summary(ctx context.Context, participantID string) (*fidelity.Summary, error) {
	count, err := s.reservations.CountByUser(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count reservations: %w", err)
	}
	summary := fidelity.Summarize(int(count))
	return &summary, nil
}
