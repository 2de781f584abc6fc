package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/volkovda/chess-arena/models"
	"github.com/volkovda/chess-arena/repositories"
)

// RegistrationService - тонкая прослойка над подсистемой регистраций.
// Сама жеребьевка видит только активный ростер (registered/confirmed).
type RegistrationService interface {
	Register(ctx context.Context, tournamentID int, playerName string, rating int) (*models.Registration, error)
	ListActive(ctx context.Context, tournamentID int) ([]*models.Registration, error)
	Withdraw(ctx context.Context, registrationID int) error
}

type registrationService struct {
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
}

func NewRegistrationService(
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
) RegistrationService {
	return &registrationService{
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
	}
}

func (s *registrationService) Register(ctx context.Context, tournamentID int, playerName string, rating int) (*models.Registration, error) {
	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		return nil, ErrPlayerNameRequired
	}
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	reg := &models.Registration{
		TournamentID: tournamentID,
		PlayerName:   playerName,
		Rating:       rating,
		Status:       models.RegistrationConfirmed,
	}
	if err := s.registrationRepo.Create(ctx, reg); err != nil {
		if errors.Is(err, repositories.ErrRegistrationTournamentInvalid) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}
	return reg, nil
}

func (s *registrationService) ListActive(ctx context.Context, tournamentID int) ([]*models.Registration, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return s.registrationRepo.ListActiveByTournament(ctx, tournamentID)
}

func (s *registrationService) Withdraw(ctx context.Context, registrationID int) error {
	err := s.registrationRepo.UpdateStatus(ctx, registrationID, models.RegistrationWithdrawn)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return ErrRegistrationNotFound
		}
		return fmt.Errorf("failed to withdraw registration %d: %w", registrationID, err)
	}
	return nil
}
