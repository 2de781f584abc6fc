package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volkovda/chess-arena/models"
)

func TestCreateTournament(t *testing.T) {
	svc := NewTournamentService(newFakeTournamentRepo())

	created, err := svc.Create(context.Background(), "  Spring Open  ")
	require.NoError(t, err)
	assert.Equal(t, "Spring Open", created.Name)
	assert.NotZero(t, created.ID)
	assert.Equal(t, 0, created.CurrentRound)
}

func TestCreateTournamentEmptyName(t *testing.T) {
	svc := NewTournamentService(newFakeTournamentRepo())

	_, err := svc.Create(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrTournamentNameRequired)
}

func TestGetTournamentNotFound(t *testing.T) {
	svc := NewTournamentService(newFakeTournamentRepo())

	_, err := svc.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestRegisterPlayer(t *testing.T) {
	tRepo := newFakeTournamentRepo(&models.Tournament{ID: 1, Name: "Spring Open"})
	rRepo := newFakeRegistrationRepo()
	svc := NewRegistrationService(tRepo, rRepo)

	reg, err := svc.Register(context.Background(), 1, "Tal, Mikhail", 2700)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationConfirmed, reg.Status)
	assert.Nil(t, reg.PairingNumber)

	active, err := svc.ListActive(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestRegisterPlayerValidation(t *testing.T) {
	tRepo := newFakeTournamentRepo(&models.Tournament{ID: 1, Name: "Spring Open"})
	svc := NewRegistrationService(tRepo, newFakeRegistrationRepo())

	_, err := svc.Register(context.Background(), 1, "  ", 1500)
	assert.ErrorIs(t, err, ErrPlayerNameRequired)

	_, err = svc.Register(context.Background(), 42, "Tal", 1500)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestWithdrawRemovesFromActiveRoster(t *testing.T) {
	tRepo := newFakeTournamentRepo(&models.Tournament{ID: 1, Name: "Spring Open"})
	rRepo := newFakeRegistrationRepo(numberedRoster()...)
	svc := NewRegistrationService(tRepo, rRepo)

	require.NoError(t, svc.Withdraw(context.Background(), 13))

	active, err := svc.ListActive(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, active, 3)
	for _, reg := range active {
		assert.NotEqual(t, 13, reg.ID)
	}

	assert.ErrorIs(t, svc.Withdraw(context.Background(), 404), ErrRegistrationNotFound)
}
