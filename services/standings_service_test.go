package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volkovda/chess-arena/models"
)

func TestGetStandings(t *testing.T) {
	tRepo := newFakeTournamentRepo(&models.Tournament{ID: 1, Name: "Spring Open"})
	rRepo := newFakeRegistrationRepo(numberedRoster()...)
	gRepo := newFakeGameRepo()

	// Тур 1: 11 побеждает 13, 12 играет вничью с 14.
	// Тур 2: 12 побеждает 11 (форфейтом черных), партия 13-14 не завершена.
	seed := []*models.Game{
		{TournamentID: 1, RoundNumber: 1, WhiteRegistrationID: 11, BlackRegistrationID: 13, BoardNumber: 1, Result: models.ResultWhiteWin, Status: models.GameStatusCompleted},
		{TournamentID: 1, RoundNumber: 1, WhiteRegistrationID: 12, BlackRegistrationID: 14, BoardNumber: 2, Result: models.ResultDraw, Status: models.GameStatusCompleted},
		{TournamentID: 1, RoundNumber: 2, WhiteRegistrationID: 12, BlackRegistrationID: 11, BoardNumber: 1, Result: models.ResultForfeitWhite, Status: models.GameStatusCompleted},
		{TournamentID: 1, RoundNumber: 2, WhiteRegistrationID: 13, BlackRegistrationID: 14, BoardNumber: 2, Result: models.ResultOngoing, Status: models.GameStatusScheduled},
	}
	for _, g := range seed {
		require.NoError(t, gRepo.Create(context.Background(), nil, g))
	}

	svc := NewStandingsService(tRepo, rRepo, gRepo)
	standings, err := svc.GetStandings(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, standings, 4)

	byReg := make(map[int]models.Standing, len(standings))
	for _, st := range standings {
		byReg[st.RegistrationID] = st
	}

	// 12: ничья + форфейтная победа белыми = 1.5.
	assert.Equal(t, 1.5, byReg[12].Score)
	assert.Equal(t, 2, byReg[12].GamesPlayed)
	assert.Equal(t, 1, byReg[12].Wins)
	assert.Equal(t, 1, byReg[12].Draws)

	// 11: победа + форфейтное поражение = 1.0.
	assert.Equal(t, 1.0, byReg[11].Score)
	assert.Equal(t, 2, byReg[11].GamesPlayed)
	assert.Equal(t, 1, byReg[11].Losses)

	// Незавершенная партия тура 2 не учитывается.
	assert.Equal(t, 0.0, byReg[13].Score)
	assert.Equal(t, 1, byReg[13].GamesPlayed)
	assert.Equal(t, 0.5, byReg[14].Score)
	assert.Equal(t, 1, byReg[14].GamesPlayed)

	// Порядок: очки по убыванию, при равенстве - рейтинг по убыванию.
	assert.Equal(t, []int{12, 11, 13, 14}, []int{
		standings[0].RegistrationID,
		standings[1].RegistrationID,
		standings[2].RegistrationID,
		standings[3].RegistrationID,
	})
	for i, st := range standings {
		assert.Equal(t, i+1, st.Rank)
	}
}

func TestGetStandingsRatingTiebreak(t *testing.T) {
	tRepo := newFakeTournamentRepo(&models.Tournament{ID: 1, Name: "Club Night"})
	rRepo := newFakeRegistrationRepo(
		&models.Registration{ID: 21, TournamentID: 1, PlayerName: "Low", Rating: 1600, Status: models.RegistrationConfirmed},
		&models.Registration{ID: 22, TournamentID: 1, PlayerName: "High", Rating: 2200, Status: models.RegistrationConfirmed},
	)
	gRepo := newFakeGameRepo()

	svc := NewStandingsService(tRepo, rRepo, gRepo)
	standings, err := svc.GetStandings(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, standings, 2)

	// Без сыгранных партий решает рейтинг.
	assert.Equal(t, 22, standings[0].RegistrationID)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, 21, standings[1].RegistrationID)
	assert.Equal(t, 2, standings[1].Rank)
}

func TestGetStandingsUnknownTournament(t *testing.T) {
	svc := NewStandingsService(newFakeTournamentRepo(), newFakeRegistrationRepo(), newFakeGameRepo())

	_, err := svc.GetStandings(context.Background(), 42)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestGetStandingsSkipsWithdrawnOpponent(t *testing.T) {
	tRepo := newFakeTournamentRepo(&models.Tournament{ID: 1, Name: "Club Night"})
	rRepo := newFakeRegistrationRepo(
		&models.Registration{ID: 21, TournamentID: 1, PlayerName: "Stayer", Rating: 1900, Status: models.RegistrationConfirmed},
		&models.Registration{ID: 22, TournamentID: 1, PlayerName: "Leaver", Rating: 1800, Status: models.RegistrationWithdrawn},
	)
	gRepo := newFakeGameRepo()
	require.NoError(t, gRepo.Create(context.Background(), nil, &models.Game{
		TournamentID: 1, RoundNumber: 1,
		WhiteRegistrationID: 21, BlackRegistrationID: 22,
		BoardNumber: 1, Result: models.ResultWhiteWin, Status: models.GameStatusCompleted,
	}))

	svc := NewStandingsService(tRepo, rRepo, gRepo)
	standings, err := svc.GetStandings(context.Background(), 1)
	require.NoError(t, err)

	// Выбывший не попадает в таблицу, но его партии учитываются оставшимся.
	require.Len(t, standings, 1)
	assert.Equal(t, 21, standings[0].RegistrationID)
	assert.Equal(t, 1.0, standings[0].Score)
}
