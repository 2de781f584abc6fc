package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/volkovda/chess-arena/models"
	"github.com/volkovda/chess-arena/repositories"
	"golang.org/x/sync/errgroup"
)

type StandingsService interface {
	// GetStandings aggregates decided games into per-player score and
	// win/draw/loss counts. Tie-break is rating descending; standard
	// Buchholz/Sonneborn-Berger is intentionally not implemented.
	GetStandings(ctx context.Context, tournamentID int) ([]models.Standing, error)
}

type standingsService struct {
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	gameRepo         repositories.GameRepository
}

func NewStandingsService(
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	gameRepo repositories.GameRepository,
) StandingsService {
	return &standingsService{
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		gameRepo:         gameRepo,
	}
}

func (s *standingsService) GetStandings(ctx context.Context, tournamentID int) ([]models.Standing, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	var (
		roster []*models.Registration
		games  []*models.Game
	)

	// Ростер и партии - независимые чтения, загружаем параллельно.
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		roster, err = s.registrationRepo.ListActiveByTournament(gCtx, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		games, err = s.gameRepo.ListDecidedByTournament(gCtx, tournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load standings data for tournament %d: %w", tournamentID, err)
	}

	byReg := make(map[int]*models.Standing, len(roster))
	standings := make([]models.Standing, 0, len(roster))
	for _, reg := range roster {
		standings = append(standings, models.Standing{
			RegistrationID: reg.ID,
			PlayerName:     reg.PlayerName,
			Rating:         reg.Rating,
		})
	}
	for i := range standings {
		byReg[standings[i].RegistrationID] = &standings[i]
	}

	for _, game := range games {
		if !game.Result.Decided() {
			continue
		}
		white := byReg[game.WhiteRegistrationID]
		black := byReg[game.BlackRegistrationID]

		switch game.Result {
		case models.ResultWhiteWin, models.ResultForfeitWhite:
			// Форфейты считаются как решающие результаты.
			applyResult(white, 1, 0, 0)
			applyResult(black, 0, 0, 1)
		case models.ResultBlackWin, models.ResultForfeitBlack:
			applyResult(white, 0, 0, 1)
			applyResult(black, 1, 0, 0)
		case models.ResultDraw:
			applyResult(white, 0, 1, 0)
			applyResult(black, 0, 1, 0)
		}
	}

	for i := range standings {
		st := &standings[i]
		st.Score = float64(st.Wins) + 0.5*float64(st.Draws)
	}

	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].Score != standings[j].Score {
			return standings[i].Score > standings[j].Score
		}
		return standings[i].Rating > standings[j].Rating
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}

	return standings, nil
}

// applyResult учитывает партию для одной стороны; nil - игрок выбыл из ростера.
func applyResult(st *models.Standing, wins, draws, losses int) {
	if st == nil {
		return
	}
	st.GamesPlayed++
	st.Wins += wins
	st.Draws += draws
	st.Losses += losses
}
