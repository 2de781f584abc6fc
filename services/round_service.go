package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/volkovda/chess-arena/engine"
	"github.com/volkovda/chess-arena/live"
	"github.com/volkovda/chess-arena/models"
	"github.com/volkovda/chess-arena/repositories"
	"github.com/volkovda/chess-arena/trf"
)

// RoundView - результат генерации тура для вызывающей стороны.
type RoundView struct {
	RoundNumber int           `json:"round_number"`
	Pairings    []models.Game `json:"pairings"`
}

type RoundServiceConfig struct {
	// AllowOpenRoundGeneration разрешает генерировать тур N+1, пока в туре N
	// остаются незавершенные партии (организаторы готовят пары заранее).
	AllowOpenRoundGeneration bool
}

type RoundService interface {
	GenerateAndSavePairings(ctx context.Context, tournamentID int, system models.PairingSystem) (*RoundView, error)
	GetRoundPairings(ctx context.Context, tournamentID, roundNumber int) ([]*models.Game, error)
	GetAllRounds(ctx context.Context, tournamentID int) ([]*models.RoundSummary, error)
	DeleteRound(ctx context.Context, tournamentID, roundNumber int) error
}

type roundService struct {
	db               *sql.DB
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	gameRepo         repositories.GameRepository
	runner           engine.Runner
	hub              *live.Hub
	logger           *slog.Logger
	cfg              RoundServiceConfig

	// Генерация и удаление туров - многошаговые read-modify-write
	// последовательности; в рамках одного турнира они сериализуются.
	locks *tournamentLocks
}

func NewRoundService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	gameRepo repositories.GameRepository,
	runner engine.Runner,
	hub *live.Hub,
	logger *slog.Logger,
	cfg RoundServiceConfig,
) RoundService {
	return &roundService{
		db:               db,
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		gameRepo:         gameRepo,
		runner:           runner,
		hub:              hub,
		logger:           logger,
		cfg:              cfg,
		locks:            newTournamentLocks(),
	}
}

func (s *roundService) GenerateAndSavePairings(ctx context.Context, tournamentID int, system models.PairingSystem) (*RoundView, error) {
	if !system.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPairingSystem, system)
	}

	lock := s.locks.forTournament(tournamentID)
	lock.Lock()
	defer lock.Unlock()

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}

	roster, err := s.registrationRepo.ListActiveByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations for tournament %d: %w", tournamentID, err)
	}
	if len(roster) == 0 {
		return nil, ErrEmptyRoster
	}

	if err := s.ensurePairingNumbers(ctx, roster); err != nil {
		return nil, err
	}
	sort.Slice(roster, func(i, j int) bool {
		return *roster[i].PairingNumber < *roster[j].PairingNumber
	})

	// Текущий тур - всегда max(round_number) по сохраненным партиям,
	// никогда не отдельный счетчик.
	currentRound, err := s.gameRepo.MaxRound(ctx, s.db, tournamentID)
	if err != nil {
		return nil, err
	}
	nextRound := currentRound + 1

	if !s.cfg.AllowOpenRoundGeneration && currentRound > 0 {
		currentGames, err := s.gameRepo.ListByRound(ctx, tournamentID, currentRound)
		if err != nil {
			return nil, err
		}
		for _, g := range currentGames {
			if g.Result == models.ResultOngoing {
				return nil, fmt.Errorf("%w: round %d", ErrCurrentRoundUnfinished, currentRound)
			}
		}
	}

	history, err := s.gameRepo.ListBelowRound(ctx, tournamentID, nextRound)
	if err != nil {
		return nil, err
	}

	trfInput, err := trf.Encode(tournament.Name, roster, history, nextRound)
	if err != nil {
		return nil, fmt.Errorf("failed to encode TRF for tournament %d round %d: %w", tournamentID, nextRound, err)
	}

	s.logger.Info("invoking pairing engine",
		slog.Int("tournament_id", tournamentID),
		slog.Int("round", nextRound),
		slog.String("system", string(system)),
		slog.Int("players", len(roster)))

	rawOutput, err := s.runner.Run(ctx, trfInput, system, tournamentID, nextRound)
	if err != nil {
		return nil, err
	}

	pairs := trf.DecodeRoundPairings(rawOutput, nextRound)
	if len(pairs) == 0 {
		// Пустой тур при непустом ростере - признак сломанного вывода движка.
		return nil, fmt.Errorf("%w: tournament %d round %d", ErrPairingParseFailed, tournamentID, nextRound)
	}

	regByPairing := make(map[int]*models.Registration, len(roster))
	for _, reg := range roster {
		regByPairing[*reg.PairingNumber] = reg
	}

	games := make([]models.Game, 0, len(pairs))
	for _, p := range pairs {
		white, okW := regByPairing[p.WhitePairingNumber]
		black, okB := regByPairing[p.BlackPairingNumber]
		if !okW || !okB {
			return nil, fmt.Errorf("%w: pair %d-%d", ErrPairingResolveFailed, p.WhitePairingNumber, p.BlackPairingNumber)
		}
		games = append(games, models.Game{
			TournamentID:        tournamentID,
			RoundNumber:         nextRound,
			WhiteRegistrationID: white.ID,
			BlackRegistrationID: black.ID,
			BoardNumber:         p.BoardNumber,
			Result:              models.ResultOngoing,
			Status:              models.GameStatusScheduled,
		})
	}

	saved, err := s.replaceRound(ctx, tournamentID, nextRound, games)
	if err != nil {
		return nil, err
	}

	view := &RoundView{RoundNumber: nextRound, Pairings: saved}
	s.hub.BroadcastToRoom(live.RoomID(tournamentID), live.EventRoundGenerated, view)
	return view, nil
}

// ensurePairingNumbers лениво назначает недостающие номера жеребьевки.
// Ростер отсортирован так, что записи без номера идут в конце по убыванию
// рейтинга; назначение постоянно и выполняется в одной транзакции.
func (s *roundService) ensurePairingNumbers(ctx context.Context, roster []*models.Registration) error {
	used := make(map[int]bool)
	missing := make([]*models.Registration, 0)
	for _, reg := range roster {
		if reg.PairingNumber != nil {
			used[*reg.PairingNumber] = true
		} else {
			missing = append(missing, reg)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	var txErr error
	defer func() {
		if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("rollback failed after pairing number assignment error",
					slog.Any("error", rbErr), slog.Any("cause", txErr))
			}
		}
	}()

	next := 1
	for _, reg := range missing {
		for used[next] {
			next++
		}
		if txErr = s.registrationRepo.AssignPairingNumber(ctx, tx, reg.ID, next); txErr != nil {
			return txErr
		}
		n := next
		reg.PairingNumber = &n
		used[next] = true
	}

	if txErr = tx.Commit(); txErr != nil {
		return fmt.Errorf("failed to commit pairing number assignment: %w", txErr)
	}
	return nil
}

// replaceRound атомарно заменяет партии тура: существующие строки удаляются,
// новые вставляются, кэш текущего тура пересчитывается.
func (s *roundService) replaceRound(ctx context.Context, tournamentID, roundNumber int, games []models.Game) ([]models.Game, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	var txErr error
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("rollback failed",
					slog.Int("tournament_id", tournamentID),
					slog.Any("error", rbErr), slog.Any("cause", txErr))
			}
		}
	}()

	// Повторная генерация всегда замещает тур целиком, никогда не дописывает.
	if _, txErr = s.gameRepo.DeleteByRound(ctx, tx, tournamentID, roundNumber); txErr != nil {
		return nil, txErr
	}

	saved := make([]models.Game, 0, len(games))
	for i := range games {
		game := games[i]
		if txErr = s.gameRepo.Create(ctx, tx, &game); txErr != nil {
			return nil, txErr
		}
		saved = append(saved, game)
	}

	maxRound, err := s.gameRepo.MaxRound(ctx, tx, tournamentID)
	if err != nil {
		txErr = err
		return nil, txErr
	}
	if txErr = s.tournamentRepo.UpdateCurrentRound(ctx, tx, tournamentID, maxRound); txErr != nil {
		return nil, txErr
	}

	if txErr = tx.Commit(); txErr != nil {
		return nil, fmt.Errorf("failed to commit round %d for tournament %d: %w", roundNumber, tournamentID, txErr)
	}

	s.logger.Info("round saved",
		slog.Int("tournament_id", tournamentID),
		slog.Int("round", roundNumber),
		slog.Int("games", len(saved)))
	return saved, nil
}

func (s *roundService) GetRoundPairings(ctx context.Context, tournamentID, roundNumber int) ([]*models.Game, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	games, err := s.gameRepo.ListByRound(ctx, tournamentID, roundNumber)
	if err != nil {
		return nil, err
	}
	return games, nil
}

func (s *roundService) GetAllRounds(ctx context.Context, tournamentID int) ([]*models.RoundSummary, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return s.gameRepo.RoundSummaries(ctx, tournamentID)
}

func (s *roundService) DeleteRound(ctx context.Context, tournamentID, roundNumber int) error {
	lock := s.locks.forTournament(tournamentID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	var txErr error
	defer func() {
		if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("rollback failed",
					slog.Int("tournament_id", tournamentID),
					slog.Any("error", rbErr), slog.Any("cause", txErr))
			}
		}
	}()

	// Проверка и удаление - в одной транзакции, чтобы результат не был
	// записан между чтением и удалением.
	decided, err := s.gameRepo.CountDecidedInRound(ctx, tx, tournamentID, roundNumber)
	if err != nil {
		txErr = err
		return txErr
	}
	if decided > 0 {
		txErr = fmt.Errorf("%w (round %d has %d decided games)", ErrRoundHasCompletedResults, roundNumber, decided)
		return txErr
	}

	deleted, err := s.gameRepo.DeleteByRound(ctx, tx, tournamentID, roundNumber)
	if err != nil {
		txErr = err
		return txErr
	}
	if deleted == 0 {
		txErr = fmt.Errorf("%w: tournament %d round %d", ErrRoundNotFound, tournamentID, roundNumber)
		return txErr
	}

	maxRound, err := s.gameRepo.MaxRound(ctx, tx, tournamentID)
	if err != nil {
		txErr = err
		return txErr
	}
	if txErr = s.tournamentRepo.UpdateCurrentRound(ctx, tx, tournamentID, maxRound); txErr != nil {
		return txErr
	}

	if txErr = tx.Commit(); txErr != nil {
		return fmt.Errorf("failed to commit round deletion: %w", txErr)
	}

	s.logger.Info("round deleted",
		slog.Int("tournament_id", tournamentID),
		slog.Int("round", roundNumber),
		slog.Int64("games_removed", deleted))
	s.hub.BroadcastToRoom(live.RoomID(tournamentID), live.EventRoundDeleted, map[string]int{
		"tournament_id": tournamentID,
		"round_number":  roundNumber,
	})
	return nil
}
