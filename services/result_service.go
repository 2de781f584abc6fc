package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/volkovda/chess-arena/live"
	"github.com/volkovda/chess-arena/models"
	"github.com/volkovda/chess-arena/repositories"
	"github.com/volkovda/chess-arena/storage"
)

type ResultService interface {
	// SubmitResult validates and stores the outcome of a single game.
	// PGN content is opaque: no board legality checks here.
	SubmitResult(ctx context.Context, gameID int, result models.GameResult, pgn *string) (*models.Game, error)
}

type resultService struct {
	db       *sql.DB
	gameRepo repositories.GameRepository
	uploader storage.FileUploader // nil - архив PGN отключен
	hub      *live.Hub
	logger   *slog.Logger
}

func NewResultService(
	db *sql.DB,
	gameRepo repositories.GameRepository,
	uploader storage.FileUploader,
	hub *live.Hub,
	logger *slog.Logger,
) ResultService {
	return &resultService{
		db:       db,
		gameRepo: gameRepo,
		uploader: uploader,
		hub:      hub,
		logger:   logger,
	}
}

func (s *resultService) SubmitResult(ctx context.Context, gameID int, result models.GameResult, pgn *string) (*models.Game, error) {
	if !result.ValidSubmission() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGameResult, result)
	}

	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to load game %d: %w", gameID, err)
	}

	if err := s.gameRepo.UpdateResult(ctx, s.db, gameID, result, models.GameStatusCompleted, pgn); err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to record result for game %d: %w", gameID, err)
	}

	game.Result = result
	game.Status = models.GameStatusCompleted
	if pgn != nil {
		game.PGN = pgn
	}

	// Архивная копия PGN - best effort: строка в БД остается источником
	// истины, ошибка выгрузки только логируется.
	if s.uploader != nil && pgn != nil && strings.TrimSpace(*pgn) != "" {
		key := storage.PGNKey(game.TournamentID, game.RoundNumber, game.ID)
		if _, upErr := s.uploader.Upload(ctx, key, "application/x-chess-pgn", strings.NewReader(*pgn)); upErr != nil {
			s.logger.Warn("failed to archive PGN",
				slog.Int("game_id", game.ID),
				slog.String("key", key),
				slog.Any("error", upErr))
		}
	}

	s.hub.BroadcastToRoom(live.RoomID(game.TournamentID), live.EventResultSubmitted, game)
	return game, nil
}
