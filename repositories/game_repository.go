package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/volkovda/chess-arena/models"
)

var (
	ErrGameNotFound                = errors.New("game not found")
	ErrGameTournamentInvalid       = errors.New("game tournament conflict or invalid")
	ErrGameRegistrationInvalid     = errors.New("game registration conflict or invalid")
	ErrGameDoublePairingConstraint = errors.New("registration already paired in this round")
)

type GameRepository interface {
	Create(ctx context.Context, exec SQLExecutor, game *models.Game) error
	GetByID(ctx context.Context, id int) (*models.Game, error)
	ListByRound(ctx context.Context, tournamentID, roundNumber int) ([]*models.Game, error)
	// ListBelowRound возвращает все партии с round_number < roundNumber -
	// историю, которую кодирует TRF для генерации следующего тура.
	ListBelowRound(ctx context.Context, tournamentID, roundNumber int) ([]*models.Game, error)
	ListDecidedByTournament(ctx context.Context, tournamentID int) ([]*models.Game, error)
	// MaxRound возвращает max(round_number) по сохраненным партиям (0, если их нет).
	MaxRound(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	// CountDecidedInRound считает партии тура с записанным результатом и
	// блокирует строки тура (FOR UPDATE) до конца транзакции exec: проверка
	// и последующее удаление не могут разойтись с параллельной записью
	// результата.
	CountDecidedInRound(ctx context.Context, exec SQLExecutor, tournamentID, roundNumber int) (int, error)
	// DeleteByRound удаляет все партии тура и возвращает число удаленных строк.
	DeleteByRound(ctx context.Context, exec SQLExecutor, tournamentID, roundNumber int) (int64, error)
	UpdateResult(ctx context.Context, exec SQLExecutor, id int, result models.GameResult, status models.GameStatus, pgn *string) error
	RoundSummaries(ctx context.Context, tournamentID int) ([]*models.RoundSummary, error)
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

const gameColumns = `id, tournament_id, round_number, white_registration_id,
	black_registration_id, board_number, result, status, pgn, created_at`

func (r *postgresGameRepository) Create(ctx context.Context, exec SQLExecutor, game *models.Game) error {
	query := `
		INSERT INTO games
			(tournament_id, round_number, white_registration_id, black_registration_id,
			 board_number, result, status, pgn)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		game.TournamentID,
		game.RoundNumber,
		game.WhiteRegistrationID,
		game.BlackRegistrationID,
		game.BoardNumber,
		game.Result,
		game.Status,
		game.PGN,
	).Scan(&game.ID, &game.CreatedAt)

	return r.handleGameError(err)
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id int) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`

	game := &models.Game{}
	err := r.scanGame(r.db.QueryRowContext(ctx, query, id), game)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to scan game by id %d: %w", id, err)
	}
	return game, nil
}

func (r *postgresGameRepository) ListByRound(ctx context.Context, tournamentID, roundNumber int) ([]*models.Game, error) {
	query := `SELECT ` + gameColumns + `
		FROM games
		WHERE tournament_id = $1 AND round_number = $2
		ORDER BY board_number ASC`
	return r.list(ctx, query, tournamentID, roundNumber)
}

func (r *postgresGameRepository) ListBelowRound(ctx context.Context, tournamentID, roundNumber int) ([]*models.Game, error) {
	query := `SELECT ` + gameColumns + `
		FROM games
		WHERE tournament_id = $1 AND round_number < $2
		ORDER BY round_number ASC, board_number ASC`
	return r.list(ctx, query, tournamentID, roundNumber)
}

func (r *postgresGameRepository) ListDecidedByTournament(ctx context.Context, tournamentID int) ([]*models.Game, error) {
	query := `SELECT ` + gameColumns + `
		FROM games
		WHERE tournament_id = $1 AND result <> 'ongoing'
		ORDER BY round_number ASC, board_number ASC`
	return r.list(ctx, query, tournamentID)
}

func (r *postgresGameRepository) MaxRound(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	query := `SELECT COALESCE(MAX(round_number), 0) FROM games WHERE tournament_id = $1`
	var maxRound int
	if err := exec.QueryRowContext(ctx, query, tournamentID).Scan(&maxRound); err != nil {
		return 0, fmt.Errorf("failed to compute max round for tournament %d: %w", tournamentID, err)
	}
	return maxRound, nil
}

func (r *postgresGameRepository) CountDecidedInRound(ctx context.Context, exec SQLExecutor, tournamentID, roundNumber int) (int, error) {
	// FOR UPDATE держит строки тура до конца транзакции: параллельная
	// запись результата ждет, а после удаления обновит ноль строк.
	query := `
		SELECT COUNT(*) FILTER (WHERE result <> 'ongoing')
		FROM (
			SELECT result FROM games
			WHERE tournament_id = $1 AND round_number = $2
			FOR UPDATE
		) AS round_games`
	var count int
	if err := exec.QueryRowContext(ctx, query, tournamentID, roundNumber).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count decided games for tournament %d round %d: %w", tournamentID, roundNumber, err)
	}
	return count, nil
}

func (r *postgresGameRepository) DeleteByRound(ctx context.Context, exec SQLExecutor, tournamentID, roundNumber int) (int64, error) {
	query := `DELETE FROM games WHERE tournament_id = $1 AND round_number = $2`
	// Ноль затронутых строк - не ошибка: перегенерация пустого тура легальна.
	result, err := exec.ExecContext(ctx, query, tournamentID, roundNumber)
	if err != nil {
		return 0, fmt.Errorf("failed to delete games for tournament %d round %d: %w", tournamentID, roundNumber, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return affected, nil
}

func (r *postgresGameRepository) UpdateResult(ctx context.Context, exec SQLExecutor, id int, result models.GameResult, status models.GameStatus, pgn *string) error {
	query := `
		UPDATE games
		SET result = $1, status = $2, pgn = COALESCE($3, pgn)
		WHERE id = $4`

	res, err := exec.ExecContext(ctx, query, result, status, pgn, id)
	if err != nil {
		return r.handleGameError(err)
	}
	return checkAffectedRows(res, ErrGameNotFound)
}

func (r *postgresGameRepository) RoundSummaries(ctx context.Context, tournamentID int) ([]*models.RoundSummary, error) {
	query := `
		SELECT round_number,
		       COUNT(*) AS total_games,
		       COUNT(*) FILTER (WHERE result = 'ongoing') AS ongoing_games,
		       COUNT(*) FILTER (WHERE result <> 'ongoing') AS completed_games
		FROM games
		WHERE tournament_id = $1
		GROUP BY round_number
		ORDER BY round_number ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query round summaries for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	summaries := make([]*models.RoundSummary, 0)
	for rows.Next() {
		var s models.RoundSummary
		if scanErr := rows.Scan(&s.RoundNumber, &s.TotalGames, &s.OngoingGames, &s.CompletedGames); scanErr != nil {
			return nil, fmt.Errorf("failed to scan round summary row: %w", scanErr)
		}
		summaries = append(summaries, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during round summary rows iteration: %w", err)
	}
	return summaries, nil
}

func (r *postgresGameRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Game, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	games := make([]*models.Game, 0)
	for rows.Next() {
		var game models.Game
		if scanErr := r.scanGame(rows, &game); scanErr != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", scanErr)
		}
		games = append(games, &game)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during game rows iteration: %w", err)
	}
	return games, nil
}

func (r *postgresGameRepository) scanGame(rowScanner interface {
	Scan(dest ...interface{}) error
}, game *models.Game) error {
	return rowScanner.Scan(
		&game.ID,
		&game.TournamentID,
		&game.RoundNumber,
		&game.WhiteRegistrationID,
		&game.BlackRegistrationID,
		&game.BoardNumber,
		&game.Result,
		&game.Status,
		&game.PGN,
		&game.CreatedAt,
	)
}

func (r *postgresGameRepository) handleGameError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		// "23503": foreign_key_violation
		// "23505": unique_violation (партия на игрока в туре)
		switch pqErr.Constraint {
		case "games_tournament_id_fkey":
			return ErrGameTournamentInvalid
		case "games_white_registration_id_fkey", "games_black_registration_id_fkey":
			return ErrGameRegistrationInvalid
		case "games_round_white_key", "games_round_black_key":
			return ErrGameDoublePairingConstraint
		}
	}
	return err
}
