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
	ErrRegistrationNotFound              = errors.New("registration not found")
	ErrRegistrationTournamentInvalid     = errors.New("registration tournament conflict or invalid")
	ErrRegistrationPairingNumberConflict = errors.New("pairing number already taken in this tournament")
)

type RegistrationRepository interface {
	Create(ctx context.Context, reg *models.Registration) error
	GetByID(ctx context.Context, id int) (*models.Registration, error)
	// ListActiveByTournament возвращает записи со статусом registered/confirmed,
	// сперва по pairing_number ASC (NULL - в конце), внутри NULL - по рейтингу DESC.
	// Такой порядок нужен кодировщику TRF и ленивому назначению номеров.
	ListActiveByTournament(ctx context.Context, tournamentID int) ([]*models.Registration, error)
	UpdateStatus(ctx context.Context, id int, status models.RegistrationStatus) error
	// AssignPairingNumber persists a pairing number exactly once; it never
	// overwrites an existing assignment.
	AssignPairingNumber(ctx context.Context, exec SQLExecutor, id int, pairingNumber int) error
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	query := `
		INSERT INTO registrations (tournament_id, player_name, rating, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		reg.TournamentID,
		reg.PlayerName,
		reg.Rating,
		reg.Status,
	).Scan(&reg.ID, &reg.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23503": // foreign_key_violation
				if pqErr.Constraint == "registrations_tournament_id_fkey" {
					return ErrRegistrationTournamentInvalid
				}
			}
		}
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

func (r *postgresRegistrationRepository) GetByID(ctx context.Context, id int) (*models.Registration, error) {
	query := `
		SELECT id, tournament_id, pairing_number, player_name, rating, status, created_at
		FROM registrations
		WHERE id = $1`

	reg := &models.Registration{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&reg.ID,
		&reg.TournamentID,
		&reg.PairingNumber,
		&reg.PlayerName,
		&reg.Rating,
		&reg.Status,
		&reg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to scan registration by id %d: %w", id, err)
	}
	return reg, nil
}

func (r *postgresRegistrationRepository) ListActiveByTournament(ctx context.Context, tournamentID int) ([]*models.Registration, error) {
	query := `
		SELECT id, tournament_id, pairing_number, player_name, rating, status, created_at
		FROM registrations
		WHERE tournament_id = $1 AND status IN ('registered', 'confirmed')
		ORDER BY pairing_number ASC NULLS LAST, rating DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	registrations := make([]*models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		if scanErr := rows.Scan(
			&reg.ID,
			&reg.TournamentID,
			&reg.PairingNumber,
			&reg.PlayerName,
			&reg.Rating,
			&reg.Status,
			&reg.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", scanErr)
		}
		registrations = append(registrations, &reg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during registration rows iteration: %w", err)
	}
	return registrations, nil
}

func (r *postgresRegistrationRepository) UpdateStatus(ctx context.Context, id int, status models.RegistrationStatus) error {
	query := `UPDATE registrations SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update registration status: %w", err)
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) AssignPairingNumber(ctx context.Context, exec SQLExecutor, id int, pairingNumber int) error {
	// pairing_number IS NULL в WHERE защищает от повторного назначения.
	query := `UPDATE registrations SET pairing_number = $1 WHERE id = $2 AND pairing_number IS NULL`
	result, err := exec.ExecContext(ctx, query, pairingNumber, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "registrations_tournament_id_pairing_number_key" {
				return ErrRegistrationPairingNumberConflict
			}
		}
		return fmt.Errorf("failed to assign pairing number for registration %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}
