package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден
	ErrTournamentNotFound   = errors.New("tournament not found")
	ErrGameNotFound         = errors.New("game not found")
	ErrRoundNotFound        = errors.New("round not found")
	ErrRegistrationNotFound = errors.New("registration not found")

	// Ошибки валидации и бизнес-правил
	ErrInvalidGameResult         = errors.New("invalid game result value")
	ErrInvalidPairingSystem      = errors.New("invalid pairing system: must be dutch or burstein")
	ErrPlayerNameRequired        = errors.New("player name is required")
	ErrTournamentNameRequired    = errors.New("tournament name is required")
	ErrRoundHasCompletedResults  = errors.New("cannot delete a round with completed games; clear results first")
	ErrCurrentRoundUnfinished    = errors.New("current round still has ongoing games")
	ErrEmptyRoster               = errors.New("no active registrations to pair")
	ErrPairingResolveFailed      = errors.New("engine returned a pairing number not present in the roster")
	ErrPairingParseFailed        = errors.New("engine output yielded no pairings for a non-empty roster")

	// Ошибки конфликтов
	ErrTournamentNameConflict = errors.New("tournament name already exists")
)
