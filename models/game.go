package models

import "time"

type GameStatus string

const (
	GameStatusScheduled GameStatus = "scheduled"
	GameStatusCompleted GameStatus = "completed"
)

type GameResult string

const (
	ResultOngoing      GameResult = "ongoing"
	ResultWhiteWin     GameResult = "white_win"
	ResultBlackWin     GameResult = "black_win"
	ResultDraw         GameResult = "draw"
	ResultForfeitWhite GameResult = "forfeit_white"
	ResultForfeitBlack GameResult = "forfeit_black"
)

// Decided reports whether the result counts for scoring. Forfeits are
// decisive results: a forfeit win scores 1, a forfeit loss 0.
func (r GameResult) Decided() bool {
	return r != ResultOngoing
}

// ValidSubmission reports whether the value may be submitted for a game.
// "ongoing" is the initial state, never a submitted outcome.
func (r GameResult) ValidSubmission() bool {
	switch r {
	case ResultWhiteWin, ResultBlackWin, ResultDraw, ResultForfeitWhite, ResultForfeitBlack:
		return true
	}
	return false
}

// Game is one pairing of a round. Within a round each registration appears in
// at most one game, and board numbers form a dense 1..K sequence.
type Game struct {
	ID                  int        `json:"id" db:"id"`
	TournamentID        int        `json:"tournament_id" db:"tournament_id"`
	RoundNumber         int        `json:"round_number" db:"round_number"`
	WhiteRegistrationID int        `json:"white_registration_id" db:"white_registration_id"`
	BlackRegistrationID int        `json:"black_registration_id" db:"black_registration_id"`
	BoardNumber         int        `json:"board_number" db:"board_number"`
	Result              GameResult `json:"result" db:"result"`
	Status              GameStatus `json:"status" db:"status"`
	PGN                 *string    `json:"pgn,omitempty" db:"pgn"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
}

// RoundSummary агрегирует партии одного тура.
type RoundSummary struct {
	RoundNumber    int `json:"round_number" db:"round_number"`
	TotalGames     int `json:"total_games" db:"total_games"`
	OngoingGames   int `json:"ongoing_games" db:"ongoing_games"`
	CompletedGames int `json:"completed_games" db:"completed_games"`
}
