package models

import "time"

// RegistrationStatus представляет статусы регистрации, соответствующие ENUM в БД.
type RegistrationStatus string

const (
	RegistrationRegistered RegistrationStatus = "registered"
	RegistrationConfirmed  RegistrationStatus = "confirmed"
	RegistrationWithdrawn  RegistrationStatus = "withdrawn"
)

// Registration is a tournament-scoped player entry. PairingNumber is assigned
// once (rating-descending) the first time the roster is encoded and is never
// reassigned for the lifetime of the tournament.
type Registration struct {
	ID            int                `json:"id" db:"id"`
	TournamentID  int                `json:"tournament_id" db:"tournament_id"`
	PairingNumber *int               `json:"pairing_number,omitempty" db:"pairing_number"`
	PlayerName    string             `json:"player_name" db:"player_name"`
	Rating        int                `json:"rating" db:"rating"`
	Status        RegistrationStatus `json:"status" db:"status"`
	CreatedAt     time.Time          `json:"created_at" db:"created_at"`
}
