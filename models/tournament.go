package models

import "time"

// PairingSystem выбирает алгоритм жеребьевки внешнего движка.
type PairingSystem string

const (
	SystemDutch    PairingSystem = "dutch"
	SystemBurstein PairingSystem = "burstein"
)

func (s PairingSystem) Valid() bool {
	return s == SystemDutch || s == SystemBurstein
}

// Tournament представляет турнир. CurrentRound - кэш, который всегда
// пересчитывается из сохраненных партий, а не инкрементируется.
type Tournament struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	CurrentRound int       `json:"current_round" db:"current_round"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Registrations []Registration `json:"registrations,omitempty" db:"-"`
}
