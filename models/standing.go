package models

// Standing is a derived aggregate, computed from completed games on demand.
// Ordering: score descending, ties broken by rating descending.
type Standing struct {
	RegistrationID int     `json:"registration_id"`
	PlayerName     string  `json:"player_name"`
	Rating         int     `json:"rating"`
	GamesPlayed    int     `json:"games_played"`
	Wins           int     `json:"wins"`
	Draws          int     `json:"draws"`
	Losses         int     `json:"losses"`
	Score          float64 `json:"score"`
	Rank           int     `json:"rank"`
}
