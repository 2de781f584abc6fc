package handlers

import (
	"net/http"

	"github.com/volkovda/chess-arena/models"
	"github.com/volkovda/chess-arena/services"
)

type GameHandler struct {
	resultService services.ResultService
}

func NewGameHandler(resultService services.ResultService) *GameHandler {
	return &GameHandler{resultService: resultService}
}

// SubmitResultHandler записывает исход партии.
// Тело: {"result": "white_win"|..., "pgn": "..."} (pgn опционален).
func (h *GameHandler) SubmitResultHandler(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Result models.GameResult `json:"result"`
		PGN    *string           `json:"pgn"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.resultService.SubmitResult(r.Context(), gameID, input.Result, input.PGN)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
