package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/volkovda/chess-arena/engine"
	"github.com/volkovda/chess-arena/services"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"tournament not found", services.ErrTournamentNotFound, http.StatusNotFound},
		{"game not found", services.ErrGameNotFound, http.StatusNotFound},
		{"round not found", fmt.Errorf("%w: tournament 1 round 5", services.ErrRoundNotFound), http.StatusNotFound},
		{"name conflict", services.ErrTournamentNameConflict, http.StatusConflict},
		{"invalid result", services.ErrInvalidGameResult, http.StatusBadRequest},
		{"invalid system", services.ErrInvalidPairingSystem, http.StatusBadRequest},
		{"round has results", services.ErrRoundHasCompletedResults, http.StatusBadRequest},
		{"round unfinished", services.ErrCurrentRoundUnfinished, http.StatusBadRequest},
		{"empty roster", services.ErrEmptyRoster, http.StatusBadRequest},
		{"engine not configured", engine.ErrEngineNotConfigured, http.StatusInternalServerError},
		{"engine failed", fmt.Errorf("%w: exit status 3", engine.ErrEngineExecution), http.StatusBadGateway},
		{"parse failed", services.ErrPairingParseFailed, http.StatusBadGateway},
		{"resolve failed", services.ErrPairingResolveFailed, http.StatusBadGateway},
		{"unexpected", fmt.Errorf("driver: bad connection"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			mapServiceErrorToHTTP(rec, req, tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}
