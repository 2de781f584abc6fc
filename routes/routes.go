package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/volkovda/chess-arena/handlers"
)

func SetupRoutes(
	router *chi.Mux,
	tournamentHandler *handlers.TournamentHandler,
	roundHandler *handlers.RoundHandler,
	gameHandler *handlers.GameHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Route("/tournaments", func(r chi.Router) {
		r.Post("/", tournamentHandler.CreateTournamentHandler)
		r.Get("/", tournamentHandler.ListTournamentsHandler)

		r.Route("/{tournamentID}", func(r chi.Router) {
			r.Get("/", tournamentHandler.GetTournamentHandler)

			r.Post("/registrations", tournamentHandler.RegisterPlayerHandler)
			r.Get("/registrations", tournamentHandler.ListRegistrationsHandler)

			r.Post("/rounds", roundHandler.GeneratePairingsHandler)
			r.Get("/rounds", roundHandler.ListRoundsHandler)
			r.Get("/rounds/{roundNumber}/pairings", roundHandler.GetRoundPairingsHandler)
			r.Delete("/rounds/{roundNumber}", roundHandler.DeleteRoundHandler)

			r.Get("/standings", roundHandler.GetStandingsHandler)
		})
	})

	router.Delete("/registrations/{registrationID}", tournamentHandler.WithdrawRegistrationHandler)
	router.Post("/games/{gameID}/result", gameHandler.SubmitResultHandler)

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
