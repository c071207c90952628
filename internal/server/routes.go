package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, app *App) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Hunt Client Control API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(app.Logger, map[string]Checker{
		"prefs":        app.Prefs,
		"game-service": CheckerFunc(app.API.Ping),
	}))
	r.Get("/ws/state", handleWSState(app))

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", handleSession(app))
		r.Get("/cone", handleCone(app))
		r.Get("/landmarks/nearby", handleNearbyLandmarks(app))

		r.Get("/calibration", handleCalibrationState(app))
		r.Post("/calibration/start", handleCalibrationStart(app))

		r.Post("/game/init", handleGameInit(app))
		r.Post("/round/start", handleRoundStart(app))
		r.Post("/round/answer", handleRoundAnswer(app))
		r.Post("/round/finish", handleRoundFinish(app))

		r.Post("/auth/login", handleLogin(app))
		r.Post("/auth/register", handleRegister(app))
		r.Post("/auth/logout", handleLogout(app))
	})
}
