package server

import (
	"errors"
	"net/http"

	"github.com/scavengerhunt/huntclient/internal/gameapi"
	"github.com/scavengerhunt/huntclient/internal/hunt"
)

type loginBody struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type LoginResult struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	Role     hunt.Role `json:"role"`
}

// handleLogin authenticates against the game service and stores the
// returned identity locally. A previously persisted calibration offset
// for that user is restored so the player does not have to walk again.
func handleLogin(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body loginBody
		if err := readJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.Identifier == "" || body.Password == "" {
			writeError(w, http.StatusBadRequest, "identifier and password are required")
			return
		}

		resp, err := app.API.Login(r.Context(), gameapi.LoginRequest{
			Identifier: body.Identifier,
			Password:   body.Password,
		})
		if err != nil {
			var se *gameapi.StatusError
			if errors.As(err, &se) && se.Code == http.StatusUnauthorized {
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			app.Logger.Error("login failed", "error", err)
			writeError(w, http.StatusBadGateway, "game service unreachable")
			return
		}

		role, err := hunt.ParseRole(resp.Role)
		if err != nil {
			app.Logger.Warn("service returned unknown role, treating as player", "role", resp.Role)
			role = hunt.RolePlayer
		}

		ctx := r.Context()
		if err := app.Prefs.SetUserID(ctx, resp.UserID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		app.Prefs.SetUsername(ctx, resp.Username)
		app.Prefs.SetRole(ctx, role)
		app.Session.SetRole(role)

		if offset, err := app.Prefs.CalibrationOffset(ctx, resp.UserID); err == nil && offset != nil {
			app.Calibrator.Restore(ctx, *offset)
			app.Logger.Info("restored calibration offset", "offset_deg", *offset)
		}

		writeJSON(w, http.StatusOK, LoginResult{
			UserID:   resp.UserID,
			Username: resp.Username,
			Role:     role,
		})
	}
}

type registerBody struct {
	Username          string `json:"username"`
	Password          string `json:"password"`
	Email             string `json:"email"`
	PreferredLanguage string `json:"preferredLanguage"`
	PreferredStyle    string `json:"preferredStyle"`
}

func handleRegister(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body registerBody
		if err := readJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.Username == "" || body.Password == "" {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		err := app.API.Register(r.Context(), gameapi.RegisterRequest{
			Username:          body.Username,
			Password:          body.Password,
			Email:             body.Email,
			PreferredLanguage: body.PreferredLanguage,
			PreferredStyle:    body.PreferredStyle,
		})
		if err != nil {
			var se *gameapi.StatusError
			if errors.As(err, &se) && se.Code < 500 {
				writeError(w, se.Code, se.Body)
				return
			}
			app.Logger.Error("register failed", "error", err)
			writeError(w, http.StatusBadGateway, "game service unreachable")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"message": "registered"})
	}
}

// handleLogout drops the stored identity, the calibration, and the
// session state. Purely local; the service holds no client session.
func handleLogout(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := app.Prefs.ClearUserData(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		app.Calibrator.Clear()
		app.Session.Reset()
		writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
	}
}
