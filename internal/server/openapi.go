package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Hunt Client Control API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Local control surface of the hunt game client; drives the session, calibration and view cone.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Reports reachability of the prefs store and the game service.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /ws/state
	getWSState, _ := r.NewOperationContext(http.MethodGet, "/ws/state")
	getWSState.SetSummary("State stream")
	getWSState.SetDescription("Upgrades to a WebSocket pushing session, sensor and calibration events.")
	getWSState.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWSState)

	// GET /api/session
	getSession, _ := r.NewOperationContext(http.MethodGet, "/api/session")
	getSession.SetSummary("Session snapshot")
	getSession.SetDescription("Returns the full session, sensor and calibration state.")
	getSession.AddRespStructure(StateEvent{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getSession)

	// GET /api/cone
	getCone, _ := r.NewOperationContext(http.MethodGet, "/api/cone")
	getCone.SetSummary("View cone")
	getCone.SetDescription("Returns the view-cone polygon for the current position and calibrated heading.")
	getCone.AddRespStructure(ConeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getCone.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(getCone)

	// GET /api/landmarks/nearby
	getNearby, _ := r.NewOperationContext(http.MethodGet, "/api/landmarks/nearby")
	getNearby.SetSummary("Nearby landmarks")
	getNearby.SetDescription("Returns the round landmarks worth drawing around the player.")
	getNearby.AddRespStructure([]LandmarkPayload{}, openapi.WithHTTPStatus(http.StatusOK))
	getNearby.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(getNearby)

	// GET /api/calibration
	getCal, _ := r.NewOperationContext(http.MethodGet, "/api/calibration")
	getCal.SetSummary("Calibration state")
	getCal.AddRespStructure(CalibrationResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getCal)

	// POST /api/calibration/start
	postCal, _ := r.NewOperationContext(http.MethodPost, "/api/calibration/start")
	postCal.SetSummary("Start calibration")
	postCal.SetDescription("Begins a calibration walk; progress arrives on the state stream.")
	postCal.AddRespStructure(CalibrationResponse{}, openapi.WithHTTPStatus(http.StatusAccepted))
	postCal.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postCal)

	// POST /api/game/init
	postInit, _ := r.NewOperationContext(http.MethodPost, "/api/game/init")
	postInit.SetSummary("Initialize game")
	postInit.SetDescription("Registers the player's surroundings with the game service and loads the landmark set.")
	postInit.AddRespStructure(SessionPayload{}, openapi.WithHTTPStatus(http.StatusOK))
	postInit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postInit)

	// POST /api/round/start
	postStart, _ := r.NewOperationContext(http.MethodPost, "/api/round/start")
	postStart.SetSummary("Start round")
	postStart.SetDescription("Requests a riddle target and starts the countdown.")
	postStart.AddReqStructure(startRoundBody{})
	postStart.AddRespStructure(SessionPayload{}, openapi.WithHTTPStatus(http.StatusOK))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadGateway))
	_ = r.AddOperation(postStart)

	// POST /api/round/answer
	postAnswer, _ := r.NewOperationContext(http.MethodPost, "/api/round/answer")
	postAnswer.SetSummary("Submit answer")
	postAnswer.AddReqStructure(submitAnswerBody{})
	postAnswer.AddRespStructure(SessionPayload{}, openapi.WithHTTPStatus(http.StatusOK))
	postAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postAnswer)

	// POST /api/round/finish
	postFinish, _ := r.NewOperationContext(http.MethodPost, "/api/round/finish")
	postFinish.SetSummary("Finish round")
	postFinish.AddRespStructure(SessionPayload{}, openapi.WithHTTPStatus(http.StatusOK))
	postFinish.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postFinish)

	// POST /api/auth/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/auth/login")
	postLogin.SetSummary("Log in")
	postLogin.AddReqStructure(loginBody{})
	postLogin.AddRespStructure(LoginResult{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/auth/register
	postRegister, _ := r.NewOperationContext(http.MethodPost, "/api/auth/register")
	postRegister.SetSummary("Register")
	postRegister.AddReqStructure(registerBody{})
	postRegister.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusCreated))
	postRegister.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postRegister)

	// POST /api/auth/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/auth/logout")
	postLogout.SetSummary("Log out")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		json.NewEncoder(w).Encode(spec)
	}
}
