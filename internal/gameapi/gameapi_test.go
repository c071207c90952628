package gameapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func testService(t *testing.T) (*Client, *chi.Mux) {
	t.Helper()
	r := chi.NewRouter()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return New(srv.URL, srv.Client()), r
}

func TestInitGameWireFormat(t *testing.T) {
	client, r := testService(t)

	var got map[string]any
	r.Post("/api/game/init-game", func(w http.ResponseWriter, req *http.Request) {
		json.NewDecoder(req.Body).Decode(&got)
		json.NewEncoder(w).Encode(InitGameResponse{
			Landmarks: []LandmarkDTO{{
				ID:          "lm1",
				Name:        "Shandon Bells",
				Coordinates: [][]float64{{51.9, -8.47}, {51.901, -8.47}},
				Centroid:    []float64{51.9005, -8.47},
			}},
		})
	})

	resp, err := client.InitGame(context.Background(), PositionRequest{
		UserID:           "u1",
		Latitude:         52.0,
		Longitude:        -8.0,
		Angle:            45,
		SpanDeg:          60,
		ConeRadiusMeters: 100,
	})
	if err != nil {
		t.Fatalf("init game: %v", err)
	}

	// The service contract uses these exact field names.
	for _, field := range []string{"userId", "latitude", "longitude", "angle", "spanDeg", "coneRadiusMeters"} {
		if _, ok := got[field]; !ok {
			t.Errorf("request body missing %q: %v", field, got)
		}
	}
	if len(resp.Landmarks) != 1 || resp.Landmarks[0].ID != "lm1" {
		t.Fatalf("unexpected landmarks: %+v", resp.Landmarks)
	}
}

func TestStartRound(t *testing.T) {
	client, r := testService(t)

	r.Post("/api/game/start-round", func(w http.ResponseWriter, req *http.Request) {
		var body StartRoundRequest
		json.NewDecoder(req.Body).Decode(&body)
		if body.Language != "english" || body.Style != "medieval" {
			t.Errorf("unexpected request: %+v", body)
		}
		json.NewEncoder(w).Encode(TargetDTO{
			ID: "t1", Name: "Fountain", Riddle: "Where water sings", AttemptsLeft: 3,
		})
	})

	target, err := client.StartRound(context.Background(), StartRoundRequest{
		UserID: "u1", Latitude: 52, Longitude: -8, Angle: 10,
		RadiusMeters: 500, Language: "english", Style: "medieval",
	})
	if err != nil {
		t.Fatalf("start round: %v", err)
	}
	if target.AttemptsLeft != 3 || target.Riddle == "" {
		t.Fatalf("unexpected target: %+v", target)
	}
}

func TestStatusError(t *testing.T) {
	client, r := testService(t)

	r.Post("/api/game/start-round", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "must be logged in to start round", http.StatusForbidden)
	})

	_, err := client.StartRound(context.Background(), StartRoundRequest{UserID: "guest-1"})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", se.Code)
	}
	if se.Body != "must be logged in to start round" {
		t.Fatalf("unexpected body: %q", se.Body)
	}
}

func TestSubmitAnswerOmitsAbsentOptionals(t *testing.T) {
	client, r := testService(t)

	var raw map[string]any
	r.Post("/api/game/submit-answer", func(w http.ResponseWriter, req *http.Request) {
		json.NewDecoder(req.Body).Decode(&raw)
		json.NewEncoder(w).Encode(SubmitAnswerResponse{IsCorrect: true, GameFinished: true, Message: "done"})
	})

	resp, err := client.SubmitAnswer(context.Background(), SubmitAnswerRequest{UserID: "u1", SecondsUsed: 30})
	if err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if !resp.GameFinished {
		t.Fatalf("unexpected response: %+v", resp)
	}
	for _, field := range []string{"currentAngle", "latitude", "longitude"} {
		if _, ok := raw[field]; ok {
			t.Errorf("expected %q to be omitted when unset", field)
		}
	}
}

func TestFinishRound(t *testing.T) {
	client, r := testService(t)

	r.Post("/api/game/finish-round", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		json.NewDecoder(req.Body).Decode(&body)
		if body["userId"] != "u1" {
			t.Errorf("unexpected body: %v", body)
		}
		json.NewEncoder(w).Encode(FinishRoundResponse{Message: "Game session ended."})
	})

	resp, err := client.FinishRound(context.Background(), "u1")
	if err != nil {
		t.Fatalf("finish round: %v", err)
	}
	if resp.Message == "" {
		t.Fatal("expected ack message")
	}
}

func TestLogin(t *testing.T) {
	client, r := testService(t)

	r.Post("/api/auth/login", func(w http.ResponseWriter, req *http.Request) {
		var body LoginRequest
		json.NewDecoder(req.Body).Decode(&body)
		if body.Identifier != "maria" || body.Password != "hunter2" {
			t.Errorf("unexpected credentials: %+v", body)
		}
		json.NewEncoder(w).Encode(LoginResponse{
			UserID: "u42", Username: "maria", Email: "m@example.com", Role: "player",
		})
	})

	resp, err := client.Login(context.Background(), LoginRequest{Identifier: "maria", Password: "hunter2"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.UserID != "u42" || resp.Role != "player" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
