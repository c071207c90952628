// Package gameapi is the HTTP client for the remote game service.
// Wire field names follow the service contract exactly; requests are
// plain JSON POSTs with no retries and no request-level timeout beyond
// what the caller's context and http.Client impose.
package gameapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// StatusError is returned for any non-2xx service response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("game service returned %d: %s", e.Code, e.Body)
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the service at baseURL. httpClient may be
// nil, in which case http.DefaultClient is used.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

type PositionRequest struct {
	UserID           string  `json:"userId"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Angle            float64 `json:"angle"`
	SpanDeg          float64 `json:"spanDeg"`
	ConeRadiusMeters float64 `json:"coneRadiusMeters"`
}

type LandmarkDTO struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Coordinates [][]float64 `json:"coordinates"`
	Centroid    []float64   `json:"centroid,omitempty"`
}

type InitGameResponse struct {
	Landmarks []LandmarkDTO `json:"landmarks"`
}

type StartRoundRequest struct {
	UserID       string  `json:"userId"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Angle        float64 `json:"angle"`
	RadiusMeters float64 `json:"radiusMeters"`
	Language     string  `json:"language,omitempty"`
	Style        string  `json:"style,omitempty"`
}

type TargetDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Riddle       string `json:"riddle"`
	AttemptsLeft int    `json:"attemptsLeft"`
}

type SubmitAnswerRequest struct {
	UserID       string   `json:"userId"`
	SecondsUsed  int      `json:"secondsUsed"`
	CurrentAngle *float64 `json:"currentAngle,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
}

type SubmitAnswerResponse struct {
	IsCorrect    bool       `json:"isCorrect"`
	GameFinished bool       `json:"gameFinished"`
	Message      string     `json:"message"`
	Target       *TargetDTO `json:"target,omitempty"`
}

type FinishRoundResponse struct {
	Message string `json:"message"`
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type LoginResponse struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type RegisterRequest struct {
	Username          string `json:"username"`
	Password          string `json:"password"`
	Email             string `json:"email,omitempty"`
	PreferredLanguage string `json:"preferredLanguage,omitempty"`
	PreferredStyle    string `json:"preferredStyle,omitempty"`
}

func (c *Client) InitGame(ctx context.Context, req PositionRequest) (*InitGameResponse, error) {
	var resp InitGameResponse
	if err := c.post(ctx, "/api/game/init-game", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdatePosition is background telemetry; the service's ack body is
// not interesting to anyone.
func (c *Client) UpdatePosition(ctx context.Context, req PositionRequest) error {
	return c.post(ctx, "/api/game/update-position", req, nil)
}

func (c *Client) StartRound(ctx context.Context, req StartRoundRequest) (*TargetDTO, error) {
	var resp TargetDTO
	if err := c.post(ctx, "/api/game/start-round", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SubmitAnswer(ctx context.Context, req SubmitAnswerRequest) (*SubmitAnswerResponse, error) {
	var resp SubmitAnswerResponse
	if err := c.post(ctx, "/api/game/submit-answer", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) FinishRound(ctx context.Context, userID string) (*FinishRoundResponse, error) {
	var resp FinishRoundResponse
	body := map[string]string{"userId": userID}
	if err := c.post(ctx, "/api/game/finish-round", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.post(ctx, "/api/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.post(ctx, "/api/auth/register", req, nil)
}

// Ping checks service reachability for health reporting.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("pinging game service: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
