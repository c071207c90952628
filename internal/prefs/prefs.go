// Package prefs is the client's local key-value storage: user identity,
// role, and the persisted calibration offset. Backed by SQLite via
// libSQL so a crash or restart never loses a calibration walk.
package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/scavengerhunt/huntclient/internal/hunt"
)

const (
	keyUserID   = "userId"
	keyUsername = "username"
	keyRole     = "role"
)

type Store struct {
	db *sql.DB
}

// Open connects to the prefs database at path (":memory:" in tests),
// configures it for concurrent use and applies pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening prefs database: %w", err)
	}

	// libSQL rejects Exec for PRAGMAs that return rows; QueryContext
	// with drained rows handles both kinds uniformly.
	for _, p := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		rows, err := db.QueryContext(ctx, p)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("executing %s: %w", p, err)
		}
		rows.Close()
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating prefs database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Check reports database reachability for the health endpoint.
func (s *Store) Check(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM prefs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading pref %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prefs (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("writing pref %s: %w", key, err)
	}
	return nil
}

func (s *Store) delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM prefs WHERE key = ?`, key); err != nil {
			return fmt.Errorf("deleting pref %s: %w", key, err)
		}
	}
	return nil
}

func (s *Store) UserID(ctx context.Context) (string, error) {
	return s.get(ctx, keyUserID)
}

func (s *Store) SetUserID(ctx context.Context, userID string) error {
	return s.set(ctx, keyUserID, userID)
}

// EnsureUserID returns the stored user id, minting a guest identity on
// first run. Guest ids carry the "guest-" prefix the service keys on.
func (s *Store) EnsureUserID(ctx context.Context) (string, error) {
	id, err := s.UserID(ctx)
	if err != nil || id != "" {
		return id, err
	}
	id = "guest-" + uuid.NewString()
	if err := s.SetUserID(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Username(ctx context.Context) (string, error) {
	return s.get(ctx, keyUsername)
}

func (s *Store) SetUsername(ctx context.Context, username string) error {
	return s.set(ctx, keyUsername, username)
}

// Role returns the stored role, defaulting to guest when absent or
// unparseable.
func (s *Store) Role(ctx context.Context) (hunt.Role, error) {
	raw, err := s.get(ctx, keyRole)
	if err != nil {
		return hunt.RoleGuest, err
	}
	if raw == "" {
		return hunt.RoleGuest, nil
	}
	role, err := hunt.ParseRole(raw)
	if err != nil {
		return hunt.RoleGuest, nil
	}
	return role, nil
}

func (s *Store) SetRole(ctx context.Context, role hunt.Role) error {
	return s.set(ctx, keyRole, string(role))
}

func offsetKey(userID string) string { return "calibrationOffset:" + userID }

// CalibrationOffset returns the persisted offset for userID, nil when
// that user never calibrated.
func (s *Store) CalibrationOffset(ctx context.Context, userID string) (*float64, error) {
	raw, err := s.get(ctx, offsetKey(userID))
	if err != nil || raw == "" {
		return nil, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing stored calibration offset: %w", err)
	}
	return &v, nil
}

func (s *Store) SetCalibrationOffset(ctx context.Context, userID string, offsetDeg float64) error {
	return s.set(ctx, offsetKey(userID), strconv.FormatFloat(offsetDeg, 'f', -1, 64))
}

func (s *Store) ClearCalibrationOffset(ctx context.Context, userID string) error {
	return s.delete(ctx, offsetKey(userID))
}

// ClearUserData removes the stored identity on logout. The calibration
// offset goes with it; a new login re-calibrates.
func (s *Store) ClearUserData(ctx context.Context) error {
	userID, err := s.UserID(ctx)
	if err != nil {
		return err
	}
	keys := []string{keyUserID, keyUsername, keyRole}
	if userID != "" {
		keys = append(keys, offsetKey(userID))
	}
	return s.delete(ctx, keys...)
}
