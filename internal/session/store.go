package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/plantstore/internal/domain"
	apperrors "github.com/utafrali/plantstore/pkg/errors"
)

const keyPrefix = "session:"

// Store keeps sessions in Redis as JSON user snapshots with a TTL.
type Store struct {
	client redis.Cmdable
	logger *slog.Logger
}

// NewStore creates a session store backed by client.
func NewStore(client redis.Cmdable, logger *slog.Logger) *Store {
	return &Store{client: client, logger: logger}
}

func key(id string) string {
	return keyPrefix + id
}

// Create stores a snapshot of user under a new session id that expires after ttl.
func (s *Store) Create(ctx context.Context, user *domain.User, ttl time.Duration) (*UserSession, error) {
	snapshot, err := json.Marshal(user.Public())
	if err != nil {
		return nil, fmt.Errorf("marshal session user: %w", err)
	}

	id := uuid.NewString()
	if err := s.client.Set(ctx, key(id), snapshot, ttl).Err(); err != nil {
		return nil, apperrors.Write("store session", err)
	}

	return New(id, user.Public()), nil
}

// Get loads a session. A missing or expired session matches
// apperrors.ErrNotFound. A snapshot without user id or email is deleted and
// reported as not found.
func (s *Store) Get(ctx context.Context, id string) (*UserSession, error) {
	raw, err := s.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.NotFound("session", id)
	}
	if err != nil {
		return nil, apperrors.Query("load session", err)
	}

	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil || user.ID == "" || user.Email == "" {
		s.logger.WarnContext(ctx, "discarding invalid session snapshot", slog.String("session_id", id))
		if delErr := s.Delete(ctx, id); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to delete invalid session",
				slog.String("session_id", id),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, apperrors.NotFound("session", id)
	}

	return New(id, &user), nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, key(id)).Err(); err != nil {
		return apperrors.Write("delete session", err)
	}
	return nil
}
