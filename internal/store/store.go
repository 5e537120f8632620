package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/AdityaTeltia/lyzr-agent-craft/internal/models"
)

// ErrEmailTaken is returned when a user with the same email already exists.
var ErrEmailTaken = errors.New("email already registered")

// UserStore defines persistent storage of dashboard accounts.
// Both PostgresStore and SQLiteStore implement this interface.
type UserStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// User operations. Lookups return (nil, nil) when nothing matches.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

// SessionStore holds sign-in sessions and the flash notices queued on them.
// RedisStore and MemorySessionStore implement this interface.
type SessionStore interface {
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error

	PushNotice(ctx context.Context, sessionID uuid.UUID, notice models.Notice) error
	PopNotices(ctx context.Context, sessionID uuid.UUID) ([]models.Notice, error)
}
