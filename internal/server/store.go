package server

import (
	"context"
	"errors"

	"github.com/forkreel/forkreel/internal/guide"
	"github.com/forkreel/forkreel/internal/session"
)

var ErrNotFound = errors.New("not found")

// PatternSummary is the list view of a catalog entry.
type PatternSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Tier     string `json:"tier"`
	Category string `json:"category"`
	HasPack  bool   `json:"hasPack"`
}

type adminSession struct {
	AdminID string
	Email   string
}

type Store interface {
	// Sessions.
	CreateSession(ctx context.Context) (state *session.State, token string, err error)
	SessionFromToken(ctx context.Context, token string) (*session.State, error)
	SaveSession(ctx context.Context, state *session.State) error
	EndSession(ctx context.Context, sessionID string) error

	// Pattern catalog.
	GetPattern(ctx context.Context, id string) (guide.PatternResponse, error)
	ListPatterns(ctx context.Context) ([]PatternSummary, error)
	UpsertPattern(ctx context.Context, doc guide.PatternResponse) error
	DeletePattern(ctx context.Context, id string) error

	// Fire-and-forget analytics.
	LogIntervention(ctx context.Context, sessionID, runID, kind, payload string, elapsedMS int) error

	// Admin accounts and cookie sessions.
	AdminByEmail(ctx context.Context, email string) (adminID, passwordHash string, err error)
	EnsureAdmin(ctx context.Context, email, passwordHash string) error
	CreateAdminSession(ctx context.Context, adminID string) (sessionID string, err error)
	DeleteAdminSession(ctx context.Context, sessionID string) error
	AdminFromSession(ctx context.Context, sessionID string) (adminSession, error)
}
