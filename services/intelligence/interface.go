// File: services/intelligence/interface.go
package intelligence

import (
	"context"
	"errors"

	"ragdesk/models"
)

// ErrSessionNotFound is returned by Load when no session exists for the id.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists conversation sessions between requests.
type SessionStore interface {
	Load(ctx context.Context, id string) (*models.ConversationSession, error)
	Save(ctx context.Context, sess *models.ConversationSession) error
	Delete(ctx context.Context, id string) error
}
