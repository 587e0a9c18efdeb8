package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/dcastillo/friendhub/internal/models"
)

// Notifier delivers an event to every live channel of the target user.
// Implementations must never block the caller; absence of a live channel is a
// silent no-op.
type Notifier interface {
	Publish(userID uuid.UUID, event models.Event)
}

// UserServiceInterface defines the contract for user operations.
type UserServiceInterface interface {
	Create(ctx context.Context, params models.CreateUserParams) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthServiceInterface defines the contract for authentication operations.
type AuthServiceInterface interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hash, password string) bool
	CreateSession(ctx context.Context, userID uuid.UUID) (token string, err error)
	ValidateSession(ctx context.Context, token string) (*models.User, error)
	DeleteSession(ctx context.Context, token string) error
}

// FriendServiceInterface defines the contract for relationship operations.
type FriendServiceInterface interface {
	SendRequest(ctx context.Context, requesterID, recipientID uuid.UUID) (*models.Relationship, error)
	Accept(ctx context.Context, initiatorID, counterpartID uuid.UUID) (*models.Relationship, error)
	Remove(ctx context.Context, initiatorID, counterpartID uuid.UUID) error
	ListFriends(ctx context.Context, userID uuid.UUID) ([]models.FriendSummary, error)
	ListPendingRequests(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error)
	ListSentRequests(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error)
	IsFriend(ctx context.Context, userID, otherUserID uuid.UUID) (bool, error)
}

// SuggestionServiceInterface defines the contract for candidate selection.
type SuggestionServiceInterface interface {
	Suggest(ctx context.Context, userID uuid.UUID, limit int) ([]models.UserSummary, []uuid.UUID, error)
	BrowseAll(ctx context.Context, userID uuid.UUID, excludeAlso []uuid.UUID) ([]models.UserSummary, error)
}
