package models

import (
	"time"

	"github.com/google/uuid"
)

type RelationshipStatus string

const (
	RelationshipStatusPending  RelationshipStatus = "pending"
	RelationshipStatusAccepted RelationshipStatus = "accepted"
)

// Relationship is a directed friend proposal from a requester to a recipient.
// Absence of a row means the pair is unrelated; rejection and unfriending
// delete the row rather than parking it in a terminal status.
type Relationship struct {
	ID          uuid.UUID          `json:"id"`
	RequesterID uuid.UUID          `json:"requester_id"`
	RecipientID uuid.UUID          `json:"recipient_id"`
	Status      RelationshipStatus `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
}

type FriendSummary struct {
	RelationshipID uuid.UUID   `json:"relationship_id"`
	User           UserSummary `json:"user"`
	Since          time.Time   `json:"since"`
}

// PendingRequest annotates a pending relationship with the other party's
// profile: the requester when listing received requests, the recipient when
// listing sent ones.
type PendingRequest struct {
	RelationshipID uuid.UUID   `json:"relationship_id"`
	User           UserSummary `json:"user"`
	CreatedAt      time.Time   `json:"created_at"`
}
