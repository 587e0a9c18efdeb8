package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dcastillo/friendhub/internal/logging"
	"github.com/dcastillo/friendhub/internal/models"
)

var (
	ErrRelationshipNotFound = errors.New("relationship not found")
	ErrRelationshipExists   = errors.New("relationship already exists")
	ErrCannotFriendSelf     = errors.New("cannot send friend request to yourself")
)

// FriendService owns every legal transition of a relationship pair:
// none -> pending -> accepted, and any state back to none via Remove.
// Uniqueness over the unordered pair is enforced by the relationships table's
// (pair_lo, pair_hi) constraint, so concurrent requests in opposite directions
// cannot both commit.
type FriendService struct {
	db       DB
	notifier Notifier
}

func NewFriendService(db DB, notifier Notifier) *FriendService {
	return &FriendService{db: db, notifier: notifier}
}

// SendRequest creates a pending relationship from requester to recipient.
// The insert and the "no active relationship for this pair" check are a single
// atomic statement: a unique violation on the pair key means some relationship
// (pending or accepted, either direction) already exists.
func (s *FriendService) SendRequest(ctx context.Context, requesterID, recipientID uuid.UUID) (*models.Relationship, error) {
	if requesterID == recipientID {
		return nil, ErrCannotFriendSelf
	}

	rel := &models.Relationship{}
	err := s.db.QueryRow(ctx,
		`INSERT INTO relationships (requester_id, recipient_id, status)
		 VALUES ($1, $2, 'pending')
		 RETURNING id, requester_id, recipient_id, status, created_at`,
		requesterID, recipientID,
	).Scan(&rel.ID, &rel.RequesterID, &rel.RecipientID, &rel.Status, &rel.CreatedAt)
	if isUniqueViolation(err) {
		return nil, ErrRelationshipExists
	}
	if isForeignKeyViolation(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("creating relationship: %w", err)
	}

	s.notifyRequested(ctx, rel)
	return rel, nil
}

// Accept flips the pair's pending relationship to accepted, regardless of
// which side sent the original request. Accepting an already-accepted pair is
// a no-op success so duplicate client calls don't fail; the friend.accepted
// event is published only when state actually changed.
func (s *FriendService) Accept(ctx context.Context, initiatorID, counterpartID uuid.UUID) (*models.Relationship, error) {
	rel := &models.Relationship{}
	err := s.db.QueryRow(ctx,
		`UPDATE relationships
		 SET status = 'accepted'
		 WHERE pair_lo = LEAST($1::uuid, $2::uuid)
		   AND pair_hi = GREATEST($1::uuid, $2::uuid)
		   AND status = 'pending'
		 RETURNING id, requester_id, recipient_id, status, created_at`,
		initiatorID, counterpartID,
	).Scan(&rel.ID, &rel.RequesterID, &rel.RecipientID, &rel.Status, &rel.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		existing, getErr := s.getByPair(ctx, initiatorID, counterpartID)
		if getErr != nil {
			return nil, getErr
		}
		if existing.Status == models.RelationshipStatusAccepted {
			return existing, nil
		}
		return nil, ErrRelationshipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("accepting relationship: %w", err)
	}

	s.publish(counterpartID, models.NewFriendAccepted(initiatorID))
	return rel, nil
}

// Remove deletes whatever relationship exists for the pair. Rejecting a
// pending request, canceling one's own request, and ending an accepted
// friendship all collapse to this same none-producing transition.
func (s *FriendService) Remove(ctx context.Context, initiatorID, counterpartID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM relationships
		 WHERE pair_lo = LEAST($1::uuid, $2::uuid)
		   AND pair_hi = GREATEST($1::uuid, $2::uuid)`,
		initiatorID, counterpartID,
	)
	if err != nil {
		return fmt.Errorf("removing relationship: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRelationshipNotFound
	}

	// The initiator learns the outcome from this call's result; only the
	// counterpart needs a push.
	s.publish(counterpartID, models.NewFriendRemoved(initiatorID))
	return nil
}

func (s *FriendService) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.FriendSummary, error) {
	rows, err := s.db.Query(ctx,
		`SELECT r.id, r.created_at, u.id, u.display_name, u.email, u.avatar_url
		 FROM relationships r
		 JOIN users u ON u.id = CASE WHEN r.requester_id = $1 THEN r.recipient_id ELSE r.requester_id END
		 WHERE (r.requester_id = $1 OR r.recipient_id = $1) AND r.status = 'accepted'
		 ORDER BY u.display_name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing friends: %w", err)
	}
	defer rows.Close()

	var friends []models.FriendSummary
	for rows.Next() {
		var f models.FriendSummary
		if err := rows.Scan(&f.RelationshipID, &f.Since, &f.User.ID, &f.User.DisplayName, &f.User.Email, &f.User.AvatarURL); err != nil {
			return nil, fmt.Errorf("scanning friend: %w", err)
		}
		friends = append(friends, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing friends: %w", err)
	}

	if friends == nil {
		friends = []models.FriendSummary{}
	}
	return friends, nil
}

func (s *FriendService) ListPendingRequests(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error) {
	rows, err := s.db.Query(ctx,
		`SELECT r.id, r.created_at, u.id, u.display_name, u.email, u.avatar_url
		 FROM relationships r
		 JOIN users u ON u.id = r.requester_id
		 WHERE r.recipient_id = $1 AND r.status = 'pending'
		 ORDER BY r.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing pending requests: %w", err)
	}
	defer rows.Close()

	return scanPendingRequests(rows)
}

// ListSentRequests returns the pending requests userID has sent, newest first.
func (s *FriendService) ListSentRequests(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error) {
	rows, err := s.db.Query(ctx,
		`SELECT r.id, r.created_at, u.id, u.display_name, u.email, u.avatar_url
		 FROM relationships r
		 JOIN users u ON u.id = r.recipient_id
		 WHERE r.requester_id = $1 AND r.status = 'pending'
		 ORDER BY r.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sent requests: %w", err)
	}
	defer rows.Close()

	return scanPendingRequests(rows)
}

func (s *FriendService) IsFriend(ctx context.Context, userID, otherUserID uuid.UUID) (bool, error) {
	var isFriend bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM relationships
			WHERE pair_lo = LEAST($1::uuid, $2::uuid)
			  AND pair_hi = GREATEST($1::uuid, $2::uuid)
			  AND status = 'accepted'
		)`,
		userID, otherUserID,
	).Scan(&isFriend)
	if err != nil {
		return false, fmt.Errorf("checking friendship: %w", err)
	}
	return isFriend, nil
}

func (s *FriendService) getByPair(ctx context.Context, a, b uuid.UUID) (*models.Relationship, error) {
	rel := &models.Relationship{}
	err := s.db.QueryRow(ctx,
		`SELECT id, requester_id, recipient_id, status, created_at
		 FROM relationships
		 WHERE pair_lo = LEAST($1::uuid, $2::uuid)
		   AND pair_hi = GREATEST($1::uuid, $2::uuid)`,
		a, b,
	).Scan(&rel.ID, &rel.RequesterID, &rel.RecipientID, &rel.Status, &rel.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRelationshipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting relationship: %w", err)
	}
	return rel, nil
}

// notifyRequested loads the requester's profile and pushes friend.requested to
// the recipient. The relationship row is already committed by the time this
// runs, so a lookup failure only costs the push, never the state.
func (s *FriendService) notifyRequested(ctx context.Context, rel *models.Relationship) {
	if s.notifier == nil {
		return
	}

	requester := models.UserSummary{}
	err := s.db.QueryRow(ctx,
		`SELECT id, display_name, email, avatar_url FROM users WHERE id = $1`,
		rel.RequesterID,
	).Scan(&requester.ID, &requester.DisplayName, &requester.Email, &requester.AvatarURL)
	if err != nil {
		logging.Error("Failed to load requester for notification", map[string]interface{}{
			"error":        err.Error(),
			"requester_id": rel.RequesterID.String(),
		})
		return
	}

	s.notifier.Publish(rel.RecipientID, models.NewFriendRequested(requester))
}

func (s *FriendService) publish(userID uuid.UUID, event models.Event) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(userID, event)
}

func scanPendingRequests(rows Rows) ([]models.PendingRequest, error) {
	var requests []models.PendingRequest
	for rows.Next() {
		var r models.PendingRequest
		if err := rows.Scan(&r.RelationshipID, &r.CreatedAt, &r.User.ID, &r.User.DisplayName, &r.User.Email, &r.User.AvatarURL); err != nil {
			return nil, fmt.Errorf("scanning request: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading requests: %w", err)
	}

	if requests == nil {
		requests = []models.PendingRequest{}
	}
	return requests, nil
}
