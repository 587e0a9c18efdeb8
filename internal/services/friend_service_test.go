package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dcastillo/friendhub/internal/models"
)

type publishedEvent struct {
	userID uuid.UUID
	event  models.Event
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (n *recordingNotifier) Publish(userID uuid.UUID, event models.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, publishedEvent{userID: userID, event: event})
}

func (n *recordingNotifier) published() []publishedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]publishedEvent, len(n.events))
	copy(out, n.events)
	return out
}

func TestFriendService_SendRequest_Self(t *testing.T) {
	svc := NewFriendService(&fakeDB{}, nil)
	id := uuid.New()

	_, err := svc.SendRequest(context.Background(), id, id)
	if !errors.Is(err, ErrCannotFriendSelf) {
		t.Fatalf("expected ErrCannotFriendSelf, got %v", err)
	}
}

func TestFriendService_SendRequest_Success(t *testing.T) {
	requesterID := uuid.New()
	recipientID := uuid.New()
	relID := uuid.New()
	now := time.Now()

	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			if strings.Contains(sql, "INSERT INTO relationships") {
				return rowFromValues(relID, requesterID, recipientID, models.RelationshipStatusPending, now)
			}
			if strings.Contains(sql, "FROM users") {
				return rowFromValues(requesterID, "Alice", "alice@test.com", nil)
			}
			return &fakeRow{err: errors.New("unexpected query: " + sql)}
		},
	}
	notifier := &recordingNotifier{}
	svc := NewFriendService(db, notifier)

	rel, err := svc.SendRequest(context.Background(), requesterID, recipientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rel.ID != relID || rel.Status != models.RelationshipStatusPending {
		t.Fatalf("unexpected relationship: %+v", rel)
	}

	events := notifier.published()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].userID != recipientID {
		t.Errorf("expected event for recipient, got %s", events[0].userID)
	}
	if events[0].event.Type != models.EventFriendRequested {
		t.Errorf("expected %s, got %s", models.EventFriendRequested, events[0].event.Type)
	}
	payload, ok := events[0].event.Payload.(models.FriendRequestedPayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", events[0].event.Payload)
	}
	if payload.RequesterID != requesterID || payload.RequesterName != "Alice" {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestFriendService_SendRequest_Conflict(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return &fakeRow{err: uniqueViolation()}
		},
	}
	notifier := &recordingNotifier{}
	svc := NewFriendService(db, notifier)

	_, err := svc.SendRequest(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrRelationshipExists) {
		t.Fatalf("expected ErrRelationshipExists, got %v", err)
	}
	if len(notifier.published()) != 0 {
		t.Error("expected no events on conflict")
	}
}

func TestFriendService_SendRequest_UnknownRecipient(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return &fakeRow{err: foreignKeyViolation()}
		},
	}
	svc := NewFriendService(db, nil)

	_, err := svc.SendRequest(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestFriendService_SendRequest_NotifyLookupFailureDoesNotFail(t *testing.T) {
	requesterID := uuid.New()
	recipientID := uuid.New()

	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			if strings.Contains(sql, "INSERT INTO relationships") {
				return rowFromValues(uuid.New(), requesterID, recipientID, models.RelationshipStatusPending, time.Now())
			}
			return &fakeRow{err: errors.New("users table unavailable")}
		},
	}
	notifier := &recordingNotifier{}
	svc := NewFriendService(db, notifier)

	rel, err := svc.SendRequest(context.Background(), requesterID, recipientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rel == nil {
		t.Fatal("expected relationship despite notification failure")
	}
	if len(notifier.published()) != 0 {
		t.Error("expected no event when requester lookup fails")
	}
}

func TestFriendService_Accept_Success(t *testing.T) {
	requesterID := uuid.New()
	recipientID := uuid.New()
	relID := uuid.New()

	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			if strings.Contains(sql, "UPDATE relationships") {
				return rowFromValues(relID, requesterID, recipientID, models.RelationshipStatusAccepted, time.Now())
			}
			return &fakeRow{err: errors.New("unexpected query")}
		},
	}
	notifier := &recordingNotifier{}
	svc := NewFriendService(db, notifier)

	// The recipient accepts; the requester is the counterpart.
	rel, err := svc.Accept(context.Background(), recipientID, requesterID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rel.Status != models.RelationshipStatusAccepted {
		t.Fatalf("expected accepted, got %s", rel.Status)
	}

	events := notifier.published()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].userID != requesterID {
		t.Errorf("expected event for requester, got %s", events[0].userID)
	}
	if events[0].event.Type != models.EventFriendAccepted {
		t.Errorf("expected %s, got %s", models.EventFriendAccepted, events[0].event.Type)
	}
	payload := events[0].event.Payload.(models.CounterpartPayload)
	if payload.CounterpartID != recipientID {
		t.Errorf("expected counterpart %s, got %s", recipientID, payload.CounterpartID)
	}
}

func TestFriendService_Accept_AlreadyAcceptedIsNoOp(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	relID := uuid.New()

	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			if strings.Contains(sql, "UPDATE relationships") {
				return &fakeRow{err: pgx.ErrNoRows}
			}
			return rowFromValues(relID, a, b, models.RelationshipStatusAccepted, time.Now())
		},
	}
	notifier := &recordingNotifier{}
	svc := NewFriendService(db, notifier)

	rel, err := svc.Accept(context.Background(), a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rel.ID != relID {
		t.Fatalf("expected existing relationship, got %+v", rel)
	}
	if len(notifier.published()) != 0 {
		t.Error("expected no event when state did not change")
	}
}

func TestFriendService_Accept_NoRelationship(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return &fakeRow{err: pgx.ErrNoRows}
		},
	}
	svc := NewFriendService(db, nil)

	_, err := svc.Accept(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrRelationshipNotFound) {
		t.Fatalf("expected ErrRelationshipNotFound, got %v", err)
	}
}

func TestFriendService_Remove_Success(t *testing.T) {
	initiatorID := uuid.New()
	counterpartID := uuid.New()

	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			return fakeCommandTag{rows: 1}, nil
		},
	}
	notifier := &recordingNotifier{}
	svc := NewFriendService(db, notifier)

	if err := svc.Remove(context.Background(), initiatorID, counterpartID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events := notifier.published()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].userID != counterpartID {
		t.Errorf("expected event for counterpart, got %s", events[0].userID)
	}
	if events[0].event.Type != models.EventFriendRemoved {
		t.Errorf("expected %s, got %s", models.EventFriendRemoved, events[0].event.Type)
	}
}

func TestFriendService_Remove_NotFound(t *testing.T) {
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			return fakeCommandTag{rows: 0}, nil
		},
	}
	notifier := &recordingNotifier{}
	svc := NewFriendService(db, notifier)

	err := svc.Remove(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrRelationshipNotFound) {
		t.Fatalf("expected ErrRelationshipNotFound, got %v", err)
	}
	if len(notifier.published()) != 0 {
		t.Error("expected no event when nothing was removed")
	}
}

func TestFriendService_ListFriends(t *testing.T) {
	userID := uuid.New()
	friendID := uuid.New()
	relID := uuid.New()
	since := time.Now()

	db := &fakeDB{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
			return &fakeRows{rows: [][]any{
				{relID, since, friendID, "Bob", "bob@test.com", nil},
			}}, nil
		},
	}
	svc := NewFriendService(db, nil)

	friends, err := svc.ListFriends(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(friends) != 1 {
		t.Fatalf("expected 1 friend, got %d", len(friends))
	}
	if friends[0].RelationshipID != relID || friends[0].User.DisplayName != "Bob" {
		t.Fatalf("unexpected friend: %+v", friends[0])
	}
}

func TestFriendService_ListFriends_EmptyIsNotNil(t *testing.T) {
	db := &fakeDB{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
			return &fakeRows{}, nil
		},
	}
	svc := NewFriendService(db, nil)

	friends, err := svc.ListFriends(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if friends == nil {
		t.Fatal("expected empty slice, got nil")
	}
}

func TestFriendService_ListPendingRequests(t *testing.T) {
	userID := uuid.New()
	requesterID := uuid.New()

	var gotSQL string
	db := &fakeDB{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
			gotSQL = sql
			return &fakeRows{rows: [][]any{
				{uuid.New(), time.Now(), requesterID, "Carol", "carol@test.com", nil},
			}}, nil
		},
	}
	svc := NewFriendService(db, nil)

	requests, err := svc.ListPendingRequests(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(requests) != 1 || requests[0].User.ID != requesterID {
		t.Fatalf("unexpected requests: %+v", requests)
	}
	if !strings.Contains(gotSQL, "ORDER BY r.created_at DESC") {
		t.Error("expected newest-first ordering")
	}
}

func TestFriendService_ListSentRequests(t *testing.T) {
	userID := uuid.New()
	recipientID := uuid.New()

	var gotSQL string
	db := &fakeDB{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
			gotSQL = sql
			return &fakeRows{rows: [][]any{
				{uuid.New(), time.Now(), recipientID, "Dave", "dave@test.com", nil},
			}}, nil
		},
	}
	svc := NewFriendService(db, nil)

	sent, err := svc.ListSentRequests(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sent) != 1 || sent[0].User.ID != recipientID {
		t.Fatalf("unexpected sent requests: %+v", sent)
	}
	if !strings.Contains(gotSQL, "r.requester_id = $1") {
		t.Error("expected query keyed on requester")
	}
}

func TestFriendService_IsFriend(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(true)
		},
	}
	svc := NewFriendService(db, nil)

	ok, err := svc.IsFriend(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected friendship")
	}
}

// pairStore simulates the relationships table's unique constraint on the
// canonical pair so opposite-direction requests can race.
type pairStore struct {
	mu    sync.Mutex
	pairs map[string]bool
}

func pairKey(a, b uuid.UUID) string {
	if a.String() < b.String() {
		return a.String() + ":" + b.String()
	}
	return b.String() + ":" + a.String()
}

func (s *pairStore) insert(a, b uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(a, b)
	if s.pairs[key] {
		return uniqueViolation()
	}
	s.pairs[key] = true
	return nil
}

func TestFriendService_SendRequest_ConcurrentOppositeDirections(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	store := &pairStore{pairs: make(map[string]bool)}

	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			if strings.Contains(sql, "INSERT INTO relationships") {
				requester := args[0].(uuid.UUID)
				recipient := args[1].(uuid.UUID)
				if err := store.insert(requester, recipient); err != nil {
					return &fakeRow{err: err}
				}
				return rowFromValues(uuid.New(), requester, recipient, models.RelationshipStatusPending, time.Now())
			}
			if strings.Contains(sql, "FROM users") {
				return rowFromValues(args[0].(uuid.UUID), "User", "user@test.com", nil)
			}
			return &fakeRow{err: errors.New("unexpected query")}
		},
	}
	svc := NewFriendService(db, &recordingNotifier{})

	var wg sync.WaitGroup
	results := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, results[0] = svc.SendRequest(context.Background(), a, b)
	}()
	go func() {
		defer wg.Done()
		_, results[1] = svc.SendRequest(context.Background(), b, a)
	}()
	wg.Wait()

	var successes, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrRelationshipExists):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Fatalf("expected exactly one success and one conflict, got %d/%d", successes, conflicts)
	}
}
