package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/dcastillo/friendhub/internal/models"
)

type mockFriendService struct {
	SendRequestFunc         func(ctx context.Context, requesterID, recipientID uuid.UUID) (*models.Relationship, error)
	AcceptFunc              func(ctx context.Context, initiatorID, counterpartID uuid.UUID) (*models.Relationship, error)
	RemoveFunc              func(ctx context.Context, initiatorID, counterpartID uuid.UUID) error
	ListFriendsFunc         func(ctx context.Context, userID uuid.UUID) ([]models.FriendSummary, error)
	ListPendingRequestsFunc func(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error)
	ListSentRequestsFunc    func(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error)
	IsFriendFunc            func(ctx context.Context, userID, otherUserID uuid.UUID) (bool, error)
}

func (m *mockFriendService) SendRequest(ctx context.Context, requesterID, recipientID uuid.UUID) (*models.Relationship, error) {
	return m.SendRequestFunc(ctx, requesterID, recipientID)
}

func (m *mockFriendService) Accept(ctx context.Context, initiatorID, counterpartID uuid.UUID) (*models.Relationship, error) {
	return m.AcceptFunc(ctx, initiatorID, counterpartID)
}

func (m *mockFriendService) Remove(ctx context.Context, initiatorID, counterpartID uuid.UUID) error {
	return m.RemoveFunc(ctx, initiatorID, counterpartID)
}

func (m *mockFriendService) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.FriendSummary, error) {
	return m.ListFriendsFunc(ctx, userID)
}

func (m *mockFriendService) ListPendingRequests(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error) {
	return m.ListPendingRequestsFunc(ctx, userID)
}

func (m *mockFriendService) ListSentRequests(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error) {
	return m.ListSentRequestsFunc(ctx, userID)
}

func (m *mockFriendService) IsFriend(ctx context.Context, userID, otherUserID uuid.UUID) (bool, error) {
	return m.IsFriendFunc(ctx, userID, otherUserID)
}

type mockSuggestionService struct {
	SuggestFunc   func(ctx context.Context, userID uuid.UUID, limit int) ([]models.UserSummary, []uuid.UUID, error)
	BrowseAllFunc func(ctx context.Context, userID uuid.UUID, excludeAlso []uuid.UUID) ([]models.UserSummary, error)
}

func (m *mockSuggestionService) Suggest(ctx context.Context, userID uuid.UUID, limit int) ([]models.UserSummary, []uuid.UUID, error) {
	return m.SuggestFunc(ctx, userID, limit)
}

func (m *mockSuggestionService) BrowseAll(ctx context.Context, userID uuid.UUID, excludeAlso []uuid.UUID) ([]models.UserSummary, error) {
	return m.BrowseAllFunc(ctx, userID, excludeAlso)
}

type mockUserService struct {
	CreateFunc     func(ctx context.Context, params models.CreateUserParams) (*models.User, error)
	GetByIDFunc    func(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmailFunc func(ctx context.Context, email string) (*models.User, error)
}

func (m *mockUserService) Create(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	return m.CreateFunc(ctx, params)
}

func (m *mockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockUserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.GetByEmailFunc(ctx, email)
}

type mockAuthService struct {
	HashPasswordFunc    func(password string) (string, error)
	VerifyPasswordFunc  func(hash, password string) bool
	CreateSessionFunc   func(ctx context.Context, userID uuid.UUID) (string, error)
	ValidateSessionFunc func(ctx context.Context, token string) (*models.User, error)
	DeleteSessionFunc   func(ctx context.Context, token string) error
}

func (m *mockAuthService) HashPassword(password string) (string, error) {
	return m.HashPasswordFunc(password)
}

func (m *mockAuthService) VerifyPassword(hash, password string) bool {
	return m.VerifyPasswordFunc(hash, password)
}

func (m *mockAuthService) CreateSession(ctx context.Context, userID uuid.UUID) (string, error) {
	return m.CreateSessionFunc(ctx, userID)
}

func (m *mockAuthService) ValidateSession(ctx context.Context, token string) (*models.User, error) {
	return m.ValidateSessionFunc(ctx, token)
}

func (m *mockAuthService) DeleteSession(ctx context.Context, token string) error {
	return m.DeleteSessionFunc(ctx, token)
}

func testUser() *models.User {
	return &models.User{
		ID:          uuid.New(),
		Email:       "user@test.com",
		DisplayName: "Test User",
	}
}

func withUser(r *http.Request, user *models.User) *http.Request {
	return r.WithContext(SetUserInContext(r.Context(), user))
}

func assertErrorResponse(t *testing.T, rr *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected status %d, got %d. Body: %s", status, rr.Code, rr.Body.String())
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parsing error response: %v", err)
	}
	if resp.Error == "" {
		t.Error("expected a non-empty error message")
	}
}
