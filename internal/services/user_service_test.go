package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dcastillo/friendhub/internal/models"
)

func TestUserService_Create_Success(t *testing.T) {
	userID := uuid.New()
	now := time.Now()

	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(userID, "alice@test.com", "hash", "Alice", nil, now, now)
		},
	}
	svc := NewUserService(db)

	user, err := svc.Create(context.Background(), models.CreateUserParams{
		Email:        "alice@test.com",
		PasswordHash: "hash",
		DisplayName:  "Alice",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != userID || user.Email != "alice@test.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestUserService_Create_DuplicateEmail(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return &fakeRow{err: uniqueViolation()}
		},
	}
	svc := NewUserService(db)

	_, err := svc.Create(context.Background(), models.CreateUserParams{Email: "dupe@test.com"})
	if !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestUserService_GetByID_NotFound(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return &fakeRow{err: pgx.ErrNoRows}
		},
	}
	svc := NewUserService(db)

	_, err := svc.GetByID(context.Background(), uuid.New())
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_GetByEmail(t *testing.T) {
	userID := uuid.New()
	now := time.Now()

	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(userID, "bob@test.com", "hash", "Bob", nil, now, now)
		},
	}
	svc := NewUserService(db)

	user, err := svc.GetByEmail(context.Background(), "bob@test.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.DisplayName != "Bob" {
		t.Fatalf("unexpected user: %+v", user)
	}
}
