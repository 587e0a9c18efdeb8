package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dcastillo/friendhub/internal/models"
)

// SuggestionService computes which users may be proposed as new friends.
// Pure reads: the exclusion set is the user plus everyone already related to
// them (pending or accepted, either direction).
type SuggestionService struct {
	db DB
}

func NewSuggestionService(db DB) *SuggestionService {
	return &SuggestionService{db: db}
}

// Suggest returns up to limit candidate users ordered by id ascending, so
// repeated calls page deterministically while the data is unchanged. The
// exclusion set is returned alongside so callers can keep suggested and
// browse-all results disjoint.
func (s *SuggestionService) Suggest(ctx context.Context, userID uuid.UUID, limit int) ([]models.UserSummary, []uuid.UUID, error) {
	excluded, err := s.exclusionSet(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	candidates, err := s.candidates(ctx, excluded, limit)
	if err != nil {
		return nil, nil, err
	}
	return candidates, excluded, nil
}

// BrowseAll returns every user outside the exclusion set and excludeAlso,
// same ordering as Suggest. excludeAlso is typically the ids already surfaced
// as suggestions on the same screen.
func (s *SuggestionService) BrowseAll(ctx context.Context, userID uuid.UUID, excludeAlso []uuid.UUID) ([]models.UserSummary, error) {
	excluded, err := s.exclusionSet(ctx, userID)
	if err != nil {
		return nil, err
	}
	excluded = append(excluded, excludeAlso...)

	return s.candidates(ctx, excluded, 0)
}

func (s *SuggestionService) exclusionSet(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var exists bool
	err := s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)", userID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("resolving user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	rows, err := s.db.Query(ctx,
		`SELECT CASE WHEN requester_id = $1 THEN recipient_id ELSE requester_id END
		 FROM relationships
		 WHERE requester_id = $1 OR recipient_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading related users: %w", err)
	}
	defer rows.Close()

	excluded := []uuid.UUID{userID}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning related user: %w", err)
		}
		excluded = append(excluded, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading related users: %w", err)
	}

	return excluded, nil
}

func (s *SuggestionService) candidates(ctx context.Context, excluded []uuid.UUID, limit int) ([]models.UserSummary, error) {
	query := `SELECT id, display_name, email, avatar_url
	          FROM users
	          WHERE NOT (id = ANY($1))
	          ORDER BY id`
	args := []any{excluded}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("loading candidates: %w", err)
	}
	defer rows.Close()

	var users []models.UserSummary
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.Email, &u.AvatarURL); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading candidates: %w", err)
	}

	if users == nil {
		users = []models.UserSummary{}
	}
	return users, nil
}
