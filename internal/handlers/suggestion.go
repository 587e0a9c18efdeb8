package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/dcastillo/friendhub/internal/logging"
	"github.com/dcastillo/friendhub/internal/models"
	"github.com/dcastillo/friendhub/internal/services"
)

// suggestedLimit is how many candidates the suggestion strip shows before the
// browse-all list takes over.
const suggestedLimit = 3

type SuggestionHandler struct {
	suggestionService services.SuggestionServiceInterface
}

func NewSuggestionHandler(suggestionService services.SuggestionServiceInterface) *SuggestionHandler {
	return &SuggestionHandler{suggestionService: suggestionService}
}

type CandidatesResponse struct {
	SuggestedUsers []models.UserSummary `json:"suggested_users"`
	Users          []models.UserSummary `json:"users"`
}

// Candidates returns a short suggestion strip plus every other user still
// eligible to be added, with no overlap between the two lists.
func (h *SuggestionHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	suggested, _, err := h.suggestionService.Suggest(r.Context(), user.ID, suggestedLimit)
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		logging.Error("Failed to load suggestions", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	suggestedIDs := make([]uuid.UUID, 0, len(suggested))
	for _, u := range suggested {
		suggestedIDs = append(suggestedIDs, u.ID)
	}

	others, err := h.suggestionService.BrowseAll(r.Context(), user.ID, suggestedIDs)
	if err != nil {
		logging.Error("Failed to browse candidates", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, CandidatesResponse{
		SuggestedUsers: suggested,
		Users:          others,
	})
}
