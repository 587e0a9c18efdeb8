package models

import "github.com/google/uuid"

type EventType string

const (
	EventFriendRequested EventType = "friend.requested"
	EventFriendAccepted  EventType = "friend.accepted"
	EventFriendRemoved   EventType = "friend.removed"
)

// Event is the wire shape delivered to a user's live channels.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

type FriendRequestedPayload struct {
	RequesterID        uuid.UUID `json:"requester_id"`
	RequesterName      string    `json:"requester_name"`
	RequesterAvatarURL *string   `json:"requester_avatar_url,omitempty"`
}

type CounterpartPayload struct {
	CounterpartID uuid.UUID `json:"counterpart_id"`
}

func NewFriendRequested(requester UserSummary) Event {
	return Event{
		Type: EventFriendRequested,
		Payload: FriendRequestedPayload{
			RequesterID:        requester.ID,
			RequesterName:      requester.DisplayName,
			RequesterAvatarURL: requester.AvatarURL,
		},
	}
}

func NewFriendAccepted(counterpartID uuid.UUID) Event {
	return Event{Type: EventFriendAccepted, Payload: CounterpartPayload{CounterpartID: counterpartID}}
}

func NewFriendRemoved(counterpartID uuid.UUID) Event {
	return Event{Type: EventFriendRemoved, Payload: CounterpartPayload{CounterpartID: counterpartID}}
}
