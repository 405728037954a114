package models

import (
	"fmt"
	"time"
)

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusRejected RequestStatus = "rejected"
)

func ParseRequestStatus(s string) (RequestStatus, error) {
	switch st := RequestStatus(s); st {
	case StatusPending, StatusAccepted, StatusRejected:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// Terminal reports whether no further transition is allowed from s.
func (s RequestStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// CanTransition allows pending -> accepted and pending -> rejected only.
func CanTransition(from, to RequestStatus) bool {
	return from == StatusPending && to.Terminal()
}

type MeetupRequest struct {
	ID        string        `json:"id" db:"id"`
	FromID    string        `json:"from_id" db:"from_profile_id"`
	ToID      string        `json:"to_id" db:"to_profile_id"`
	Status    RequestStatus `json:"status" db:"status"`
	Message   string        `json:"message" db:"message"`
	Created   time.Time     `json:"created" db:"created"`
	Responded *time.Time    `json:"responded,omitempty" db:"responded"`
}

// MeetupView is a request joined with the current data of both profiles.
// From or To is nil when the referenced profile no longer exists.
type MeetupView struct {
	MeetupRequest
	From *Profile `json:"from_profile,omitempty"`
	To   *Profile `json:"to_profile,omitempty"`
}

func (v MeetupView) IsParticipant(profileID string) bool {
	return profileID != "" && (v.FromID == profileID || v.ToID == profileID)
}

// Counterpart returns the other party of the request as seen by viewerID.
func (v MeetupView) Counterpart(viewerID string) *Profile {
	if v.FromID == viewerID {
		return v.To
	}

	return v.From
}

type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// RequestCard is what one participant sees of a request.
type RequestCard struct {
	ID              string        `json:"id"`
	Direction       Direction     `json:"direction"`
	Status          RequestStatus `json:"status"`
	Message         string        `json:"message"`
	Created         time.Time     `json:"created"`
	Responded       *time.Time    `json:"responded,omitempty"`
	Partner         *Profile      `json:"partner"`
	PartnerPresence Presence      `json:"partner_presence"`
	RevealedHandle  string        `json:"revealed_handle,omitempty"`
	CanRespond      bool          `json:"can_respond"`
}

// ForViewer builds viewerID's card. The partner's handle is only revealed
// once the request is accepted.
func (v MeetupView) ForViewer(viewerID string, now time.Time) RequestCard {
	card := RequestCard{
		ID:              v.ID,
		Direction:       DirectionReceived,
		Status:          v.Status,
		Message:         v.Message,
		Created:         v.Created,
		Responded:       v.Responded,
		PartnerPresence: PresenceOffline,
		CanRespond:      v.ToID == viewerID && v.Status == StatusPending,
	}
	if v.FromID == viewerID {
		card.Direction = DirectionSent
	}

	if other := v.Counterpart(viewerID); other != nil {
		partner := other.WithDefaults().Redacted()
		card.Partner = &partner
		card.PartnerPresence = PresenceAt(other.LastActive, now)
		if v.Status == StatusAccepted {
			card.RevealedHandle = other.Handle
		}
	}

	return card
}
