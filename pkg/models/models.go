package models

// Domain models matching the database schema in db/migrations/0001_init.sql

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var (
	ErrInvalidRole       = errors.New("invalid role")
	ErrInvalidStatus     = errors.New("invalid request status")
	ErrInvalidTransition = errors.New("request status cannot change")
)

// Display defaults applied when a stored field is empty.
const (
	DefaultNickname     = "新伙伴"
	DefaultStatus       = "正在前行"
	DefaultLocationName = "未知区域"

	avatarBaseURL = "https://api.dicebear.com/7.x/big-smile/svg"
)

type Role string

const (
	RolePatient   Role = "patient"
	RoleCaregiver Role = "caregiver"
	RoleVolunteer Role = "volunteer"
)

var roleLabels = map[Role]map[string]string{
	RolePatient:   {"zh": "患者", "en": "patient"},
	RoleCaregiver: {"zh": "家属", "en": "caregiver"},
	RoleVolunteer: {"zh": "志愿者", "en": "volunteer"},
}

// ParseRole accepts the canonical role names and their Chinese labels.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	for role, labels := range roleLabels {
		if strings.EqualFold(s, string(role)) || s == labels["zh"] {
			return role, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

// Label returns the role name in the given base language ("zh" or "en").
// Unknown languages fall back to Chinese.
func (r Role) Label(lang string) string {
	labels, ok := roleLabels[r]
	if !ok {
		return string(r)
	}
	if l, ok := labels[lang]; ok {
		return l
	}

	return labels["zh"]
}

type Profile struct {
	ID           string    `json:"id" db:"id"`
	Nickname     string    `json:"nickname" db:"nickname"`
	Handle       string    `json:"handle,omitempty" db:"handle"`
	Role         Role      `json:"role" db:"role"`
	Status       string    `json:"status" db:"status"`
	LocationName string    `json:"location_name" db:"location_name"`
	LastLat      *float64  `json:"last_lat,omitempty" db:"last_lat"`
	LastLng      *float64  `json:"last_lng,omitempty" db:"last_lng"`
	LastActive   time.Time `json:"last_active" db:"last_active"`
	Avatar       string    `json:"avatar" db:"avatar"`
	Visible      bool      `json:"is_visible" db:"is_visible"`
	Created      time.Time `json:"created" db:"created"`
}

// WithDefaults returns a copy with empty display fields filled in.
func (p Profile) WithDefaults() Profile {
	if strings.TrimSpace(p.Nickname) == "" {
		p.Nickname = DefaultNickname
	}
	if strings.TrimSpace(p.Status) == "" {
		p.Status = DefaultStatus
	}
	if strings.TrimSpace(p.LocationName) == "" {
		p.LocationName = DefaultLocationName
	}
	if p.Avatar == "" {
		p.Avatar = AvatarURL(p.ID)
	}

	return p
}

// Redacted returns the public card: the contact handle is removed.
func (p Profile) Redacted() Profile {
	p.Handle = ""
	return p
}

// AvatarURL builds a generated avatar reference for seed.
func AvatarURL(seed string) string {
	q := url.Values{}
	q.Set("seed", seed)
	q.Set("backgroundColor", "b6e3f4")
	return avatarBaseURL + "?" + q.Encode()
}

type Presence string

const (
	PresenceOnline  Presence = "online"
	PresenceAway    Presence = "away"
	PresenceOffline Presence = "offline"
)

const (
	onlineWindow = 5 * time.Minute
	awayWindow   = 60 * time.Minute
)

// PresenceAt maps the age of lastActive at now onto a presence bucket.
func PresenceAt(lastActive, now time.Time) Presence {
	if lastActive.IsZero() {
		return PresenceOffline
	}

	age := now.Sub(lastActive)
	switch {
	case age <= onlineWindow:
		return PresenceOnline
	case age <= awayWindow:
		return PresenceAway
	default:
		return PresenceOffline
	}
}
