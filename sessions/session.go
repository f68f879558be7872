package sessions

import "time"

// SessionData is an opaque server-side session record. The ID carries no
// claims; all state lives on the server. Expiry is purely time based: once a
// session reads as expired it stays expired unless ExtendExpiration is called
// explicitly before that point.
type SessionData struct {
	ID           string         `json:"session_id"`
	UserID       string         `json:"user_id"`
	CreatedAt    time.Time      `json:"created_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
	LastActivity time.Time      `json:"last_activity"`
	IPAddress    string         `json:"ip_address,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// IsExpired reports whether the session has passed its expiry.
func (s *SessionData) IsExpired() bool {
	return s.IsExpiredAt(time.Now())
}

// IsExpiredAt reports expiry against an explicit clock reading.
func (s *SessionData) IsExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// IsActive is the inverse of IsExpired.
func (s *SessionData) IsActive() bool {
	return !s.IsExpired()
}

// UpdateActivity records the given time as the last activity.
func (s *SessionData) UpdateActivity(now time.Time) {
	s.LastActivity = now
}

// ExtendExpiration pushes the expiry forward by duration.
func (s *SessionData) ExtendExpiration(duration time.Duration) {
	s.ExpiresAt = s.ExpiresAt.Add(duration)
}
