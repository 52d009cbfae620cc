package model

import "time"

// LiveClass is a scheduled session with a fixed number of seats.  The
// roster lives in `live_class_bookings`; EnrolledUsers is filled by reads
// that need it and is never longer than MaxParticipants.
type LiveClass struct {
	ID              uint64    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	StartsAt        time.Time `json:"scheduled_at"`
	Instructor      string    `json:"instructor"`
	MaxParticipants uint32    `json:"max_participants"`
	Thumbnail       string    `json:"thumbnail"`
	DurationMin     uint32    `json:"duration"`
	EnrolledUsers   []uint64  `json:"enrolled_users"`
	CreatedAt       time.Time `json:"created_at"`
}

// Booked reports whether userID is on the roster.
func (lc *LiveClass) Booked(userID uint64) bool {
	for _, id := range lc.EnrolledUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// Full reports whether the roster has reached capacity.
func (lc *LiveClass) Full() bool {
	return uint32(len(lc.EnrolledUsers)) >= lc.MaxParticipants
}
