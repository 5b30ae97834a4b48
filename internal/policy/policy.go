// Package policy centralizes the access and lifecycle rules for courses and
// live sessions. Every function is pure: callers fetch the relevant rows and
// pass them in, so the same rules apply identically in every handler.
package policy

import (
	"time"

	"github.com/darsplatform/darsacademy-backend/internal/entity"
	"github.com/google/uuid"
)

// SessionStatus is derived from the clock; it is never stored.
type SessionStatus string

const (
	StatusNotStarted SessionStatus = "not_started"
	StatusActive     SessionStatus = "active"
	StatusEnded      SessionStatus = "ended"
)

// CourseIsFree reports whether a course grants access without a purchase.
// A nil or zero price means free.
func CourseIsFree(price *int) bool {
	return price == nil || *price == 0
}

// HasCourseAccess decides read access to a course for a student: the course
// is free, or one of the given purchase rows is an ACTIVE purchase of it by
// the user.
func HasCourseAccess(course *entity.Course, userID uuid.UUID, purchases []entity.Purchase) bool {
	if course == nil {
		return false
	}
	if CourseIsFree(course.Price) {
		return true
	}
	for _, p := range purchases {
		if p.UserID == userID && p.CourseID == course.ID && p.Status == entity.PurchaseActive {
			return true
		}
	}
	return false
}

// Status derives the temporal state of a session. Both boundaries count as
// active: at exactly startDate the session has started, at exactly endDate
// it has not yet ended.
func Status(now, start time.Time, end *time.Time) SessionStatus {
	if now.Before(start) {
		return StatusNotStarted
	}
	if end != nil && now.After(*end) {
		return StatusEnded
	}
	return StatusActive
}

// NotEnded keeps a session in student-facing listings: upcoming and running
// sessions stay, only sessions whose end date has passed drop out.
func NotEnded(now, start time.Time, end *time.Time) bool {
	return Status(now, start, end) != StatusEnded
}

// SessionVisible decides whether a student may see a session at all. The
// session must be published, and either be free itself or the student must
// have access to a linked course.
func SessionVisible(session *entity.LiveSession, hasCourseAccess bool) bool {
	if session == nil || !session.IsPublished {
		return false
	}
	return session.IsFree || hasCourseAccess
}

// CanManageSession gates update, delete, publish-toggle and teacher reads of
// an existing session: admins always, teachers when they own at least one of
// the linked courses.
func CanManageSession(role string, userID uuid.UUID, courseOwners []uuid.UUID) bool {
	if role == entity.RoleAdmin {
		return true
	}
	if role != entity.RoleTeacher {
		return false
	}
	for _, owner := range courseOwners {
		if owner == userID {
			return true
		}
	}
	return false
}

// CanCreateSession gates session creation: admins always, teachers only when
// they own every supplied course. Deliberately stricter than
// CanManageSession; creation binds courses to a session, so a teacher may
// not attach someone else's course.
func CanCreateSession(role string, userID uuid.UUID, courseOwners []uuid.UUID) bool {
	if role == entity.RoleAdmin {
		return true
	}
	if role != entity.RoleTeacher || len(courseOwners) == 0 {
		return false
	}
	for _, owner := range courseOwners {
		if owner != userID {
			return false
		}
	}
	return true
}

// ValidLinkType reports whether the meeting provider is supported.
func ValidLinkType(linkType string) bool {
	return linkType == entity.LinkTypeZoom || linkType == entity.LinkTypeGoogleMeet
}
