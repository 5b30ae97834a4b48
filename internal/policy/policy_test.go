package policy

import (
	"testing"
	"time"

	"github.com/darsplatform/darsacademy-backend/internal/entity"
	"github.com/google/uuid"
)

func timePtr(t time.Time) *time.Time { return &t }
func intPtr(n int) *int              { return &n }

func TestStatus(t *testing.T) {
	start := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	tests := []struct {
		name string
		now  time.Time
		end  *time.Time
		want SessionStatus
	}{
		{"before start", start.Add(-time.Minute), timePtr(end), StatusNotStarted},
		{"exactly at start", start, timePtr(end), StatusActive},
		{"between start and end", start.Add(time.Hour), timePtr(end), StatusActive},
		{"exactly at end", end, timePtr(end), StatusActive},
		{"after end", end.Add(time.Nanosecond), timePtr(end), StatusEnded},
		{"no end date, long after start", start.Add(1000 * time.Hour), nil, StatusActive},
		{"no end date, before start", start.Add(-time.Hour), nil, StatusNotStarted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.now, start, tt.end); got != tt.want {
				t.Errorf("Status(%v) = %q, want %q", tt.now, got, tt.want)
			}
		})
	}
}

func TestStatusIsTotalAndMonotonic(t *testing.T) {
	start := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	end := timePtr(start.Add(90 * time.Minute))

	rank := map[SessionStatus]int{StatusNotStarted: 0, StatusActive: 1, StatusEnded: 2}

	prev := StatusNotStarted
	for now := start.Add(-time.Hour); now.Before(start.Add(4 * time.Hour)); now = now.Add(time.Minute) {
		got := Status(now, start, end)
		if _, ok := rank[got]; !ok {
			t.Fatalf("Status(%v) returned unknown value %q", now, got)
		}
		if rank[got] < rank[prev] {
			t.Fatalf("status regressed from %q to %q at %v", prev, got, now)
		}
		prev = got
	}
	if prev != StatusEnded {
		t.Fatalf("expected final status ended, got %q", prev)
	}
}

func TestNotEnded(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	if !NotEnded(now, now.Add(time.Hour), nil) {
		t.Error("upcoming session should not be filtered out")
	}
	if !NotEnded(now, now.Add(-time.Hour), nil) {
		t.Error("running session without end date should not be filtered out")
	}
	if !NotEnded(now, now.Add(-2*time.Hour), timePtr(now.Add(time.Hour))) {
		t.Error("running session with future end date should not be filtered out")
	}
	if NotEnded(now, now.Add(-2*time.Hour), timePtr(now.Add(-time.Hour))) {
		t.Error("ended session should be filtered out")
	}
}

func TestCourseIsFree(t *testing.T) {
	if !CourseIsFree(nil) {
		t.Error("nil price should be free")
	}
	if !CourseIsFree(intPtr(0)) {
		t.Error("zero price should be free")
	}
	if CourseIsFree(intPtr(4999)) {
		t.Error("positive price should not be free")
	}
}

func TestHasCourseAccess(t *testing.T) {
	userID := uuid.New()
	course := &entity.Course{ID: uuid.New(), Price: intPtr(10000)}
	freeCourse := &entity.Course{ID: uuid.New(), Price: nil}

	active := entity.Purchase{UserID: userID, CourseID: course.ID, Status: entity.PurchaseActive}
	revoked := entity.Purchase{UserID: userID, CourseID: course.ID, Status: entity.PurchaseRevoked}
	otherUser := entity.Purchase{UserID: uuid.New(), CourseID: course.ID, Status: entity.PurchaseActive}

	if !HasCourseAccess(freeCourse, userID, nil) {
		t.Error("free course should grant access without purchases")
	}
	if HasCourseAccess(course, userID, nil) {
		t.Error("paid course without purchase should deny access")
	}
	if !HasCourseAccess(course, userID, []entity.Purchase{active}) {
		t.Error("active purchase should grant access")
	}
	if HasCourseAccess(course, userID, []entity.Purchase{revoked}) {
		t.Error("revoked purchase should not grant access")
	}
	if HasCourseAccess(course, userID, []entity.Purchase{otherUser}) {
		t.Error("another user's purchase should not grant access")
	}
	if HasCourseAccess(nil, userID, []entity.Purchase{active}) {
		t.Error("nil course should deny access")
	}
}

func TestSessionVisible(t *testing.T) {
	published := &entity.LiveSession{IsPublished: true}
	publishedFree := &entity.LiveSession{IsPublished: true, IsFree: true}
	unpublished := &entity.LiveSession{IsPublished: false, IsFree: true}

	if !SessionVisible(publishedFree, false) {
		t.Error("published free session should be visible to anyone authenticated")
	}
	if SessionVisible(published, false) {
		t.Error("published paid session without course access should be hidden")
	}
	if !SessionVisible(published, true) {
		t.Error("published paid session with course access should be visible")
	}
	if SessionVisible(unpublished, true) {
		t.Error("unpublished session should never be visible to students")
	}
	if SessionVisible(nil, true) {
		t.Error("nil session should be hidden")
	}
}

func TestCanManageSession(t *testing.T) {
	teacher := uuid.New()
	other := uuid.New()

	if !CanManageSession(entity.RoleAdmin, uuid.New(), nil) {
		t.Error("admin should manage any session")
	}
	if !CanManageSession(entity.RoleTeacher, teacher, []uuid.UUID{other, teacher}) {
		t.Error("teacher owning one linked course should manage the session")
	}
	if CanManageSession(entity.RoleTeacher, teacher, []uuid.UUID{other}) {
		t.Error("teacher owning no linked course should be denied")
	}
	if CanManageSession(entity.RoleUser, teacher, []uuid.UUID{teacher}) {
		t.Error("students can never manage sessions")
	}
}

func TestCanCreateSession(t *testing.T) {
	teacher := uuid.New()
	other := uuid.New()

	if !CanCreateSession(entity.RoleAdmin, uuid.New(), []uuid.UUID{other}) {
		t.Error("admin should create sessions for any courses")
	}
	if !CanCreateSession(entity.RoleTeacher, teacher, []uuid.UUID{teacher, teacher}) {
		t.Error("teacher owning all courses should create the session")
	}
	if CanCreateSession(entity.RoleTeacher, teacher, []uuid.UUID{teacher, other}) {
		t.Error("teacher owning only some of the courses should be denied")
	}
	if CanCreateSession(entity.RoleTeacher, teacher, nil) {
		t.Error("creation with no courses should be denied")
	}
	if CanCreateSession(entity.RoleUser, teacher, []uuid.UUID{teacher}) {
		t.Error("students can never create sessions")
	}
}

func TestValidLinkType(t *testing.T) {
	for _, valid := range []string{entity.LinkTypeZoom, entity.LinkTypeGoogleMeet} {
		if !ValidLinkType(valid) {
			t.Errorf("%q should be a valid link type", valid)
		}
	}
	for _, invalid := range []string{"", "TEAMS", "zoom", "meet"} {
		if ValidLinkType(invalid) {
			t.Errorf("%q should not be a valid link type", invalid)
		}
	}
}
