package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/darsplatform/darsacademy-backend/internal/entity"
	"github.com/darsplatform/darsacademy-backend/internal/modules/livesession/dto"
	"github.com/darsplatform/darsacademy-backend/pkg/apperror"
	"github.com/google/uuid"
)

// fakeSessionRepo keeps sessions in memory and resolves course links against
// a shared fakeCourseRepo so FindByID can attach owners.
type fakeSessionRepo struct {
	courses  *fakeCourseRepo
	sessions map[uuid.UUID]*entity.LiveSession
	links    map[uuid.UUID][]uuid.UUID
}

func newFakeSessionRepo(courses *fakeCourseRepo) *fakeSessionRepo {
	return &fakeSessionRepo{
		courses:  courses,
		sessions: make(map[uuid.UUID]*entity.LiveSession),
		links:    make(map[uuid.UUID][]uuid.UUID),
	}
}

func (f *fakeSessionRepo) Create(_ context.Context, session *entity.LiveSession, courseIDs []uuid.UUID) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	cp := *session
	f.sessions[session.ID] = &cp
	f.links[session.ID] = append([]uuid.UUID(nil), courseIDs...)
	return nil
}

func (f *fakeSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.LiveSession, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	out := *session
	out.Courses = f.linkRows(id)
	return &out, nil
}

func (f *fakeSessionRepo) linkRows(id uuid.UUID) []entity.LiveSessionCourse {
	var rows []entity.LiveSessionCourse
	for _, courseID := range f.links[id] {
		course := f.courses.byID[courseID]
		row := entity.LiveSessionCourse{LiveSessionID: id, CourseID: courseID}
		if course != nil {
			row.Course = *course
		}
		rows = append(rows, row)
	}
	return rows
}

func notEnded(now, start time.Time, end *time.Time) bool {
	if end != nil && now.After(*end) {
		return false
	}
	return true
}

func (f *fakeSessionRepo) FindUpcomingForCourse(_ context.Context, courseID uuid.UUID, now time.Time) ([]entity.LiveSession, error) {
	var out []entity.LiveSession
	for id, session := range f.sessions {
		if !session.IsPublished || !notEnded(now, session.StartDate, session.EndDate) {
			continue
		}
		for _, linked := range f.links[id] {
			if linked == courseID {
				cp := *session
				cp.Courses = f.linkRows(id)
				out = append(out, cp)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) FindUpcomingForChapter(ctx context.Context, courseID, chapterID uuid.UUID, now time.Time) ([]entity.LiveSession, error) {
	all, err := f.FindUpcomingForCourse(ctx, courseID, now)
	if err != nil {
		return nil, err
	}
	var out []entity.LiveSession
	for i := range all {
		if all[i].ChapterID != nil && *all[i].ChapterID == chapterID {
			out = append(out, all[i])
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) FindByCourseOwner(_ context.Context, ownerID uuid.UUID) ([]entity.LiveSession, error) {
	var out []entity.LiveSession
	for id, session := range f.sessions {
		for _, courseID := range f.links[id] {
			course := f.courses.byID[courseID]
			if course != nil && course.UserID == ownerID {
				cp := *session
				cp.Courses = f.linkRows(id)
				out = append(out, cp)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) FindAll(_ context.Context) ([]entity.LiveSession, error) {
	var out []entity.LiveSession
	for id, session := range f.sessions {
		cp := *session
		cp.Courses = f.linkRows(id)
		out = append(out, cp)
	}
	return out, nil
}

func (f *fakeSessionRepo) Update(_ context.Context, id uuid.UUID, updates map[string]any, courseIDs []uuid.UUID) error {
	session, ok := f.sessions[id]
	if !ok {
		return apperror.ErrNotFound
	}
	for key, value := range updates {
		switch key {
		case "title":
			session.Title = value.(string)
		case "link_url":
			session.LinkURL = value.(string)
		case "link_type":
			session.LinkType = value.(string)
		case "start_date":
			session.StartDate = value.(time.Time)
		case "end_date":
			end := value.(time.Time)
			session.EndDate = &end
		case "is_free":
			session.IsFree = value.(bool)
		case "is_published":
			session.IsPublished = value.(bool)
		case "chapter_id":
			chapterID := value.(uuid.UUID)
			session.ChapterID = &chapterID
		}
	}
	if courseIDs != nil {
		f.links[id] = append([]uuid.UUID(nil), courseIDs...)
	}
	return nil
}

func (f *fakeSessionRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.sessions[id]; !ok {
		return apperror.ErrNotFound
	}
	delete(f.sessions, id)
	delete(f.links, id)
	return nil
}

type fakeCourseRepo struct {
	byID     map[uuid.UUID]*entity.Course
	chapters map[uuid.UUID]*entity.Chapter
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{
		byID:     make(map[uuid.UUID]*entity.Course),
		chapters: make(map[uuid.UUID]*entity.Chapter),
	}
}

func (f *fakeCourseRepo) addCourse(ownerID uuid.UUID, price *int, published bool) uuid.UUID {
	id := uuid.New()
	f.byID[id] = &entity.Course{ID: id, UserID: ownerID, Title: "course", Price: price, IsPublished: published}
	return id
}

func (f *fakeCourseRepo) addChapter(courseID uuid.UUID, published bool) uuid.UUID {
	id := uuid.New()
	f.chapters[id] = &entity.Chapter{ID: id, CourseID: courseID, Title: "chapter", IsPublished: published}
	return id
}

func (f *fakeCourseRepo) Create(_ context.Context, course *entity.Course) error {
	f.byID[course.ID] = course
	return nil
}

func (f *fakeCourseRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Course, error) {
	course, ok := f.byID[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	cp := *course
	return &cp, nil
}

func (f *fakeCourseRepo) FindByIDWithOwner(ctx context.Context, id uuid.UUID) (*entity.Course, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeCourseRepo) FindPublishedByID(_ context.Context, id uuid.UUID) (*entity.Course, error) {
	course, ok := f.byID[id]
	if !ok || !course.IsPublished {
		return nil, apperror.ErrNotFound
	}
	cp := *course
	return &cp, nil
}

func (f *fakeCourseRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]entity.Course, error) {
	var out []entity.Course
	seen := make(map[uuid.UUID]bool)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if course, ok := f.byID[id]; ok {
			out = append(out, *course)
		}
	}
	return out, nil
}

func (f *fakeCourseRepo) FindPublishedByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Course, error) {
	all, err := f.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	var out []entity.Course
	for i := range all {
		if all[i].IsPublished {
			out = append(out, all[i])
		}
	}
	return out, nil
}

func (f *fakeCourseRepo) FindAllPublished(_ context.Context) ([]entity.Course, error) {
	return nil, nil
}

func (f *fakeCourseRepo) Update(_ context.Context, course *entity.Course) error {
	f.byID[course.ID] = course
	return nil
}

func (f *fakeCourseRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeCourseRepo) CreateChapter(_ context.Context, chapter *entity.Chapter) error {
	f.chapters[chapter.ID] = chapter
	return nil
}

func (f *fakeCourseRepo) FindChapterByID(_ context.Context, id uuid.UUID) (*entity.Chapter, error) {
	chapter, ok := f.chapters[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	cp := *chapter
	return &cp, nil
}

func (f *fakeCourseRepo) UpdateChapter(_ context.Context, chapter *entity.Chapter) error {
	f.chapters[chapter.ID] = chapter
	return nil
}

func (f *fakeCourseRepo) DeleteChapter(_ context.Context, id uuid.UUID) error {
	delete(f.chapters, id)
	return nil
}

func (f *fakeCourseRepo) NextChapterPosition(_ context.Context, _ uuid.UUID) (int, error) {
	return 1, nil
}

type fakePurchaseRepo struct {
	purchases []entity.Purchase
}

func (f *fakePurchaseRepo) addActive(userID, courseID uuid.UUID) {
	f.purchases = append(f.purchases, entity.Purchase{
		ID:       uuid.New(),
		UserID:   userID,
		CourseID: courseID,
		Status:   entity.PurchaseActive,
	})
}

func (f *fakePurchaseRepo) FindActive(_ context.Context, userID, courseID uuid.UUID) ([]entity.Purchase, error) {
	var out []entity.Purchase
	for _, p := range f.purchases {
		if p.UserID == userID && p.CourseID == courseID && p.Status == entity.PurchaseActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePurchaseRepo) FindActiveForCourses(_ context.Context, userID uuid.UUID, courseIDs []uuid.UUID) ([]entity.Purchase, error) {
	wanted := make(map[uuid.UUID]bool)
	for _, id := range courseIDs {
		wanted[id] = true
	}
	var out []entity.Purchase
	for _, p := range f.purchases {
		if p.UserID == userID && p.Status == entity.PurchaseActive && wanted[p.CourseID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePurchaseRepo) FindActiveByUser(_ context.Context, userID uuid.UUID) ([]entity.Purchase, error) {
	var out []entity.Purchase
	for _, p := range f.purchases {
		if p.UserID == userID && p.Status == entity.PurchaseActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePurchaseRepo) ActiveUserIDsForCourses(_ context.Context, courseIDs []uuid.UUID) ([]uuid.UUID, error) {
	wanted := make(map[uuid.UUID]bool)
	for _, id := range courseIDs {
		wanted[id] = true
	}
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, p := range f.purchases {
		if p.Status == entity.PurchaseActive && wanted[p.CourseID] && !seen[p.UserID] {
			seen[p.UserID] = true
			out = append(out, p.UserID)
		}
	}
	return out, nil
}

func (f *fakePurchaseRepo) Create(_ context.Context, purchase *entity.Purchase) error {
	f.purchases = append(f.purchases, *purchase)
	return nil
}

func (f *fakePurchaseRepo) UpdateStatus(_ context.Context, userID, courseID uuid.UUID, status string) error {
	for i := range f.purchases {
		if f.purchases[i].UserID == userID && f.purchases[i].CourseID == courseID {
			f.purchases[i].Status = status
			return nil
		}
	}
	return apperror.ErrNotFound
}

func (f *fakePurchaseRepo) UpsertProgress(_ context.Context, _ *entity.UserProgress) error {
	return nil
}

type fakeNotifier struct {
	created []entity.Notification
}

func (f *fakeNotifier) CreateNotification(_ context.Context, n *entity.Notification) error {
	f.created = append(f.created, *n)
	return nil
}

func (f *fakeNotifier) GetNotifications(_ context.Context, _ uuid.UUID, _, _ int) ([]entity.Notification, error) {
	return nil, nil
}

func (f *fakeNotifier) MarkAsRead(_ context.Context, _, _ uuid.UUID) error { return nil }

func (f *fakeNotifier) MarkAllAsRead(_ context.Context, _ uuid.UUID) error { return nil }

func (f *fakeNotifier) UnreadCount(_ context.Context, _ uuid.UUID) (int64, error) { return 0, nil }

type fixture struct {
	svc       *liveSessionService
	sessions  *fakeSessionRepo
	courses   *fakeCourseRepo
	purchases *fakePurchaseRepo
	notifier  *fakeNotifier
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	courses := newFakeCourseRepo()
	sessions := newFakeSessionRepo(courses)
	purchases := &fakePurchaseRepo{}
	notifier := &fakeNotifier{}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := &liveSessionService{
		sessions:      sessions,
		courses:       courses,
		purchases:     purchases,
		notifications: notifier,
		now:           func() time.Time { return now },
	}
	return &fixture{svc: svc, sessions: sessions, courses: courses, purchases: purchases, notifier: notifier, now: now}
}

func intPtr(v int) *int { return &v }

func (fx *fixture) createSession(t *testing.T, ownerID uuid.UUID, courseIDs []uuid.UUID, isFree, published bool) uuid.UUID {
	t.Helper()
	session := &entity.LiveSession{
		Title:       "math review",
		LinkURL:     "https://zoom.us/j/123",
		LinkType:    entity.LinkTypeZoom,
		StartDate:   fx.now.Add(time.Hour),
		IsFree:      isFree,
		IsPublished: published,
	}
	if err := fx.sessions.Create(context.Background(), session, courseIDs); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return session.ID
}

func TestListForCourseVisibility(t *testing.T) {
	fx := newFixture(t)
	teacher := uuid.New()
	student := uuid.New()
	paidCourse := fx.courses.addCourse(teacher, intPtr(50000), true)

	paidPublished := fx.createSession(t, teacher, []uuid.UUID{paidCourse}, false, true)
	freePublished := fx.createSession(t, teacher, []uuid.UUID{paidCourse}, true, true)
	fx.createSession(t, teacher, []uuid.UUID{paidCourse}, true, false) // draft stays hidden

	// Without a purchase only the free session is visible.
	got, err := fx.svc.ListForCourse(context.Background(), student, paidCourse)
	if err != nil {
		t.Fatalf("ListForCourse: %v", err)
	}
	if len(got) != 1 || got[0].ID != freePublished {
		t.Fatalf("expected only the free session, got %d sessions", len(got))
	}

	// An active purchase unlocks the paid session too.
	fx.purchases.addActive(student, paidCourse)
	got, err = fx.svc.ListForCourse(context.Background(), student, paidCourse)
	if err != nil {
		t.Fatalf("ListForCourse with purchase: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(got))
	}
	for _, resp := range got {
		if resp.ID != paidPublished && resp.ID != freePublished {
			t.Fatalf("unexpected session %s in listing", resp.ID)
		}
		if resp.Status != "not_started" {
			t.Fatalf("expected not_started status, got %q", resp.Status)
		}
	}
}

func TestListForCourseUnpublishedCourse(t *testing.T) {
	fx := newFixture(t)
	teacher := uuid.New()
	draft := fx.courses.addCourse(teacher, nil, false)

	_, err := fx.svc.ListForCourse(context.Background(), uuid.New(), draft)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected not found for unpublished course, got %v", err)
	}
}

func TestCreateRequiresOwningAllCourses(t *testing.T) {
	fx := newFixture(t)
	owner := uuid.New()
	other := uuid.New()
	mine := fx.courses.addCourse(owner, nil, true)
	theirs := fx.courses.addCourse(other, nil, true)

	req := &dto.CreateLiveSessionRequest{
		Title:     "joint session",
		LinkURL:   "https://meet.google.com/abc",
		LinkType:  entity.LinkTypeGoogleMeet,
		StartDate: fx.now.Add(time.Hour),
		CourseIDs: []uuid.UUID{mine, theirs},
	}

	_, err := fx.svc.Create(context.Background(), owner, entity.RoleTeacher, req)
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 403 {
		t.Fatalf("expected 403 for partially owned course set, got %v", err)
	}

	// Admins are not bound by ownership.
	resp, err := fx.svc.Create(context.Background(), uuid.New(), entity.RoleAdmin, req)
	if err != nil {
		t.Fatalf("admin create: %v", err)
	}
	if len(resp.Courses) != 2 {
		t.Fatalf("expected 2 linked courses, got %d", len(resp.Courses))
	}
}

func TestCreateUnknownCourse(t *testing.T) {
	fx := newFixture(t)
	owner := uuid.New()
	mine := fx.courses.addCourse(owner, nil, true)

	req := &dto.CreateLiveSessionRequest{
		Title:     "session",
		LinkURL:   "https://zoom.us/j/1",
		LinkType:  entity.LinkTypeZoom,
		StartDate: fx.now.Add(time.Hour),
		CourseIDs: []uuid.UUID{mine, uuid.New()},
	}

	_, err := fx.svc.Create(context.Background(), owner, entity.RoleTeacher, req)
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 404 {
		t.Fatalf("expected 404 for unknown course, got %v", err)
	}
}

func TestCreateChapterMustBelongToSelectedCourse(t *testing.T) {
	fx := newFixture(t)
	owner := uuid.New()
	courseA := fx.courses.addCourse(owner, nil, true)
	courseB := fx.courses.addCourse(owner, nil, true)
	chapterB := fx.courses.addChapter(courseB, true)

	req := &dto.CreateLiveSessionRequest{
		Title:     "session",
		LinkURL:   "https://zoom.us/j/1",
		LinkType:  entity.LinkTypeZoom,
		StartDate: fx.now.Add(time.Hour),
		CourseIDs: []uuid.UUID{courseA},
		ChapterID: &chapterB,
	}

	_, err := fx.svc.Create(context.Background(), owner, entity.RoleTeacher, req)
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 400 {
		t.Fatalf("expected 400 for foreign chapter, got %v", err)
	}

	req.CourseIDs = []uuid.UUID{courseA, courseB}
	if _, err := fx.svc.Create(context.Background(), owner, entity.RoleTeacher, req); err != nil {
		t.Fatalf("create with matching chapter: %v", err)
	}
}

func TestCreateEndBeforeStart(t *testing.T) {
	fx := newFixture(t)
	owner := uuid.New()
	course := fx.courses.addCourse(owner, nil, true)
	end := fx.now.Add(time.Hour)

	req := &dto.CreateLiveSessionRequest{
		Title:     "session",
		LinkURL:   "https://zoom.us/j/1",
		LinkType:  entity.LinkTypeZoom,
		StartDate: fx.now.Add(2 * time.Hour),
		EndDate:   &end,
		CourseIDs: []uuid.UUID{course},
	}

	_, err := fx.svc.Create(context.Background(), owner, entity.RoleTeacher, req)
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 400 {
		t.Fatalf("expected 400 for end before start, got %v", err)
	}
}

func TestUpdateDeniedForNonOwner(t *testing.T) {
	fx := newFixture(t)
	owner := uuid.New()
	stranger := uuid.New()
	course := fx.courses.addCourse(owner, nil, true)
	sessionID := fx.createSession(t, owner, []uuid.UUID{course}, true, true)

	title := "renamed"
	_, err := fx.svc.Update(context.Background(), stranger, entity.RoleTeacher, sessionID, &dto.UpdateLiveSessionRequest{Title: &title})
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 403 {
		t.Fatalf("expected 403 for non-owner update, got %v", err)
	}

	// A teacher owning at least one linked course may update.
	resp, err := fx.svc.Update(context.Background(), owner, entity.RoleTeacher, sessionID, &dto.UpdateLiveSessionRequest{Title: &title})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if resp.Title != "renamed" {
		t.Fatalf("title not updated, got %q", resp.Title)
	}
}

func TestUpdateReplacesCourseLinks(t *testing.T) {
	fx := newFixture(t)
	owner := uuid.New()
	courseA := fx.courses.addCourse(owner, nil, true)
	courseB := fx.courses.addCourse(owner, nil, true)
	sessionID := fx.createSession(t, owner, []uuid.UUID{courseA}, true, true)

	resp, err := fx.svc.Update(context.Background(), owner, entity.RoleTeacher, sessionID, &dto.UpdateLiveSessionRequest{
		CourseIDs: []uuid.UUID{courseB},
	})
	if err != nil {
		t.Fatalf("update links: %v", err)
	}
	if len(resp.Courses) != 1 || resp.Courses[0].ID != courseB {
		t.Fatalf("link set not replaced: %+v", resp.Courses)
	}
}

func TestPublishNotifiesPurchasers(t *testing.T) {
	fx := newFixture(t)
	owner := uuid.New()
	buyer := uuid.New()
	bystander := uuid.New()
	course := fx.courses.addCourse(owner, intPtr(75000), true)
	otherCourse := fx.courses.addCourse(owner, intPtr(75000), true)
	fx.purchases.addActive(buyer, course)
	fx.purchases.addActive(bystander, otherCourse)

	sessionID := fx.createSession(t, owner, []uuid.UUID{course}, false, false)

	resp, err := fx.svc.SetPublished(context.Background(), owner, entity.RoleTeacher, sessionID, true)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !resp.IsPublished {
		t.Fatal("session still unpublished")
	}
	if len(fx.notifier.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(fx.notifier.created))
	}
	n := fx.notifier.created[0]
	if n.UserID != buyer || n.Type != entity.NotificationSessionPublished {
		t.Fatalf("unexpected notification %+v", n)
	}
	if n.ReferenceID == nil || *n.ReferenceID != sessionID {
		t.Fatal("notification not linked to the session")
	}

	// Re-publishing an already published session must not notify again.
	fx.notifier.created = nil
	if _, err := fx.svc.SetPublished(context.Background(), owner, entity.RoleTeacher, sessionID, true); err != nil {
		t.Fatalf("re-publish: %v", err)
	}
	if len(fx.notifier.created) != 0 {
		t.Fatalf("expected no notifications on re-publish, got %d", len(fx.notifier.created))
	}
}

func TestGetStudentVisibility(t *testing.T) {
	fx := newFixture(t)
	owner := uuid.New()
	student := uuid.New()
	paidCourse := fx.courses.addCourse(owner, intPtr(50000), true)
	draftCourse := fx.courses.addCourse(owner, nil, false)

	paidSession := fx.createSession(t, owner, []uuid.UUID{paidCourse}, false, true)
	draftOnly := fx.createSession(t, owner, []uuid.UUID{draftCourse}, false, true)

	// No purchase: the paid session on the paid course is off-limits.
	_, err := fx.svc.Get(context.Background(), student, entity.RoleUser, paidSession)
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 403 {
		t.Fatalf("expected 403 without purchase, got %v", err)
	}

	fx.purchases.addActive(student, paidCourse)
	resp, err := fx.svc.Get(context.Background(), student, entity.RoleUser, paidSession)
	if err != nil {
		t.Fatalf("get with purchase: %v", err)
	}
	if resp.ID != paidSession {
		t.Fatalf("wrong session returned: %s", resp.ID)
	}
	if len(resp.Courses) == 0 || resp.Courses[0].Owner != nil {
		t.Fatal("student response must list courses without owners")
	}

	// Sessions linked only to unpublished courses stay off-limits too.
	_, err = fx.svc.Get(context.Background(), student, entity.RoleUser, draftOnly)
	if !errors.As(err, &appErr) || appErr.Code != 403 {
		t.Fatalf("expected 403 for draft-course session, got %v", err)
	}
}

func TestGetTeacherOwnership(t *testing.T) {
	fx := newFixture(t)
	owner := uuid.New()
	other := uuid.New()
	course := fx.courses.addCourse(owner, nil, false)
	sessionID := fx.createSession(t, owner, []uuid.UUID{course}, true, false)

	// The owner sees drafts on unpublished courses.
	resp, err := fx.svc.Get(context.Background(), owner, entity.RoleTeacher, sessionID)
	if err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if resp.IsPublished {
		t.Fatal("expected draft session")
	}

	_, err = fx.svc.Get(context.Background(), other, entity.RoleTeacher, sessionID)
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 403 {
		t.Fatalf("expected 403 for foreign teacher, got %v", err)
	}
}

func TestListForChapterPaidSessionsNeedPurchase(t *testing.T) {
	fx := newFixture(t)
	owner := uuid.New()
	student := uuid.New()
	freeCourse := fx.courses.addCourse(owner, nil, true)
	chapterID := fx.courses.addChapter(freeCourse, true)

	paid := &entity.LiveSession{
		Title:       "paid office hours",
		LinkURL:     "https://zoom.us/j/9",
		LinkType:    entity.LinkTypeZoom,
		StartDate:   fx.now.Add(time.Hour),
		IsPublished: true,
		ChapterID:   &chapterID,
	}
	if err := fx.sessions.Create(context.Background(), paid, []uuid.UUID{freeCourse}); err != nil {
		t.Fatalf("seed paid session: %v", err)
	}
	free := &entity.LiveSession{
		Title:       "open q&a",
		LinkURL:     "https://zoom.us/j/10",
		LinkType:    entity.LinkTypeZoom,
		StartDate:   fx.now.Add(time.Hour),
		IsFree:      true,
		IsPublished: true,
		ChapterID:   &chapterID,
	}
	if err := fx.sessions.Create(context.Background(), free, []uuid.UUID{freeCourse}); err != nil {
		t.Fatalf("seed free session: %v", err)
	}

	// Free course grants chapter access, but paid sessions still require an
	// actual purchase.
	got, err := fx.svc.ListForChapter(context.Background(), student, freeCourse, chapterID)
	if err != nil {
		t.Fatalf("ListForChapter: %v", err)
	}
	if len(got) != 1 || got[0].ID != free.ID {
		t.Fatalf("expected only the free session, got %d", len(got))
	}

	fx.purchases.addActive(student, freeCourse)
	got, err = fx.svc.ListForChapter(context.Background(), student, freeCourse, chapterID)
	if err != nil {
		t.Fatalf("ListForChapter with purchase: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both sessions, got %d", len(got))
	}
}

func TestDelete(t *testing.T) {
	fx := newFixture(t)
	owner := uuid.New()
	course := fx.courses.addCourse(owner, nil, true)
	sessionID := fx.createSession(t, owner, []uuid.UUID{course}, true, true)

	if err := fx.svc.Delete(context.Background(), owner, entity.RoleTeacher, sessionID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := fx.sessions.FindByID(context.Background(), sessionID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("session still present after delete: %v", err)
	}
}
