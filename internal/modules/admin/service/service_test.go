package service

import (
	"context"
	"errors"
	"testing"

	"github.com/darsplatform/darsacademy-backend/internal/entity"
	"github.com/darsplatform/darsacademy-backend/internal/modules/admin/dto"
	"github.com/darsplatform/darsacademy-backend/pkg/apperror"
	"github.com/google/uuid"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*entity.User
}

func (f *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*entity.User, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.ErrNotFound
	}
	user, ok := f.users[parsed]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (f *fakeUserRepo) FindByPhone(_ context.Context, _ string) (*entity.User, error) {
	return nil, apperror.ErrNotFound
}

func (f *fakeUserRepo) FindByEitherPhone(_ context.Context, _, _ string) (*entity.User, error) {
	return nil, apperror.ErrNotFound
}

func (f *fakeUserRepo) FindByGoogleID(_ context.Context, _ string) (*entity.User, error) {
	return nil, apperror.ErrNotFound
}

func (f *fakeUserRepo) FindAll(_ context.Context) ([]entity.User, error) {
	var out []entity.User
	for _, user := range f.users {
		out = append(out, *user)
	}
	return out, nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *entity.User) error {
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

type fakeCourseRepo struct {
	courses map[uuid.UUID]*entity.Course
}

func (f *fakeCourseRepo) Create(_ context.Context, course *entity.Course) error {
	f.courses[course.ID] = course
	return nil
}

func (f *fakeCourseRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Course, error) {
	course, ok := f.courses[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	cp := *course
	return &cp, nil
}

func (f *fakeCourseRepo) FindByIDWithOwner(ctx context.Context, id uuid.UUID) (*entity.Course, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeCourseRepo) FindPublishedByID(ctx context.Context, id uuid.UUID) (*entity.Course, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeCourseRepo) FindByIDs(_ context.Context, _ []uuid.UUID) ([]entity.Course, error) {
	return nil, nil
}

func (f *fakeCourseRepo) FindPublishedByIDs(_ context.Context, _ []uuid.UUID) ([]entity.Course, error) {
	return nil, nil
}

func (f *fakeCourseRepo) FindAllPublished(_ context.Context) ([]entity.Course, error) {
	return nil, nil
}

func (f *fakeCourseRepo) Update(_ context.Context, _ *entity.Course) error { return nil }

func (f *fakeCourseRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

func (f *fakeCourseRepo) CreateChapter(_ context.Context, _ *entity.Chapter) error { return nil }

func (f *fakeCourseRepo) FindChapterByID(_ context.Context, _ uuid.UUID) (*entity.Chapter, error) {
	return nil, apperror.ErrNotFound
}

func (f *fakeCourseRepo) UpdateChapter(_ context.Context, _ *entity.Chapter) error { return nil }

func (f *fakeCourseRepo) DeleteChapter(_ context.Context, _ uuid.UUID) error { return nil }

func (f *fakeCourseRepo) NextChapterPosition(_ context.Context, _ uuid.UUID) (int, error) {
	return 1, nil
}

type fakePurchaseRepo struct {
	purchases []entity.Purchase
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

func (f *fakePurchaseRepo) FindActiveForCourses(_ context.Context, _ uuid.UUID, _ []uuid.UUID) ([]entity.Purchase, error) {
	return nil, nil
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

func (f *fakePurchaseRepo) ActiveUserIDsForCourses(_ context.Context, _ []uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
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

func setup() (AdminService, *fakeUserRepo, *fakeCourseRepo, *fakePurchaseRepo) {
	users := &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
	courses := &fakeCourseRepo{courses: make(map[uuid.UUID]*entity.Course)}
	purchases := &fakePurchaseRepo{}
	svc := NewAdminService(users, courses, purchases, nil)
	return svc, users, courses, purchases
}

func seedUser(repo *fakeUserRepo, role string) uuid.UUID {
	id := uuid.New()
	repo.users[id] = &entity.User{ID: id, FullName: "Someone", Role: role}
	return id
}

func seedCourse(repo *fakeCourseRepo) uuid.UUID {
	id := uuid.New()
	repo.courses[id] = &entity.Course{ID: id, UserID: uuid.New(), Title: "Biology"}
	return id
}

func TestStudentCoursesHidesStaff(t *testing.T) {
	svc, users, _, _ := setup()
	teacherID := seedUser(users, entity.RoleTeacher)

	_, err := svc.StudentCourses(context.Background(), teacherID)
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 404 {
		t.Fatalf("expected 404 for a staff account, got %v", err)
	}
	if appErr.Message != "student not found" {
		t.Fatalf("message = %q", appErr.Message)
	}
}

func TestGrantRevokeRegrant(t *testing.T) {
	svc, users, courses, purchases := setup()
	studentID := seedUser(users, entity.RoleUser)
	courseID := seedCourse(courses)

	if err := svc.GrantPurchase(context.Background(), studentID, courseID); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if len(purchases.purchases) != 1 || purchases.purchases[0].Status != entity.PurchaseActive {
		t.Fatalf("unexpected purchases %+v", purchases.purchases)
	}

	// Granting twice conflicts.
	err := svc.GrantPurchase(context.Background(), studentID, courseID)
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 409 {
		t.Fatalf("expected 409 on duplicate grant, got %v", err)
	}

	if err := svc.RevokePurchase(context.Background(), studentID, courseID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if purchases.purchases[0].Status != entity.PurchaseRevoked {
		t.Fatalf("status = %q after revoke", purchases.purchases[0].Status)
	}

	// Regranting reactivates the existing row instead of inserting a second
	// one for the same user+course pair.
	if err := svc.GrantPurchase(context.Background(), studentID, courseID); err != nil {
		t.Fatalf("regrant: %v", err)
	}
	if len(purchases.purchases) != 1 || purchases.purchases[0].Status != entity.PurchaseActive {
		t.Fatalf("regrant did not reactivate: %+v", purchases.purchases)
	}
}

func TestGrantPurchaseUnknownCourse(t *testing.T) {
	svc, users, _, _ := setup()
	studentID := seedUser(users, entity.RoleUser)

	err := svc.GrantPurchase(context.Background(), studentID, uuid.New())
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateUserRejectsMatchingPhones(t *testing.T) {
	svc, users, _, _ := setup()
	studentID := seedUser(users, entity.RoleUser)

	phone := "081111111111"
	same := phone
	_, err := svc.UpdateUser(context.Background(), studentID, &dto.UpdateUserRequest{
		PhoneNumber:       &phone,
		ParentPhoneNumber: &same,
	})
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 400 {
		t.Fatalf("expected 400 for matching phones, got %v", err)
	}
}

func TestUpdateUserChangesRole(t *testing.T) {
	svc, users, _, _ := setup()
	studentID := seedUser(users, entity.RoleUser)

	role := entity.RoleTeacher
	updated, err := svc.UpdateUser(context.Background(), studentID, &dto.UpdateUserRequest{Role: &role})
	if err != nil {
		t.Fatalf("update role: %v", err)
	}
	if updated.Role != entity.RoleTeacher {
		t.Fatalf("role = %q", updated.Role)
	}
}
