package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/campusrate/backend/internal/models"
	"github.com/campusrate/backend/internal/notifier"
	"github.com/campusrate/backend/internal/repositories"
	"github.com/campusrate/backend/internal/roles"
	"github.com/campusrate/backend/pkg/apperrors"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- fakes ---

func testHandlerLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type capturingNotificationRepo struct {
	mu      sync.Mutex
	created []models.Notification
}

func (r *capturingNotificationRepo) CreateNotification(notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, *notification)
	return nil
}

func (r *capturingNotificationRepo) GetByRecipientID(recipientID string) ([]models.Notification, error) {
	return nil, nil
}

func (r *capturingNotificationRepo) GetUnreadCount(recipientID string) (int64, error) {
	return 0, nil
}

func (r *capturingNotificationRepo) MarkAsRead(notificationID uint, recipientID string) (*models.Notification, error) {
	return nil, nil
}

func (r *capturingNotificationRepo) DeleteNotification(notificationID uint, recipientID string) error {
	return nil
}

func (r *capturingNotificationRepo) all() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Notification, len(r.created))
	copy(out, r.created)
	return out
}

type fakeReviewRepo struct {
	professor *models.ProfessorAccount
	review    *models.Review
	err       error

	createParams *repositories.CreateReviewParams
	updateParams *repositories.UpdateReviewParams
	adminText    string
	deletedBy    *primitive.ObjectID
	deleteCalled bool
	addedComment *models.Comment
}

func (r *fakeReviewRepo) CreateReview(ctx context.Context, p repositories.CreateReviewParams) (*models.ProfessorAccount, error) {
	r.createParams = &p
	return r.professor, r.err
}

func (r *fakeReviewRepo) UpdateReviewByStudent(ctx context.Context, p repositories.UpdateReviewParams) (*models.ProfessorAccount, error) {
	r.updateParams = &p
	return r.professor, r.err
}

func (r *fakeReviewRepo) UpdateReviewTextByAdmin(ctx context.Context, professorID, reviewID primitive.ObjectID, text string) (*models.ProfessorAccount, error) {
	r.adminText = text
	return r.professor, r.err
}

func (r *fakeReviewRepo) DeleteReview(ctx context.Context, professorID, reviewID primitive.ObjectID, studentID *primitive.ObjectID) error {
	r.deleteCalled = true
	r.deletedBy = studentID
	return r.err
}

func (r *fakeReviewRepo) AddComment(ctx context.Context, professorID, reviewID primitive.ObjectID, comment models.Comment) (*models.Review, error) {
	r.addedComment = &comment
	return r.review, r.err
}

func (r *fakeReviewRepo) UpdateComment(ctx context.Context, professorID, reviewID, commentID primitive.ObjectID, caller repositories.Caller, text string) (*models.Review, error) {
	return r.review, r.err
}

func (r *fakeReviewRepo) RemoveComment(ctx context.Context, professorID, reviewID, commentID primitive.ObjectID, caller repositories.Caller) (*models.Review, error) {
	return r.review, r.err
}

type fakeStudentRepo struct {
	students map[primitive.ObjectID]*models.StudentAccount
}

func (r *fakeStudentRepo) GetStudentByID(ctx context.Context, id primitive.ObjectID) (*models.StudentAccount, error) {
	if s, ok := r.students[id]; ok {
		return s, nil
	}
	return nil, apperrors.NotFound("student")
}

type fakeProfessorRepo struct {
	professors map[primitive.ObjectID]*models.ProfessorAccount
}

func (r *fakeProfessorRepo) GetProfessorByID(ctx context.Context, id primitive.ObjectID) (*models.ProfessorAccount, error) {
	if p, ok := r.professors[id]; ok {
		return p, nil
	}
	return nil, apperrors.NotFound("professor")
}

func (r *fakeProfessorRepo) SearchProfessors(ctx context.Context, name string, skip, limit int64) ([]models.ProfessorAccount, int64, error) {
	out := make([]models.ProfessorAccount, 0, len(r.professors))
	for _, p := range r.professors {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *fakeProfessorRepo) GetProfessorByReviewID(ctx context.Context, reviewID primitive.ObjectID) (*models.ProfessorAccount, error) {
	for _, p := range r.professors {
		if p.FindReview(reviewID) != nil {
			return p, nil
		}
	}
	return nil, apperrors.NotFound("professor for this review")
}

func (r *fakeProfessorRepo) GetProfessorByCommentID(ctx context.Context, commentID primitive.ObjectID) (*models.ProfessorAccount, error) {
	for _, p := range r.professors {
		if _, comment := p.FindComment(commentID); comment != nil {
			return p, nil
		}
	}
	return nil, apperrors.NotFound("professor for this comment")
}

type fakeCourseRepo struct {
	courses map[primitive.ObjectID]*models.Course
}

func (r *fakeCourseRepo) GetCourseByID(ctx context.Context, id primitive.ObjectID) (*models.Course, error) {
	if c, ok := r.courses[id]; ok {
		return c, nil
	}
	return nil, apperrors.NotFound("course")
}

func (r *fakeCourseRepo) GetCoursesByProfessor(ctx context.Context, professorID primitive.ObjectID) ([]models.Course, error) {
	return nil, nil
}

func (r *fakeCourseRepo) AddProfessor(ctx context.Context, courseID, professorID primitive.ObjectID) error {
	return nil
}

func (r *fakeCourseRepo) RemoveProfessor(ctx context.Context, courseID, professorID primitive.ObjectID) error {
	return nil
}

type fakeUserRepo struct {
	users []*models.User
}

func (r *fakeUserRepo) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user")
}

func (r *fakeUserRepo) GetUserByStudentAccount(ctx context.Context, accountID primitive.ObjectID) (*models.User, error) {
	for _, u := range r.users {
		if u.StudentAccount != nil && *u.StudentAccount == accountID {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user")
}

func (r *fakeUserRepo) GetUserByProfessorAccount(ctx context.Context, accountID primitive.ObjectID) (*models.User, error) {
	for _, u := range r.users {
		if u.ProfessorAccount != nil && *u.ProfessorAccount == accountID {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user")
}

func (r *fakeUserRepo) AddBookmark(ctx context.Context, userID, professorID primitive.ObjectID) (*models.User, error) {
	return r.GetUserByID(ctx, userID)
}

func (r *fakeUserRepo) RemoveBookmark(ctx context.Context, userID, professorID primitive.ObjectID) (*models.User, error) {
	return r.GetUserByID(ctx, userID)
}

// --- fixtures ---

type reviewFixture struct {
	handler *ReviewHandler

	reviewRepo       *fakeReviewRepo
	notificationRepo *capturingNotificationRepo

	professorID     primitive.ObjectID
	studentID       primitive.ObjectID
	courseID        primitive.ObjectID
	studentUserID   primitive.ObjectID
	professorUserID primitive.ObjectID
}

func newReviewFixture() *reviewFixture {
	professorID := primitive.NewObjectID()
	studentID := primitive.NewObjectID()
	courseID := primitive.NewObjectID()

	gpa := 3.6
	student := &models.StudentAccount{
		ID: studentID, FirstName: "Jordan", LastName: "Smith", GPA: &gpa,
	}
	professor := &models.ProfessorAccount{
		ID: professorID, FirstName: "Alex", LastName: "Rivera",
	}
	course := &models.Course{
		ID: courseID, Title: "Algorithms", Professors: []primitive.ObjectID{professorID},
	}

	studentUser := &models.User{ID: primitive.NewObjectID(), StudentAccount: &studentID}
	professorUser := &models.User{ID: primitive.NewObjectID(), ProfessorAccount: &professorID}

	reviewRepo := &fakeReviewRepo{professor: professor}
	notificationRepo := &capturingNotificationRepo{}

	h := NewReviewHandler(
		reviewRepo,
		&fakeStudentRepo{students: map[primitive.ObjectID]*models.StudentAccount{studentID: student}},
		&fakeProfessorRepo{professors: map[primitive.ObjectID]*models.ProfessorAccount{professorID: professor}},
		&fakeCourseRepo{courses: map[primitive.ObjectID]*models.Course{courseID: course}},
		&fakeUserRepo{users: []*models.User{studentUser, professorUser}},
		notifier.New(notificationRepo, nil, testHandlerLogger()),
	)

	return &reviewFixture{
		handler:          h,
		reviewRepo:       reviewRepo,
		notificationRepo: notificationRepo,
		professorID:      professorID,
		studentID:        studentID,
		courseID:         courseID,
		studentUserID:    studentUser.ID,
		professorUserID:  professorUser.ID,
	}
}

func newTestContext(t *testing.T, method, body string, claims *models.JwtCustomClaims) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if claims != nil {
		c.Set("claims", claims)
	}
	return c, rec
}

func studentClaims(f *reviewFixture) *models.JwtCustomClaims {
	return &models.JwtCustomClaims{
		UserID:    f.studentUserID.Hex(),
		AccountID: f.studentID.Hex(),
		Role:      roles.Student,
	}
}

// --- tests ---

func TestCreateReviewSubmitsAndNotifiesProfessor(t *testing.T) {
	f := newReviewFixture()
	created := models.Review{
		ID:        primitive.NewObjectID(),
		StudentID: f.studentID,
		CourseID:  f.courseID,
		Text:      "Great lectures",
		Rating:    4.5,
	}
	f.reviewRepo.professor.Reviews = []models.Review{created}

	body := `{"course_id":"` + f.courseID.Hex() + `","text":"Great lectures","rating":4.5}`
	c, rec := newTestContext(t, http.MethodPost, body, studentClaims(f))
	c.SetParamNames("id")
	c.SetParamValues(f.professorID.Hex())

	require.NoError(t, f.handler.CreateReview(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, f.reviewRepo.createParams)
	assert.Equal(t, f.studentID, f.reviewRepo.createParams.StudentID)
	assert.Equal(t, f.professorID, f.reviewRepo.createParams.ProfessorID)
	assert.Equal(t, 4.5, f.reviewRepo.createParams.Rating)
	assert.Equal(t, 3.6, f.reviewRepo.createParams.GPA)

	f.handler.notifier.Wait()
	notifications := f.notificationRepo.all()
	require.Len(t, notifications, 1)
	assert.Equal(t, f.professorUserID.Hex(), notifications[0].RecipientID)
	assert.Equal(t, models.ReferenceReview, notifications[0].ReferenceModel)
}

func TestCreateReviewRejectsNonStudents(t *testing.T) {
	f := newReviewFixture()
	claims := &models.JwtCustomClaims{
		UserID:    f.professorUserID.Hex(),
		AccountID: f.professorID.Hex(),
		Role:      roles.Professor,
	}

	c, rec := newTestContext(t, http.MethodPost, `{"course_id":"x","text":"t","rating":1}`, claims)
	c.SetParamNames("id")
	c.SetParamValues(f.professorID.Hex())

	require.NoError(t, f.handler.CreateReview(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, f.reviewRepo.createParams)
}

func TestCreateReviewRequiresGPA(t *testing.T) {
	f := newReviewFixture()
	// Clear the qualifier on the stored student.
	studentRepo := f.handler.studentRepository.(*fakeStudentRepo)
	studentRepo.students[f.studentID].GPA = nil

	body := `{"course_id":"` + f.courseID.Hex() + `","text":"Great","rating":4}`
	c, rec := newTestContext(t, http.MethodPost, body, studentClaims(f))
	c.SetParamNames("id")
	c.SetParamValues(f.professorID.Hex())

	require.NoError(t, f.handler.CreateReview(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, f.reviewRepo.createParams)
}

func TestCreateReviewRejectsUnassociatedCourse(t *testing.T) {
	f := newReviewFixture()
	otherCourse := &models.Course{ID: primitive.NewObjectID(), Title: "Painting"}
	courseRepo := f.handler.courseRepository.(*fakeCourseRepo)
	courseRepo.courses[otherCourse.ID] = otherCourse

	body := `{"course_id":"` + otherCourse.ID.Hex() + `","text":"Great","rating":4}`
	c, rec := newTestContext(t, http.MethodPost, body, studentClaims(f))
	c.SetParamNames("id")
	c.SetParamValues(f.professorID.Hex())

	require.NoError(t, f.handler.CreateReview(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Nil(t, f.reviewRepo.createParams)
}

func TestUpdateReviewStudentRequiresRating(t *testing.T) {
	f := newReviewFixture()
	reviewID := primitive.NewObjectID()

	c, rec := newTestContext(t, http.MethodPut, `{"text":"Revised"}`, studentClaims(f))
	c.SetParamNames("id", "reviewId")
	c.SetParamValues(f.professorID.Hex(), reviewID.Hex())

	require.NoError(t, f.handler.UpdateReview(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, f.reviewRepo.updateParams)
}

func TestUpdateReviewAdminEditsTextOnly(t *testing.T) {
	f := newReviewFixture()
	reviewID := primitive.NewObjectID()
	claims := &models.JwtCustomClaims{
		UserID:    primitive.NewObjectID().Hex(),
		AccountID: primitive.NewObjectID().Hex(),
		Role:      roles.Admin,
	}

	c, rec := newTestContext(t, http.MethodPut, `{"text":"Moderated text"}`, claims)
	c.SetParamNames("id", "reviewId")
	c.SetParamValues(f.professorID.Hex(), reviewID.Hex())

	require.NoError(t, f.handler.UpdateReview(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Moderated text", f.reviewRepo.adminText)
	assert.Nil(t, f.reviewRepo.updateParams, "admin edits never touch the rating path")

	f.handler.notifier.Wait()
	notifications := f.notificationRepo.all()
	require.Len(t, notifications, 1)
	assert.Equal(t, f.professorUserID.Hex(), notifications[0].RecipientID)
}

func TestDeleteReviewStudentScopedToOwnReview(t *testing.T) {
	f := newReviewFixture()
	reviewID := primitive.NewObjectID()

	c, rec := newTestContext(t, http.MethodDelete, "", studentClaims(f))
	c.SetParamNames("id", "reviewId")
	c.SetParamValues(f.professorID.Hex(), reviewID.Hex())

	require.NoError(t, f.handler.DeleteReview(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.reviewRepo.deleteCalled)
	require.NotNil(t, f.reviewRepo.deletedBy)
	assert.Equal(t, f.studentID, *f.reviewRepo.deletedBy)
}

func TestDeleteReviewAdminHasNoOwnershipRestriction(t *testing.T) {
	f := newReviewFixture()
	claims := &models.JwtCustomClaims{
		UserID:    primitive.NewObjectID().Hex(),
		AccountID: primitive.NewObjectID().Hex(),
		Role:      roles.Admin,
	}

	c, rec := newTestContext(t, http.MethodDelete, "", claims)
	c.SetParamNames("id", "reviewId")
	c.SetParamValues(f.professorID.Hex(), primitive.NewObjectID().Hex())

	require.NoError(t, f.handler.DeleteReview(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.reviewRepo.deleteCalled)
	assert.Nil(t, f.reviewRepo.deletedBy)
}

func TestAddCommentByProfessorNotifiesRater(t *testing.T) {
	f := newReviewFixture()
	reviewID := primitive.NewObjectID()
	f.reviewRepo.review = &models.Review{
		ID:        reviewID,
		StudentID: f.studentID,
		CourseID:  f.courseID,
	}

	claims := &models.JwtCustomClaims{
		UserID:    f.professorUserID.Hex(),
		AccountID: f.professorID.Hex(),
		Role:      roles.Professor,
	}

	c, rec := newTestContext(t, http.MethodPost, `{"text":"Thanks for the feedback"}`, claims)
	c.SetParamNames("id", "reviewId")
	c.SetParamValues(f.professorID.Hex(), reviewID.Hex())

	require.NoError(t, f.handler.AddComment(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.reviewRepo.addedComment)
	assert.Equal(t, "Thanks for the feedback", f.reviewRepo.addedComment.Text)

	f.handler.notifier.Wait()
	notifications := f.notificationRepo.all()
	require.Len(t, notifications, 1)
	assert.Equal(t, f.studentUserID.Hex(), notifications[0].RecipientID)
	assert.Equal(t, models.ReferenceComment, notifications[0].ReferenceModel)
	assert.Contains(t, notifications[0].Message, "Professor Alex Rivera")
}

func TestListUserReviewsStudentJoinsComments(t *testing.T) {
	f := newReviewFixture()
	reviewID := primitive.NewObjectID()
	comment := models.Comment{ID: primitive.NewObjectID(), UserID: f.professorUserID, Text: "Noted"}

	studentRepo := f.handler.studentRepository.(*fakeStudentRepo)
	studentRepo.students[f.studentID].Reviews = []models.Review{{
		ID: reviewID, ProfessorID: f.professorID, CourseID: f.courseID, Text: "Great", Rating: 4,
	}}
	f.reviewRepo.professor.Reviews = []models.Review{{
		ID: reviewID, StudentID: f.studentID, CourseID: f.courseID, Text: "Great", Rating: 4,
		Comments: []models.Comment{comment},
	}}

	c, rec := newTestContext(t, http.MethodGet, "", studentClaims(f))
	c.SetParamNames("id")
	c.SetParamValues(f.studentUserID.Hex())

	require.NoError(t, f.handler.ListUserReviews(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		UserType string `json:"userType"`
		Reviews  []struct {
			Comments []models.Comment `json:"comments"`
		} `json:"reviews"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "student", resp.UserType)
	require.Len(t, resp.Reviews, 1)
	require.Len(t, resp.Reviews[0].Comments, 1)
	assert.Equal(t, "Noted", resp.Reviews[0].Comments[0].Text)
}

func TestListUserReviewsUnknownUser(t *testing.T) {
	f := newReviewFixture()

	c, rec := newTestContext(t, http.MethodGet, "", studentClaims(f))
	c.SetParamNames("id")
	c.SetParamValues(primitive.NewObjectID().Hex())

	require.NoError(t, f.handler.ListUserReviews(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
