package handlers

import (
	"net/http"
	"time"

	"github.com/campusrate/backend/internal/middleware"
	"github.com/campusrate/backend/internal/models"
	"github.com/campusrate/backend/internal/notifier"
	"github.com/campusrate/backend/internal/repositories"
	"github.com/campusrate/backend/internal/roles"
	"github.com/campusrate/backend/pkg/apperrors"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReviewHandler handles HTTP requests for the review ledger and its comments
type ReviewHandler struct {
	reviewRepository    repositories.ReviewRepository
	studentRepository   repositories.StudentRepository
	professorRepository repositories.ProfessorRepository
	courseRepository    repositories.CourseRepository
	userRepository      repositories.UserRepository
	notifier            *notifier.Notifier
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(
	reviewRepo repositories.ReviewRepository,
	studentRepo repositories.StudentRepository,
	professorRepo repositories.ProfessorRepository,
	courseRepo repositories.CourseRepository,
	userRepo repositories.UserRepository,
	fanout *notifier.Notifier,
) *ReviewHandler {
	return &ReviewHandler{
		reviewRepository:    reviewRepo,
		studentRepository:   studentRepo,
		professorRepository: professorRepo,
		courseRepository:    courseRepo,
		userRepository:      userRepo,
		notifier:            fanout,
	}
}

// RegisterReviewRoutes registers review and comment routes
func (h *ReviewHandler) RegisterReviewRoutes(g *echo.Group) {
	g.GET("/users/:id/reviews", h.ListUserReviews)
	g.POST("/professors/:id/reviews", h.CreateReview)
	g.PUT("/professors/:id/reviews/:reviewId", h.UpdateReview)
	g.DELETE("/professors/:id/reviews/:reviewId", h.DeleteReview)
	g.POST("/professors/:id/reviews/:reviewId/comments", h.AddComment)
	g.PUT("/professors/:id/reviews/:reviewId/comments/:commentId", h.UpdateComment)
	g.DELETE("/professors/:id/reviews/:reviewId/comments/:commentId", h.RemoveComment)
}

// ListUserReviews returns the reviews visible to a user: a student sees
// their rater-side copies joined with the comments held on the professor
// side, a professor sees the ratee-side copies with their aggregate.
func (h *ReviewHandler) ListUserReviews(c echo.Context) error {
	userID, err := parseObjectID(c.Param("id"), "user ID")
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()

	user, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return respondError(c, err)
	}

	switch {
	case user.StudentAccount != nil:
		student, err := h.studentRepository.GetStudentByID(ctx, *user.StudentAccount)
		if err != nil {
			return respondError(c, err)
		}
		if len(student.Reviews) == 0 {
			return respondError(c, apperrors.NotFound("reviews for this student"))
		}

		reviews := make([]map[string]interface{}, 0, len(student.Reviews))
		for i := range student.Reviews {
			mirrored := &student.Reviews[i]
			entry := map[string]interface{}{
				"review_id":  mirrored.ID,
				"course_id":  mirrored.CourseID,
				"text":       mirrored.Text,
				"rating":     mirrored.Rating,
				"created_at": mirrored.CreatedAt,
				"comments":   []models.Comment{},
			}
			// Comments live only on the professor-side copy.
			if professor, err := h.professorRepository.GetProfessorByReviewID(ctx, mirrored.ID); err == nil {
				entry["professor"] = map[string]interface{}{
					"id":             professor.ID,
					"first_name":     professor.FirstName,
					"last_name":      professor.LastName,
					"average_rating": professor.AverageRating,
					"review_count":   professor.ReviewCount,
				}
				if original := professor.FindReview(mirrored.ID); original != nil && original.Comments != nil {
					entry["comments"] = original.Comments
				}
			}
			reviews = append(reviews, entry)
		}

		return c.JSON(http.StatusOK, map[string]interface{}{
			"userType": "student",
			"userDetails": map[string]interface{}{
				"id":         student.ID,
				"first_name": student.FirstName,
				"last_name":  student.LastName,
				"gpa":        student.GPA,
			},
			"reviews": reviews,
		})

	case user.ProfessorAccount != nil:
		professor, err := h.professorRepository.GetProfessorByID(ctx, *user.ProfessorAccount)
		if err != nil {
			return respondError(c, err)
		}
		if len(professor.Reviews) == 0 {
			return respondError(c, apperrors.NotFound("reviews for this professor"))
		}

		return c.JSON(http.StatusOK, map[string]interface{}{
			"userType": "professor",
			"userDetails": map[string]interface{}{
				"id":             professor.ID,
				"first_name":     professor.FirstName,
				"last_name":      professor.LastName,
				"average_rating": professor.AverageRating,
				"review_count":   professor.ReviewCount,
			},
			"reviews": professor.Reviews,
		})

	default:
		return respondError(c, apperrors.NotFound("reviews for this user"))
	}
}

// CreateReview submits a new review against a professor and course
func (h *ReviewHandler) CreateReview(c echo.Context) error {
	claims := middleware.CurrentClaims(c)
	if !roles.Can(claims.Role, roles.SubmitReview) {
		return respondError(c, apperrors.Forbidden("only students can submit reviews"))
	}

	professorID, err := parseObjectID(c.Param("id"), "professor ID")
	if err != nil {
		return respondError(c, err)
	}

	var req models.CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperrors.Validation("invalid request payload"))
	}
	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return respondError(c, apperrors.Validation(err.Error()))
	}

	courseID, err := parseObjectID(req.CourseID, "course ID")
	if err != nil {
		return respondError(c, err)
	}
	studentID, err := parseObjectID(claims.AccountID, "student account")
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()

	student, err := h.studentRepository.GetStudentByID(ctx, studentID)
	if err != nil {
		return respondError(c, err)
	}
	if student.GPA == nil {
		return respondError(c, apperrors.NotEligible("update your profile GPA before submitting a review"))
	}

	course, err := h.courseRepository.GetCourseByID(ctx, courseID)
	if err != nil {
		return respondError(c, err)
	}
	if !course.HasProfessor(professorID) {
		return respondError(c, apperrors.NotFound("course for this professor"))
	}

	professor, err := h.reviewRepository.CreateReview(ctx, repositories.CreateReviewParams{
		StudentID:   studentID,
		ProfessorID: professorID,
		CourseID:    courseID,
		Text:        req.Text,
		Rating:      *req.Rating,
		GPA:         *student.GPA,
	})
	if err != nil {
		return respondError(c, err)
	}

	if created := findReviewByTriple(professor, studentID, courseID); created != nil {
		h.notifyProfessor(c, professorID, func(recipient primitive.ObjectID) {
			h.notifier.ReviewSubmitted(recipient, student.FirstName, req.Text, created.ID)
		})
	}

	return c.JSON(http.StatusOK, professor)
}

// UpdateReview edits a review: the rater may change text and rating, an
// administrator text only.
func (h *ReviewHandler) UpdateReview(c echo.Context) error {
	claims := middleware.CurrentClaims(c)

	professorID, err := parseObjectID(c.Param("id"), "professor ID")
	if err != nil {
		return respondError(c, err)
	}
	reviewID, err := parseObjectID(c.Param("reviewId"), "review ID")
	if err != nil {
		return respondError(c, err)
	}

	var req models.UpdateReviewRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperrors.Validation("invalid request payload"))
	}
	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return respondError(c, apperrors.Validation(err.Error()))
	}

	ctx := c.Request().Context()

	switch {
	case roles.Can(claims.Role, roles.EditReviewText):
		professor, err := h.reviewRepository.UpdateReviewTextByAdmin(ctx, professorID, reviewID, req.Text)
		if err != nil {
			return respondError(c, err)
		}
		h.notifyProfessor(c, professorID, func(recipient primitive.ObjectID) {
			h.notifier.ReviewModerated(recipient, reviewID)
		})
		return c.JSON(http.StatusOK, professor)

	case roles.Can(claims.Role, roles.EditOwnReview):
		if req.Rating == nil {
			return respondError(c, apperrors.Validation("rating is required"))
		}

		studentID, err := parseObjectID(claims.AccountID, "student account")
		if err != nil {
			return respondError(c, err)
		}
		student, err := h.studentRepository.GetStudentByID(ctx, studentID)
		if err != nil {
			return respondError(c, err)
		}
		if student.GPA == nil {
			return respondError(c, apperrors.NotEligible("update your profile GPA before editing a review"))
		}

		professor, err := h.reviewRepository.UpdateReviewByStudent(ctx, repositories.UpdateReviewParams{
			StudentID:   studentID,
			ProfessorID: professorID,
			ReviewID:    reviewID,
			Text:        req.Text,
			Rating:      *req.Rating,
			GPA:         *student.GPA,
		})
		if err != nil {
			return respondError(c, err)
		}
		h.notifyProfessor(c, professorID, func(recipient primitive.ObjectID) {
			h.notifier.ReviewUpdated(recipient, student.FirstName, reviewID)
		})
		return c.JSON(http.StatusOK, professor)

	default:
		return respondError(c, apperrors.Forbidden("only the rater or an administrator can edit a review"))
	}
}

// DeleteReview removes a review and its mirrored copy
func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	claims := middleware.CurrentClaims(c)

	professorID, err := parseObjectID(c.Param("id"), "professor ID")
	if err != nil {
		return respondError(c, err)
	}
	reviewID, err := parseObjectID(c.Param("reviewId"), "review ID")
	if err != nil {
		return respondError(c, err)
	}

	var studentID *primitive.ObjectID
	switch {
	case roles.Can(claims.Role, roles.DeleteAnyReview):
		// admin: no ownership restriction
	case roles.Can(claims.Role, roles.DeleteOwnReview):
		id, err := parseObjectID(claims.AccountID, "student account")
		if err != nil {
			return respondError(c, err)
		}
		studentID = &id
	default:
		return respondError(c, apperrors.Forbidden("only the rater or an administrator can delete a review"))
	}

	if err := h.reviewRepository.DeleteReview(c.Request().Context(), professorID, reviewID, studentID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Review deleted successfully"})
}

// AddComment appends a comment to a review
func (h *ReviewHandler) AddComment(c echo.Context) error {
	claims := middleware.CurrentClaims(c)
	if !roles.Can(claims.Role, roles.CommentOnReview) {
		return respondError(c, apperrors.Forbidden("you cannot comment on reviews"))
	}

	professorID, err := parseObjectID(c.Param("id"), "professor ID")
	if err != nil {
		return respondError(c, err)
	}
	reviewID, err := parseObjectID(c.Param("reviewId"), "review ID")
	if err != nil {
		return respondError(c, err)
	}
	authorUserID, err := parseObjectID(claims.UserID, "user ID")
	if err != nil {
		return respondError(c, err)
	}

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperrors.Validation("invalid request payload"))
	}
	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return respondError(c, apperrors.Validation(err.Error()))
	}

	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    authorUserID,
		Text:      req.Text,
		CreatedAt: time.Now(),
	}

	ctx := c.Request().Context()
	review, err := h.reviewRepository.AddComment(ctx, professorID, reviewID, comment)
	if err != nil {
		return respondError(c, err)
	}

	h.notifyCommentTarget(c, professorID, review, comment, claims)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Comment added successfully",
		"review":  review,
	})
}

// UpdateComment edits a comment's text
func (h *ReviewHandler) UpdateComment(c echo.Context) error {
	return h.mutateComment(c, func(ctx echo.Context, professorID, reviewID, commentID primitive.ObjectID, caller repositories.Caller) (*models.Review, error) {
		var req models.UpdateCommentRequest
		if err := ctx.Bind(&req); err != nil {
			return nil, apperrors.Validation("invalid request payload")
		}
		validate := validator.New()
		if err := validate.Struct(req); err != nil {
			return nil, apperrors.Validation(err.Error())
		}
		return h.reviewRepository.UpdateComment(ctx.Request().Context(), professorID, reviewID, commentID, caller, req.Text)
	}, "Comment updated successfully")
}

// RemoveComment deletes a comment
func (h *ReviewHandler) RemoveComment(c echo.Context) error {
	return h.mutateComment(c, func(ctx echo.Context, professorID, reviewID, commentID primitive.ObjectID, caller repositories.Caller) (*models.Review, error) {
		return h.reviewRepository.RemoveComment(ctx.Request().Context(), professorID, reviewID, commentID, caller)
	}, "Comment removed successfully")
}

func (h *ReviewHandler) mutateComment(
	c echo.Context,
	op func(echo.Context, primitive.ObjectID, primitive.ObjectID, primitive.ObjectID, repositories.Caller) (*models.Review, error),
	message string,
) error {
	claims := middleware.CurrentClaims(c)

	professorID, err := parseObjectID(c.Param("id"), "professor ID")
	if err != nil {
		return respondError(c, err)
	}
	reviewID, err := parseObjectID(c.Param("reviewId"), "review ID")
	if err != nil {
		return respondError(c, err)
	}
	commentID, err := parseObjectID(c.Param("commentId"), "comment ID")
	if err != nil {
		return respondError(c, err)
	}
	userID, err := parseObjectID(claims.UserID, "user ID")
	if err != nil {
		return respondError(c, err)
	}

	caller := repositories.Caller{UserID: userID, IsAdmin: claims.Role == roles.Admin}

	review, err := op(c, professorID, reviewID, commentID, caller)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": message,
		"review":  review,
	})
}

// notifyProfessor resolves the professor's owning user and hands it to emit,
// skipping the emit entirely for self-authored mutations.
func (h *ReviewHandler) notifyProfessor(c echo.Context, professorID primitive.ObjectID, emit func(primitive.ObjectID)) {
	claims := middleware.CurrentClaims(c)

	user, err := h.userRepository.GetUserByProfessorAccount(c.Request().Context(), professorID)
	if err != nil {
		return // fan-out is best-effort; the mutation already succeeded
	}
	if user.ID.Hex() == claims.UserID {
		return // no self-notification
	}
	emit(user.ID)
}

// notifyCommentTarget routes a comment notification: the rater hears about
// comments on their review, unless the rater is the author, in which case the
// professor's user hears instead. The author never notifies themself.
func (h *ReviewHandler) notifyCommentTarget(c echo.Context, professorID primitive.ObjectID, review *models.Review, comment models.Comment, claims *models.JwtCustomClaims) {
	ctx := c.Request().Context()

	raterUser, err := h.userRepository.GetUserByStudentAccount(ctx, review.StudentID)
	if err != nil {
		return
	}

	commenterName := h.commenterName(c, claims)

	if raterUser.ID == comment.UserID {
		// The rater commented on their own review: tell the professor.
		professorUser, err := h.userRepository.GetUserByProfessorAccount(ctx, professorID)
		if err != nil || professorUser.ID == comment.UserID {
			return
		}
		h.notifier.CommentReceived(professorUser.ID, commenterName, comment.ID)
		return
	}

	if claims.Role == roles.Professor {
		h.notifier.CommentByProfessor(raterUser.ID, commenterName, comment.ID)
		return
	}
	h.notifier.CommentReceived(raterUser.ID, commenterName, comment.ID)
}

func (h *ReviewHandler) commenterName(c echo.Context, claims *models.JwtCustomClaims) string {
	ctx := c.Request().Context()

	accountID, err := primitive.ObjectIDFromHex(claims.AccountID)
	if err != nil {
		return "a moderator"
	}

	switch claims.Role {
	case roles.Professor:
		professor, err := h.professorRepository.GetProfessorByID(ctx, accountID)
		if err != nil {
			return "a professor"
		}
		return professor.FirstName + " " + professor.LastName
	case roles.Student:
		student, err := h.studentRepository.GetStudentByID(ctx, accountID)
		if err != nil {
			return "a student"
		}
		return student.FirstName + " " + student.LastName
	default:
		return "a moderator"
	}
}

func findReviewByTriple(professor *models.ProfessorAccount, studentID, courseID primitive.ObjectID) *models.Review {
	for i := range professor.Reviews {
		if professor.Reviews[i].StudentID == studentID && professor.Reviews[i].CourseID == courseID {
			return &professor.Reviews[i]
		}
	}
	return nil
}
