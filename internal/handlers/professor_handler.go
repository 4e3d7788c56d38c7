package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/campusrate/backend/internal/middleware"
	"github.com/campusrate/backend/internal/models"
	"github.com/campusrate/backend/internal/repositories"
	"github.com/campusrate/backend/internal/roles"
	"github.com/campusrate/backend/pkg/apperrors"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProfessorHandler handles HTTP requests for the professor directory
type ProfessorHandler struct {
	professorRepository repositories.ProfessorRepository
	courseRepository    repositories.CourseRepository
	userRepository      repositories.UserRepository
}

// NewProfessorHandler creates a new ProfessorHandler
func NewProfessorHandler(professorRepo repositories.ProfessorRepository, courseRepo repositories.CourseRepository, userRepo repositories.UserRepository) *ProfessorHandler {
	return &ProfessorHandler{
		professorRepository: professorRepo,
		courseRepository:    courseRepo,
		userRepository:      userRepo,
	}
}

// RegisterPublicRoutes registers the routes that need no authentication
func (h *ProfessorHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/professors", h.IndexProfessors)
	g.GET("/professors/:id", h.GetProfessor)
}

// RegisterProfessorRoutes registers the authenticated professor routes
func (h *ProfessorHandler) RegisterProfessorRoutes(g *echo.Group) {
	g.POST("/professors/:id/courses", h.AddCourse)
	g.DELETE("/professors/:id/courses", h.RemoveCourse)
	g.POST("/professors/:id/bookmark", h.AddBookmark)
	g.DELETE("/professors/:id/bookmark", h.RemoveBookmark)
}

// IndexProfessors lists professors with optional name search and pagination
func (h *ProfessorHandler) IndexProfessors(c echo.Context) error {
	page, err := strconv.ParseInt(c.QueryParam("page"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}

	professors, total, err := h.professorRepository.SearchProfessors(
		c.Request().Context(), c.QueryParam("name"), (page-1)*limit, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"professorsData":  professors,
		"totalProfessors": total,
		"currentPage":     page,
	})
}

// GetProfessor retrieves a professor together with their courses
func (h *ProfessorHandler) GetProfessor(c echo.Context) error {
	professorID, err := parseObjectID(c.Param("id"), "professor ID")
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()

	professor, err := h.professorRepository.GetProfessorByID(ctx, professorID)
	if err != nil {
		return respondError(c, err)
	}

	courses, err := h.courseRepository.GetCoursesByProfessor(ctx, professorID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"professor": professor,
		"courses":   courses,
	})
}

// AddCourse associates the calling professor with a course
func (h *ProfessorHandler) AddCourse(c echo.Context) error {
	return h.mutateCourseAssociation(c, h.courseRepository.AddProfessor, "Professor successfully added to the course.")
}

// RemoveCourse removes the calling professor's association with a course
func (h *ProfessorHandler) RemoveCourse(c echo.Context) error {
	return h.mutateCourseAssociation(c, h.courseRepository.RemoveProfessor, "Professor successfully removed from the course.")
}

func (h *ProfessorHandler) mutateCourseAssociation(
	c echo.Context,
	op func(ctx context.Context, courseID, professorID primitive.ObjectID) error,
	message string,
) error {
	claims := middleware.CurrentClaims(c)
	if !roles.Can(claims.Role, roles.ManageOwnCourses) {
		return respondError(c, apperrors.Forbidden("only professors can manage their course associations"))
	}

	professorID, err := parseObjectID(c.Param("id"), "professor ID")
	if err != nil {
		return respondError(c, err)
	}
	// Professors only manage their own associations.
	if claims.AccountID != professorID.Hex() {
		return respondError(c, apperrors.Forbidden("you can only manage your own courses"))
	}

	var req models.CourseAssociationRequest
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

	if err := op(c.Request().Context(), courseID, professorID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": message})
}

// AddBookmark adds a professor to the caller's bookmarks
func (h *ProfessorHandler) AddBookmark(c echo.Context) error {
	return h.mutateBookmark(c, h.userRepository.AddBookmark)
}

// RemoveBookmark removes a professor from the caller's bookmarks
func (h *ProfessorHandler) RemoveBookmark(c echo.Context) error {
	return h.mutateBookmark(c, h.userRepository.RemoveBookmark)
}

func (h *ProfessorHandler) mutateBookmark(
	c echo.Context,
	op func(ctx context.Context, userID, professorID primitive.ObjectID) (*models.User, error),
) error {
	claims := middleware.CurrentClaims(c)

	professorID, err := parseObjectID(c.Param("id"), "professor ID")
	if err != nil {
		return respondError(c, err)
	}
	userID, err := parseObjectID(claims.UserID, "user ID")
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()

	// Only existing professors are bookmarkable.
	if _, err := h.professorRepository.GetProfessorByID(ctx, professorID); err != nil {
		return respondError(c, err)
	}

	user, err := op(ctx, userID, professorID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}
