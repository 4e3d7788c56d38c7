package handlers

import (
	"fmt"

	"github.com/campusrate/backend/pkg/apperrors"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// respondError renders an application error with its mapped status. Internal
// detail stays out of the response body.
func respondError(c echo.Context, err error) error {
	return c.JSON(apperrors.HTTPStatus(err), map[string]string{"error": apperrors.Message(err)})
}

func parseObjectID(value, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		return primitive.NilObjectID, apperrors.Validation(fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}
