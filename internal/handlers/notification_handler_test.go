package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/campusrate/backend/internal/models"
	"github.com/campusrate/backend/internal/roles"
	"github.com/campusrate/backend/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// feedNotificationRepo keeps rows in memory with the same recipient scoping
// the Postgres implementation applies in its WHERE clauses.
type feedNotificationRepo struct {
	rows []models.Notification
}

func (r *feedNotificationRepo) CreateNotification(notification *models.Notification) error {
	r.rows = append(r.rows, *notification)
	return nil
}

func (r *feedNotificationRepo) GetByRecipientID(recipientID string) ([]models.Notification, error) {
	out := []models.Notification{}
	for _, row := range r.rows {
		if row.RecipientID == recipientID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *feedNotificationRepo) GetUnreadCount(recipientID string) (int64, error) {
	var count int64
	for _, row := range r.rows {
		if row.RecipientID == recipientID && !row.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *feedNotificationRepo) MarkAsRead(notificationID uint, recipientID string) (*models.Notification, error) {
	for i := range r.rows {
		if r.rows[i].ID == notificationID && r.rows[i].RecipientID == recipientID {
			r.rows[i].IsRead = true
			row := r.rows[i]
			return &row, nil
		}
	}
	return nil, apperrors.NotFound("notification")
}

func (r *feedNotificationRepo) DeleteNotification(notificationID uint, recipientID string) error {
	for i := range r.rows {
		if r.rows[i].ID == notificationID && r.rows[i].RecipientID == recipientID {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("notification")
}

func (r *feedNotificationRepo) find(notificationID uint) *models.Notification {
	for i := range r.rows {
		if r.rows[i].ID == notificationID {
			return &r.rows[i]
		}
	}
	return nil
}

func userClaims(userID primitive.ObjectID) *models.JwtCustomClaims {
	return &models.JwtCustomClaims{
		UserID:    userID.Hex(),
		AccountID: primitive.NewObjectID().Hex(),
		Role:      roles.Student,
	}
}

func TestMarkAsReadFlipsOwnNotification(t *testing.T) {
	owner := primitive.NewObjectID()
	repo := &feedNotificationRepo{rows: []models.Notification{
		{ID: 3, RecipientID: owner.Hex(), Message: "hello"},
	}}
	h := NewNotificationHandler(repo, &fakeProfessorRepo{})

	c, rec := newTestContext(t, http.MethodPut, "", userClaims(owner))
	c.SetParamNames("id")
	c.SetParamValues("3")

	require.NoError(t, h.MarkAsRead(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, repo.find(3))
	assert.True(t, repo.find(3).IsRead)
}

func TestMarkAsReadNeverTouchesAnotherUsersNotification(t *testing.T) {
	victim := primitive.NewObjectID()
	attacker := primitive.NewObjectID()
	repo := &feedNotificationRepo{rows: []models.Notification{
		{ID: 7, RecipientID: victim.Hex(), Message: "yours"},
	}}
	h := NewNotificationHandler(repo, &fakeProfessorRepo{})

	c, rec := newTestContext(t, http.MethodPut, "", userClaims(attacker))
	c.SetParamNames("id")
	c.SetParamValues("7")

	require.NoError(t, h.MarkAsRead(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, repo.find(7))
	assert.False(t, repo.find(7).IsRead, "another user's notification must stay unread")
}

func TestDeleteNotificationScopedToOwner(t *testing.T) {
	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()
	repo := &feedNotificationRepo{rows: []models.Notification{
		{ID: 5, RecipientID: owner.Hex()},
	}}
	h := NewNotificationHandler(repo, &fakeProfessorRepo{})

	c, rec := newTestContext(t, http.MethodDelete, "", userClaims(other))
	c.SetParamNames("id")
	c.SetParamValues("5")
	require.NoError(t, h.DeleteNotification(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotNil(t, repo.find(5), "another user's notification must survive")

	c, rec = newTestContext(t, http.MethodDelete, "", userClaims(owner))
	c.SetParamNames("id")
	c.SetParamValues("5")
	require.NoError(t, h.DeleteNotification(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, repo.find(5))
}

func TestListNotificationsResolvesReferences(t *testing.T) {
	recipient := primitive.NewObjectID()
	professorID := primitive.NewObjectID()
	reviewID := primitive.NewObjectID()
	commentID := primitive.NewObjectID()

	professor := &models.ProfessorAccount{
		ID:        professorID,
		FirstName: "Alex",
		LastName:  "Rivera",
		Reviews: []models.Review{{
			ID:     reviewID,
			Text:   "Great lectures",
			Rating: 4.5,
			Comments: []models.Comment{{
				ID:   commentID,
				Text: "Thanks for the feedback",
			}},
		}},
	}

	repo := &feedNotificationRepo{rows: []models.Notification{
		{ID: 1, RecipientID: recipient.Hex(), ReferenceID: reviewID.Hex(), ReferenceModel: models.ReferenceReview},
		{ID: 2, RecipientID: recipient.Hex(), ReferenceID: commentID.Hex(), ReferenceModel: models.ReferenceComment},
		{ID: 3, RecipientID: recipient.Hex(), ReferenceID: primitive.NewObjectID().Hex(), ReferenceModel: models.ReferenceReview},
	}}
	h := NewNotificationHandler(repo, &fakeProfessorRepo{
		professors: map[primitive.ObjectID]*models.ProfessorAccount{professorID: professor},
	})

	c, rec := newTestContext(t, http.MethodGet, "", userClaims(recipient))
	require.NoError(t, h.ListNotifications(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Notifications []struct {
			Reference *struct {
				Review *struct {
					Text string `json:"text"`
				} `json:"review"`
				Comment *struct {
					Text string `json:"text"`
				} `json:"comment"`
				Professor *struct {
					FirstName string `json:"first_name"`
				} `json:"professor"`
			} `json:"reference"`
		} `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Notifications, 3)

	reviewRef := resp.Notifications[0].Reference
	require.NotNil(t, reviewRef)
	require.NotNil(t, reviewRef.Review)
	assert.Equal(t, "Great lectures", reviewRef.Review.Text)
	assert.Equal(t, "Alex", reviewRef.Professor.FirstName)

	commentRef := resp.Notifications[1].Reference
	require.NotNil(t, commentRef)
	require.NotNil(t, commentRef.Comment)
	assert.Equal(t, "Thanks for the feedback", commentRef.Comment.Text)
	require.NotNil(t, commentRef.Review, "a comment reference carries its review")
	assert.Equal(t, "Great lectures", commentRef.Review.Text)

	// A reference whose target is gone resolves to nothing, not an error.
	assert.Nil(t, resp.Notifications[2].Reference)
}

func TestGetUnreadCountCountsOwnUnreadOnly(t *testing.T) {
	owner := primitive.NewObjectID()
	repo := &feedNotificationRepo{rows: []models.Notification{
		{ID: 1, RecipientID: owner.Hex()},
		{ID: 2, RecipientID: owner.Hex(), IsRead: true},
		{ID: 3, RecipientID: primitive.NewObjectID().Hex()},
	}}
	h := NewNotificationHandler(repo, &fakeProfessorRepo{})

	c, rec := newTestContext(t, http.MethodGet, "", userClaims(owner))
	require.NoError(t, h.GetUnreadCount(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		UnreadCount int64 `json:"unreadCount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.UnreadCount)
}
