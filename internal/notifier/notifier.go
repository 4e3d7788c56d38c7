// Package notifier emits best-effort notifications for review and comment
// mutations. Every emit is fire-and-forget: a failed persist or push is
// logged and never reaches the caller, and the caller's response never waits
// on it.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/campusrate/backend/internal/models"
	"github.com/campusrate/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const dispatchTimeout = 5 * time.Second

// Notifier fans out notifications to the Postgres feed and, when a messaging
// client is configured, to an FCM topic per user. A nil messaging client
// disables push.
type Notifier struct {
	repo      repositories.NotificationRepository
	messaging *messaging.Client
	log       *slog.Logger
	wg        sync.WaitGroup
}

// New creates a new Notifier
func New(repo repositories.NotificationRepository, messagingClient *messaging.Client, log *slog.Logger) *Notifier {
	return &Notifier{
		repo:      repo,
		messaging: messagingClient,
		log:       log,
	}
}

// ReviewSubmitted notifies the professor's user about a new review.
func (n *Notifier) ReviewSubmitted(recipientUserID primitive.ObjectID, raterName, text string, reviewID primitive.ObjectID) {
	n.dispatch(&models.Notification{
		RecipientID:    recipientUserID.Hex(),
		Message:        fmt.Sprintf("%s has left a review for your course: %s", raterName, text),
		ReferenceID:    reviewID.Hex(),
		ReferenceModel: models.ReferenceReview,
	})
}

// ReviewUpdated notifies the professor's user about an edited review.
func (n *Notifier) ReviewUpdated(recipientUserID primitive.ObjectID, raterName string, reviewID primitive.ObjectID) {
	n.dispatch(&models.Notification{
		RecipientID:    recipientUserID.Hex(),
		Message:        fmt.Sprintf("%s has updated their review of your course.", raterName),
		ReferenceID:    reviewID.Hex(),
		ReferenceModel: models.ReferenceReview,
	})
}

// ReviewModerated notifies the professor's user about an admin text edit.
func (n *Notifier) ReviewModerated(recipientUserID primitive.ObjectID, reviewID primitive.ObjectID) {
	n.dispatch(&models.Notification{
		RecipientID:    recipientUserID.Hex(),
		Message:        "A review of your course was updated by a moderator.",
		ReferenceID:    reviewID.Hex(),
		ReferenceModel: models.ReferenceReview,
	})
}

// CommentByProfessor notifies the review's rater that a professor commented.
func (n *Notifier) CommentByProfessor(recipientUserID primitive.ObjectID, commenterName string, commentID primitive.ObjectID) {
	n.dispatch(&models.Notification{
		RecipientID:    recipientUserID.Hex(),
		Message:        fmt.Sprintf("Professor %s commented on your review.", commenterName),
		ReferenceID:    commentID.Hex(),
		ReferenceModel: models.ReferenceComment,
	})
}

// CommentReceived notifies a user that their review received a comment.
func (n *Notifier) CommentReceived(recipientUserID primitive.ObjectID, commenterName string, commentID primitive.ObjectID) {
	n.dispatch(&models.Notification{
		RecipientID:    recipientUserID.Hex(),
		Message:        fmt.Sprintf("Your review received a comment from %s.", commenterName),
		ReferenceID:    commentID.Hex(),
		ReferenceModel: models.ReferenceComment,
	})
}

// Wait blocks until all in-flight dispatches finish. Used on shutdown and in
// tests; request handlers never call it.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) dispatch(notification *models.Notification) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		if err := n.repo.CreateNotification(notification); err != nil {
			n.log.Error("notification persist failed",
				"recipient", notification.RecipientID, "error", err)
			return
		}

		if n.messaging == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		_, err := n.messaging.Send(ctx, &messaging.Message{
			Topic: "user-" + notification.RecipientID,
			Notification: &messaging.Notification{
				Title: "CampusRate",
				Body:  notification.Message,
			},
		})
		if err != nil {
			n.log.Warn("notification push failed",
				"recipient", notification.RecipientID, "error", err)
		}
	}()
}
