package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-meals-api/internal/models"
	appErrors "github.com/noah-isme/campus-meals-api/pkg/errors"
	"github.com/noah-isme/campus-meals-api/pkg/jobs"
)

// JobTypeDeliverNotification is the queue job type persisting a notification.
const JobTypeDeliverNotification = "notification.deliver"

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) (bool, error)
}

type jobEnqueuer interface {
	Register(jobType string, handler jobs.Handler)
	TryEnqueue(job jobs.Job) error
}

type notificationMetrics interface {
	RecordNotificationDropped()
}

// NotificationService delivers user notices in the background. Delivery
// failures never affect the operation that triggered them.
type NotificationService struct {
	repo    notificationStore
	queue   jobEnqueuer
	metrics notificationMetrics
	logger  *zap.Logger
}

// NewNotificationService registers the delivery handler on queue.
func NewNotificationService(repo notificationStore, queue jobEnqueuer, metrics notificationMetrics, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{repo: repo, queue: queue, metrics: metrics, logger: logger}
	if queue != nil {
		queue.Register(JobTypeDeliverNotification, s.deliver)
	}
	return s
}

// ClaimReserved tells the poster that one of their items was claimed.
func (s *NotificationService) ClaimReserved(_ context.Context, item *models.FoodItem, claim *models.FoodClaim) {
	if item == nil || claim == nil {
		return
	}
	s.publish(models.Notification{
		UserID:          item.CreatedBy,
		Title:           "New claim",
		Message:         fmt.Sprintf("%d x %s reserved with code %s", claim.QuantityClaimed, item.Name, claim.ClaimCode),
		Type:            models.NotificationInfo,
		RelatedItemID:   &claim.ID,
		RelatedItemType: strPtr("food_claim"),
	})
}

// ClaimCompleted tells the student their pickup was recorded.
func (s *NotificationService) ClaimCompleted(_ context.Context, detail *models.FoodClaimDetail) {
	if detail == nil {
		return
	}
	s.publish(models.Notification{
		UserID:          detail.UserID,
		Title:           "Pickup confirmed",
		Message:         fmt.Sprintf("Enjoy your %s from %s", detail.ItemName, detail.CanteenName),
		Type:            models.NotificationSuccess,
		RelatedItemID:   &detail.ID,
		RelatedItemType: strPtr("food_claim"),
	})
}

func (s *NotificationService) publish(n models.Notification) {
	if s.queue == nil {
		return
	}
	if err := s.queue.TryEnqueue(jobs.Job{Type: JobTypeDeliverNotification, Payload: n}); err != nil {
		s.logger.Warn("notification dropped", zap.String("user_id", n.UserID), zap.Error(err))
		if s.metrics != nil {
			s.metrics.RecordNotificationDropped()
		}
	}
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(models.Notification)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.repo.Create(ctx, &n)
}

// List returns the user's recent notifications.
func (s *NotificationService) List(ctx context.Context, userID string) ([]models.Notification, error) {
	items, err := s.repo.ListByUser(ctx, userID, 50)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list notifications")
	}
	return items, nil
}

// MarkRead flags one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	ok, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return appErrors.Storage(err, "failed to update notification")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}
	return nil
}

func strPtr(s string) *string { return &s }
