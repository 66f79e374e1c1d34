// Package notifications persists per-user notifications and pushes each new
// one to the recipient's realtime room.
package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/theleywin/talent-nest-network/src/apperr"
	"github.com/theleywin/talent-nest-network/src/logging"
	"github.com/theleywin/talent-nest-network/src/metrics"
	"github.com/theleywin/talent-nest-network/src/models"
	"github.com/theleywin/talent-nest-network/src/realtime"
	"github.com/theleywin/talent-nest-network/src/store"
)

// Publisher delivers an event to every session in a room.
type Publisher interface {
	Publish(ctx context.Context, room, event string, data any) error
}

type Service struct {
	notifications store.NotificationStore
	users         store.UserStore
	publisher     Publisher
	now           func() time.Time
}

// NewService wires the stores and publisher. publisher may be nil, in which
// case notifications are stored but not pushed.
func NewService(notifications store.NotificationStore, users store.UserStore, publisher Publisher) *Service {
	return &Service{
		notifications: notifications,
		users:         users,
		publisher:     publisher,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create stores an unread notification and publishes it to the recipient.
// A failed publish is logged, the stored record is still returned.
func (s *Service) Create(ctx context.Context, recipient, sender string, typ models.NotificationType, content, link string) (*models.NotificationDto, error) {
	if recipient == "" {
		return nil, apperr.Validation("Recipient is required")
	}
	if !typ.Valid() {
		return nil, apperr.Validation("Invalid notification type")
	}

	now := s.now()
	n := &models.Notification{
		ID:        models.NewID(),
		Recipient: recipient,
		Sender:    sender,
		Type:      typ,
		Content:   content,
		Link:      link,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		return nil, apperr.Internal("Server error", err)
	}
	metrics.NotificationsCreated.WithLabelValues(string(typ)).Inc()

	dto := n.ToDto(s.senderSummary(ctx, sender))
	s.publish(ctx, &dto)
	return &dto, nil
}

func (s *Service) publish(ctx context.Context, dto *models.NotificationDto) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, dto.Recipient, realtime.EventNewNotification, dto); err != nil {
		logging.Warn().Err(err).
			Str("recipient", dto.Recipient).
			Str("notification", dto.ID).
			Msg("realtime publish failed")
	}
}

func (s *Service) senderSummary(ctx context.Context, sender string) *models.UserSummary {
	if sender == "" {
		return nil
	}
	summaries, err := s.users.Summaries(ctx, []string{sender})
	if err != nil {
		logging.Warn().Err(err).Str("sender", sender).Msg("failed to populate notification sender")
		return nil
	}
	if sum, ok := summaries[sender]; ok {
		return &sum
	}
	return nil
}

// List returns the user's notifications, newest first, senders populated.
func (s *Service) List(ctx context.Context, userID string, page store.Page) ([]models.NotificationDto, error) {
	list, err := s.notifications.ListNotifications(ctx, userID, page)
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}

	senders := make([]string, 0, len(list))
	for _, n := range list {
		if n.Sender != "" {
			senders = append(senders, n.Sender)
		}
	}
	summaries, err := s.users.Summaries(ctx, senders)
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}

	out := make([]models.NotificationDto, 0, len(list))
	for i := range list {
		var sender *models.UserSummary
		if sum, ok := summaries[list[i].Sender]; ok {
			sender = &sum
		}
		out = append(out, list[i].ToDto(sender))
	}
	return out, nil
}

// MarkRead flips read for a notification owned by actor. Marking an already
// read notification succeeds without a write.
func (s *Service) MarkRead(ctx context.Context, id, actor string) (*models.NotificationDto, error) {
	n, err := s.owned(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !n.Read {
		if n, err = s.notifications.MarkNotificationRead(ctx, id, s.now()); err != nil {
			return nil, apperr.Internal("Server error", err)
		}
	}
	dto := n.ToDto(s.senderSummary(ctx, n.Sender))
	return &dto, nil
}

// MarkAllRead marks every unread notification of userID and returns how many changed.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.notifications.MarkAllNotificationsRead(ctx, userID, s.now())
	if err != nil {
		return 0, apperr.Internal("Server error", err)
	}
	return n, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	n, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperr.Internal("Server error", err)
	}
	return n, nil
}

func (s *Service) Delete(ctx context.Context, id, actor string) error {
	if _, err := s.owned(ctx, id, actor); err != nil {
		return err
	}
	if err := s.notifications.DeleteNotification(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Notification not found")
		}
		return apperr.Internal("Server error", err)
	}
	return nil
}

func (s *Service) owned(ctx context.Context, id, actor string) (*models.Notification, error) {
	n, err := s.notifications.FindNotification(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Notification not found")
	}
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}
	if n.Recipient != actor {
		return nil, apperr.Forbidden("Not authorized")
	}
	return n, nil
}
