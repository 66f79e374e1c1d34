package sqlstore

import (
	"context"
	"time"

	"github.com/theleywin/talent-nest-network/src/models"
	"github.com/theleywin/talent-nest-network/src/store"
)

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	row := notificationRow{
		ID:          n.ID,
		RecipientID: n.Recipient,
		SenderID:    n.Sender,
		Type:        string(n.Type),
		Content:     n.Content,
		Link:        n.Link,
		Read:        n.Read,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
	return translate(s.db.WithContext(ctx).Create(&row).Error)
}

func (s *Store) FindNotification(ctx context.Context, id string) (*models.Notification, error) {
	var row notificationRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return row.toModel(), nil
}

func (s *Store) ListNotifications(ctx context.Context, recipient string, page store.Page) ([]models.Notification, error) {
	var rows []notificationRow
	err := s.db.WithContext(ctx).
		Where("recipient_id = ?", recipient).
		Order("created_at DESC").Order("id DESC").
		Offset(page.Skip()).
		Limit(page.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	out := make([]models.Notification, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].toModel())
	}
	return out, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string, at time.Time) (*models.Notification, error) {
	db := s.db.WithContext(ctx)

	err := db.Model(&notificationRow{}).
		Where(map[string]any{"id": id, "read": false}).
		Updates(map[string]any{"read": true, "updated_at": at}).Error
	if err != nil {
		return nil, translate(err)
	}
	return s.FindNotification(ctx, id)
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, recipient string, at time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&notificationRow{}).
		Where(map[string]any{"recipient_id": recipient, "read": false}).
		Updates(map[string]any{"read": true, "updated_at": at})
	return res.RowsAffected, translate(res.Error)
}

func (s *Store) CountUnread(ctx context.Context, recipient string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&notificationRow{}).
		Where(map[string]any{"recipient_id": recipient, "read": false}).
		Count(&count).Error
	return count, translate(err)
}

func (s *Store) DeleteNotification(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&notificationRow{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
