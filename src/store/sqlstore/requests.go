package sqlstore

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/theleywin/talent-nest-network/src/models"
	"github.com/theleywin/talent-nest-network/src/store"
)

func (s *Store) CreateRequest(ctx context.Context, r *models.ConnectionRequest) error {
	row := requestRow{
		ID:         r.ID,
		SenderID:   r.Sender,
		ReceiverID: r.Receiver,
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	return translate(s.db.WithContext(ctx).Create(&row).Error)
}

func (s *Store) FindRequest(ctx context.Context, id string) (*models.ConnectionRequest, error) {
	var row requestRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return row.toModel(), nil
}

func (s *Store) FindRequestByPair(ctx context.Context, sender, receiver string, status models.ConnectionStatus) (*models.ConnectionRequest, error) {
	var row requestRow
	err := s.db.WithContext(ctx).
		Where("sender_id = ? AND receiver_id = ? AND status = ?", sender, receiver, string(status)).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		return nil, translate(err)
	}
	return row.toModel(), nil
}

func (s *Store) FindPendingBetween(ctx context.Context, a, b string) (*models.ConnectionRequest, error) {
	var row requestRow
	err := s.db.WithContext(ctx).
		Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)) AND status = ?",
			a, b, b, a, string(models.ConnectionStatusPending)).
		First(&row).Error
	if err != nil {
		return nil, translate(err)
	}
	return row.toModel(), nil
}

func (s *Store) TransitionRequest(ctx context.Context, id string, from, to models.ConnectionStatus, at time.Time) error {
	return transition(s.db.WithContext(ctx), id, from, map[string]any{
		"status":     string(to),
		"updated_at": at,
	})
}

func (s *Store) ReviveRequest(ctx context.Context, id string, at time.Time) error {
	return transition(s.db.WithContext(ctx), id, models.ConnectionStatusRejected, map[string]any{
		"status":     string(models.ConnectionStatusPending),
		"created_at": at,
		"updated_at": at,
	})
}

// transition is a compare-and-set on the status column.
func transition(db *gorm.DB, id string, from models.ConnectionStatus, updates map[string]any) error {
	res := db.Model(&requestRow{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&requestRow{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return translate(err)
	}
	if count == 0 {
		return store.ErrNotFound
	}
	return store.ErrStale
}

func (s *Store) AcceptRequest(ctx context.Context, r *models.ConnectionRequest, at time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := transition(tx, r.ID, models.ConnectionStatusPending, map[string]any{
			"status":     string(models.ConnectionStatusAccepted),
			"updated_at": at,
		})
		if err != nil {
			return err
		}
		return connect(tx, r.Sender, r.Receiver)
	})
}

func (s *Store) ListPending(ctx context.Context, userID string, page store.Page) ([]models.ConnectionRequest, error) {
	var rows []requestRow
	err := s.db.WithContext(ctx).
		Where("status = ? AND (sender_id = ? OR receiver_id = ?)", string(models.ConnectionStatusPending), userID, userID).
		Order("created_at DESC").Order("id DESC").
		Offset(page.Skip()).
		Limit(page.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	out := make([]models.ConnectionRequest, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].toModel())
	}
	return out, nil
}
