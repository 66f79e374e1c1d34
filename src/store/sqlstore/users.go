package sqlstore

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/theleywin/talent-nest-network/src/models"
	"github.com/theleywin/talent-nest-network/src/store"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = models.NewID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.UpdatedAt = u.CreatedAt

	row := userRow{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		ProfilePicture: u.ProfilePicture,
		Bio:            u.Bio,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
	return translate(s.db.WithContext(ctx).Create(&row).Error)
}

func (s *Store) FindUser(ctx context.Context, id string) (*models.User, error) {
	db := s.db.WithContext(ctx)

	var row userRow
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}

	var edges []edgeRow
	if err := db.Where("user_id = ?", id).Order("created_at ASC").Find(&edges).Error; err != nil {
		return nil, translate(err)
	}

	u := &models.User{
		ID:             row.ID,
		Username:       row.Username,
		Email:          row.Email,
		FirstName:      row.FirstName,
		LastName:       row.LastName,
		ProfilePicture: row.ProfilePicture,
		Bio:            row.Bio,
		Followers:      []string{},
		Following:      []string{},
		Connections:    []string{},
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
	for _, e := range edges {
		switch models.EdgeKind(e.Kind) {
		case models.EdgeFollowers:
			u.Followers = append(u.Followers, e.OtherID)
		case models.EdgeFollowing:
			u.Following = append(u.Following, e.OtherID)
		case models.EdgeConnections:
			u.Connections = append(u.Connections, e.OtherID)
		}
	}
	return u, nil
}

func (s *Store) UserExists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", id).Count(&count).Error
	return count > 0, translate(err)
}

func (s *Store) AddEdge(ctx context.Context, kind models.EdgeKind, userID, otherID string) error {
	return addEdge(s.db.WithContext(ctx), kind, userID, otherID)
}

func addEdge(db *gorm.DB, kind models.EdgeKind, userID, otherID string) error {
	row := edgeRow{UserID: userID, Kind: string(kind), OtherID: otherID, CreatedAt: time.Now().UTC()}
	return translate(db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error)
}

func (s *Store) RemoveEdge(ctx context.Context, kind models.EdgeKind, userID, otherID string) error {
	return removeEdge(s.db.WithContext(ctx), kind, userID, otherID)
}

func removeEdge(db *gorm.DB, kind models.EdgeKind, userID, otherID string) error {
	err := db.Where("user_id = ? AND kind = ? AND other_id = ?", userID, string(kind), otherID).
		Delete(&edgeRow{}).Error
	return translate(err)
}

func (s *Store) HasEdge(ctx context.Context, kind models.EdgeKind, userID, otherID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&edgeRow{}).
		Where("user_id = ? AND kind = ? AND other_id = ?", userID, string(kind), otherID).
		Count(&count).Error
	return count > 0, translate(err)
}

func (s *Store) ConnectUsers(ctx context.Context, a, b string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return connect(tx, a, b)
	})
}

func connect(tx *gorm.DB, a, b string) error {
	first, second := store.OrderedPair(a, b)
	if err := addEdge(tx, models.EdgeConnections, first, second); err != nil {
		return err
	}
	return addEdge(tx, models.EdgeConnections, second, first)
}

func (s *Store) DisconnectUsers(ctx context.Context, a, b string) error {
	first, second := store.OrderedPair(a, b)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := removeEdge(tx, models.EdgeConnections, first, second); err != nil {
			return err
		}
		return removeEdge(tx, models.EdgeConnections, second, first)
	})
}

func (s *Store) Summaries(ctx context.Context, ids []string) (map[string]models.UserSummary, error) {
	out := make(map[string]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []userRow
	err := s.db.WithContext(ctx).Select("id", "username", "profile_picture").
		Where("id IN ?", ids).Find(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	for _, r := range rows {
		out[r.ID] = models.UserSummary{ID: r.ID, Username: r.Username, ProfilePicture: r.ProfilePicture}
	}
	return out, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id string, p models.ProfileUpdate, at time.Time) (*models.User, error) {
	updates := map[string]any{"updated_at": at}
	if p.FirstName != nil {
		updates["first_name"] = *p.FirstName
	}
	if p.LastName != nil {
		updates["last_name"] = *p.LastName
	}
	if p.Bio != nil {
		updates["bio"] = *p.Bio
	}

	res := s.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, store.ErrNotFound
	}
	return s.FindUser(ctx, id)
}

func (s *Store) SearchUsers(ctx context.Context, query string, limit int) ([]models.UserSummary, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	var rows []userRow
	err := s.db.WithContext(ctx).Select("id", "username", "profile_picture").
		Where(`LOWER(username) LIKE ? ESCAPE '\' OR LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern).
		Order("username ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	out := make([]models.UserSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.UserSummary{ID: r.ID, Username: r.Username, ProfilePicture: r.ProfilePicture})
	}
	return out, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
