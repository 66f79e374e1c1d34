package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/theleywin/talent-nest-network/src/models"
	"github.com/theleywin/talent-nest-network/src/store"
)

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	id, err := oid(n.ID)
	if err != nil {
		return err
	}
	recipient, err := oid(n.Recipient)
	if err != nil {
		return err
	}

	doc := notificationDoc{
		ID:        id,
		Recipient: recipient,
		Type:      string(n.Type),
		Content:   n.Content,
		Link:      n.Link,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
	if n.Sender != "" {
		if doc.Sender, err = oid(n.Sender); err != nil {
			return err
		}
	}

	_, err = s.notifications.InsertOne(ctx, doc)
	return translate(err)
}

func (s *Store) FindNotification(ctx context.Context, id string) (*models.Notification, error) {
	objectID, err := oid(id)
	if err != nil {
		return nil, err
	}

	var doc notificationDoc
	if err := s.notifications.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.toModel(), nil
}

func (s *Store) ListNotifications(ctx context.Context, recipient string, page store.Page) ([]models.Notification, error) {
	user, err := oid(recipient)
	if err != nil {
		return []models.Notification{}, nil
	}

	cursor, err := s.notifications.Find(ctx, bson.M{"recipient": user}, pageOptions(page))
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var docs []notificationDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translate(err)
	}

	out := make([]models.Notification, 0, len(docs))
	for i := range docs {
		out = append(out, *docs[i].toModel())
	}
	return out, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string, at time.Time) (*models.Notification, error) {
	objectID, err := oid(id)
	if err != nil {
		return nil, err
	}

	_, err = s.notifications.UpdateOne(ctx,
		bson.M{"_id": objectID, "read": false},
		bson.M{"$set": bson.M{"read": true, "updatedAt": at}},
	)
	if err != nil {
		return nil, translate(err)
	}
	return s.FindNotification(ctx, id)
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, recipient string, at time.Time) (int64, error) {
	user, err := oid(recipient)
	if err != nil {
		return 0, nil
	}

	res, err := s.notifications.UpdateMany(ctx,
		bson.M{"recipient": user, "read": false},
		bson.M{"$set": bson.M{"read": true, "updatedAt": at}},
	)
	if err != nil {
		return 0, translate(err)
	}
	return res.ModifiedCount, nil
}

func (s *Store) CountUnread(ctx context.Context, recipient string) (int64, error) {
	user, err := oid(recipient)
	if err != nil {
		return 0, nil
	}
	n, err := s.notifications.CountDocuments(ctx, bson.M{"recipient": user, "read": false})
	return n, translate(err)
}

func (s *Store) DeleteNotification(ctx context.Context, id string) error {
	objectID, err := oid(id)
	if err != nil {
		return err
	}

	res, err := s.notifications.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
