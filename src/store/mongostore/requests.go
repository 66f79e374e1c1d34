package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/theleywin/talent-nest-network/src/models"
	"github.com/theleywin/talent-nest-network/src/store"
)

func (s *Store) CreateRequest(ctx context.Context, r *models.ConnectionRequest) error {
	id, err := oid(r.ID)
	if err != nil {
		return err
	}
	sender, err := oid(r.Sender)
	if err != nil {
		return err
	}
	receiver, err := oid(r.Receiver)
	if err != nil {
		return err
	}

	_, err = s.requests.InsertOne(ctx, requestDoc{
		ID:        id,
		Sender:    sender,
		Receiver:  receiver,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	})
	return translate(err)
}

func (s *Store) FindRequest(ctx context.Context, id string) (*models.ConnectionRequest, error) {
	objectID, err := oid(id)
	if err != nil {
		return nil, err
	}
	return s.findOneRequest(ctx, bson.M{"_id": objectID})
}

func (s *Store) FindRequestByPair(ctx context.Context, sender, receiver string, status models.ConnectionStatus) (*models.ConnectionRequest, error) {
	from, err := oid(sender)
	if err != nil {
		return nil, err
	}
	to, err := oid(receiver)
	if err != nil {
		return nil, err
	}
	return s.findOneRequest(ctx,
		bson.M{"sender": from, "receiver": to, "status": string(status)},
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
}

func (s *Store) FindPendingBetween(ctx context.Context, a, b string) (*models.ConnectionRequest, error) {
	first, err := oid(a)
	if err != nil {
		return nil, err
	}
	second, err := oid(b)
	if err != nil {
		return nil, err
	}
	return s.findOneRequest(ctx, bson.M{
		"status": string(models.ConnectionStatusPending),
		"$or": bson.A{
			bson.M{"sender": first, "receiver": second},
			bson.M{"sender": second, "receiver": first},
		},
	})
}

func (s *Store) findOneRequest(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*models.ConnectionRequest, error) {
	var doc requestDoc
	if err := s.requests.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.toModel(), nil
}

func (s *Store) TransitionRequest(ctx context.Context, id string, from, to models.ConnectionStatus, at time.Time) error {
	return s.transition(ctx, id, from, bson.M{"status": string(to), "updatedAt": at})
}

func (s *Store) ReviveRequest(ctx context.Context, id string, at time.Time) error {
	return s.transition(ctx, id, models.ConnectionStatusRejected, bson.M{
		"status":    string(models.ConnectionStatusPending),
		"createdAt": at,
		"updatedAt": at,
	})
}

// transition is a compare-and-set on the status field.
func (s *Store) transition(ctx context.Context, id string, from models.ConnectionStatus, set bson.M) error {
	objectID, err := oid(id)
	if err != nil {
		return err
	}

	res, err := s.requests.UpdateOne(ctx,
		bson.M{"_id": objectID, "status": string(from)},
		bson.M{"$set": set},
	)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := s.requests.CountDocuments(ctx, bson.M{"_id": objectID})
	if err != nil {
		return translate(err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return store.ErrStale
}

func (s *Store) AcceptRequest(ctx context.Context, r *models.ConnectionRequest, at time.Time) error {
	accept := func(ctx context.Context) error {
		err := s.transition(ctx, r.ID, models.ConnectionStatusPending, bson.M{
			"status":    string(models.ConnectionStatusAccepted),
			"updatedAt": at,
		})
		if err != nil {
			return err
		}
		return s.connect(ctx, r.Sender, r.Receiver)
	}

	if s.transactions {
		return s.withTransaction(ctx, accept)
	}
	return accept(ctx)
}

func (s *Store) ListPending(ctx context.Context, userID string, page store.Page) ([]models.ConnectionRequest, error) {
	user, err := oid(userID)
	if err != nil {
		return []models.ConnectionRequest{}, nil
	}

	cursor, err := s.requests.Find(ctx, bson.M{
		"status": string(models.ConnectionStatusPending),
		"$or":    bson.A{bson.M{"sender": user}, bson.M{"receiver": user}},
	}, pageOptions(page))
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var docs []requestDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translate(err)
	}

	out := make([]models.ConnectionRequest, 0, len(docs))
	for i := range docs {
		out = append(out, *docs[i].toModel())
	}
	return out, nil
}
