package mongostore

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/theleywin/talent-nest-network/src/models"
	"github.com/theleywin/talent-nest-network/src/store"
)

var summaryProjection = bson.M{"username": 1, "profilePicture": 1}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = models.NewID()
	}
	id, err := oid(u.ID)
	if err != nil {
		return err
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.UpdatedAt = u.CreatedAt

	doc := userDoc{
		ID:             id,
		Username:       u.Username,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		ProfilePicture: u.ProfilePicture,
		Bio:            u.Bio,
		Followers:      []primitive.ObjectID{},
		Following:      []primitive.ObjectID{},
		Connections:    []primitive.ObjectID{},
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
	_, err = s.users.InsertOne(ctx, doc)
	return translate(err)
}

func (s *Store) FindUser(ctx context.Context, id string) (*models.User, error) {
	objectID, err := oid(id)
	if err != nil {
		return nil, err
	}

	var doc userDoc
	if err := s.users.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.toModel(), nil
}

func (s *Store) UserExists(ctx context.Context, id string) (bool, error) {
	objectID, err := oid(id)
	if err != nil {
		return false, nil
	}
	n, err := s.users.CountDocuments(ctx, bson.M{"_id": objectID}, options.Count().SetLimit(1))
	return n > 0, translate(err)
}

func (s *Store) AddEdge(ctx context.Context, kind models.EdgeKind, userID, otherID string) error {
	return s.updateEdge(ctx, "$addToSet", kind, userID, otherID)
}

func (s *Store) RemoveEdge(ctx context.Context, kind models.EdgeKind, userID, otherID string) error {
	return s.updateEdge(ctx, "$pull", kind, userID, otherID)
}

func (s *Store) updateEdge(ctx context.Context, op string, kind models.EdgeKind, userID, otherID string) error {
	user, err := oid(userID)
	if err != nil {
		return err
	}
	other, err := oid(otherID)
	if err != nil {
		return err
	}

	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": user},
		bson.M{op: bson.M{string(kind): other}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) HasEdge(ctx context.Context, kind models.EdgeKind, userID, otherID string) (bool, error) {
	user, err := oid(userID)
	if err != nil {
		return false, nil
	}
	other, err := oid(otherID)
	if err != nil {
		return false, nil
	}
	n, err := s.users.CountDocuments(ctx, bson.M{"_id": user, string(kind): other}, options.Count().SetLimit(1))
	return n > 0, translate(err)
}

func (s *Store) ConnectUsers(ctx context.Context, a, b string) error {
	if s.transactions {
		return s.withTransaction(ctx, func(sc context.Context) error {
			return s.connect(sc, a, b)
		})
	}
	return s.connect(ctx, a, b)
}

// connect writes the lower id first so a retry after a partial failure
// replays the same sequence.
func (s *Store) connect(ctx context.Context, a, b string) error {
	first, second := store.OrderedPair(a, b)
	if err := s.AddEdge(ctx, models.EdgeConnections, first, second); err != nil {
		return err
	}
	return s.AddEdge(ctx, models.EdgeConnections, second, first)
}

func (s *Store) DisconnectUsers(ctx context.Context, a, b string) error {
	first, second := store.OrderedPair(a, b)
	if err := s.RemoveEdge(ctx, models.EdgeConnections, first, second); err != nil {
		return err
	}
	return s.RemoveEdge(ctx, models.EdgeConnections, second, first)
}

func (s *Store) Summaries(ctx context.Context, ids []string) (map[string]models.UserSummary, error) {
	out := make(map[string]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cursor, err := s.users.Find(ctx,
		bson.M{"_id": bson.M{"$in": oids(ids)}},
		options.Find().SetProjection(summaryProjection),
	)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translate(err)
	}
	for _, d := range docs {
		out[d.ID.Hex()] = models.UserSummary{ID: d.ID.Hex(), Username: d.Username, ProfilePicture: d.ProfilePicture}
	}
	return out, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id string, p models.ProfileUpdate, at time.Time) (*models.User, error) {
	objectID, err := oid(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updatedAt": at}
	if p.FirstName != nil {
		set["firstName"] = *p.FirstName
	}
	if p.LastName != nil {
		set["lastName"] = *p.LastName
	}
	if p.Bio != nil {
		set["bio"] = *p.Bio
	}

	var doc userDoc
	err = s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, translate(err)
	}
	return doc.toModel(), nil
}

func (s *Store) SearchUsers(ctx context.Context, query string, limit int) ([]models.UserSummary, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"username": pattern},
		bson.M{"firstName": pattern},
		bson.M{"lastName": pattern},
	}}

	cursor, err := s.users.Find(ctx, filter, options.Find().
		SetProjection(summaryProjection).
		SetSort(bson.D{{Key: "username", Value: 1}}).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translate(err)
	}

	out := make([]models.UserSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.UserSummary{ID: d.ID.Hex(), Username: d.Username, ProfilePicture: d.ProfilePicture})
	}
	return out, nil
}

// withTransaction runs fn inside a session transaction.
func (s *Store) withTransaction(ctx context.Context, fn func(context.Context) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
