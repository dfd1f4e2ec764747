package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ARBAZ1233678/CollabSpace/internal/document"
)

// MongoRepo implements Repository over a Mongo collection. State transitions
// are single FindOneAndUpdate/UpdateOne calls whose filters encode the
// expected prior state, so the row-level compare-and-set is done server-side.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	// ensure an index on "id" for fast lookups (id is expected unique)
	idxModel := mongo.IndexModel{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)}
	col.Indexes().CreateOne(context.Background(), idxModel)
	return &MongoRepo{col: col}
}

// lockClause matches documents userID may write to or lock: unlocked, held by
// userID, or held by a lock old enough to steal.
func lockClause(userID string, stealCutoff time.Time) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"isLocked": false},
		bson.M{"lockedBy": userID},
		bson.M{"lockedAt": bson.M{"$lte": stealCutoff}},
	}}
}

func (m *MongoRepo) Create(ctx context.Context, doc *document.Document) (string, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Version == 0 {
		doc.Version = 1
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if _, err := m.col.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return doc.ID, nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*document.Document, error) {
	var d document.Document
	err := m.col.FindOne(ctx, bson.M{"id": id}).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) ListByTeam(ctx context.Context, teamID string) ([]*document.Document, error) {
	cur, err := m.col.Find(ctx, bson.M{"teamId": teamID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*document.Document{}
	for cur.Next(ctx) {
		var d document.Document
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, cur.Err()
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) DeleteByTeam(ctx context.Context, teamID string) (int64, error) {
	res, err := m.col.DeleteMany(ctx, bson.M{"teamId": teamID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// staleOrMissing decides whether a failed compare-and-set was a lost race or
// an unknown id. The extra read runs only on the failure path.
func (m *MongoRepo) staleOrMissing(ctx context.Context, id string) error {
	n, err := m.col.CountDocuments(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrStale
}

func (m *MongoRepo) UpdateContent(ctx context.Context, id, userID string, expectedVersion int64, stealCutoff time.Time, mut ContentMutation) (*document.Document, error) {
	filter := lockClause(userID, stealCutoff)
	filter["id"] = id
	if expectedVersion > 0 {
		filter["version"] = expectedVersion
	}

	set := bson.M{"lastModifiedBy": mut.ModifiedBy, "updatedAt": mut.Now}
	if mut.Title != nil {
		set["title"] = *mut.Title
	}
	if mut.Content != nil {
		set["content"] = *mut.Content
	}
	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d document.Document
	if err := m.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, m.staleOrMissing(ctx, id)
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) AcquireLock(ctx context.Context, id, userID string, now, stealCutoff time.Time) (*document.Document, error) {
	filter := lockClause(userID, stealCutoff)
	filter["id"] = id
	update := bson.M{"$set": bson.M{"isLocked": true, "lockedBy": userID, "lockedAt": now}}

	// return the prior state so the caller can classify grant vs refresh vs steal
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	var prev document.Document
	if err := m.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&prev); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, m.staleOrMissing(ctx, id)
		}
		return nil, err
	}
	return &prev, nil
}

func (m *MongoRepo) ReleaseLock(ctx context.Context, id, holderID string) error {
	filter := bson.M{"id": id}
	if holderID != "" {
		filter["$or"] = bson.A{
			bson.M{"isLocked": false},
			bson.M{"lockedBy": holderID},
		}
	}
	update := bson.M{
		"$set":   bson.M{"isLocked": false},
		"$unset": bson.M{"lockedBy": "", "lockedAt": ""},
	}
	res, err := m.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return m.staleOrMissing(ctx, id)
	}
	return nil
}

func (m *MongoRepo) ListExpiredLocks(ctx context.Context, cutoff time.Time) ([]*document.Document, error) {
	cur, err := m.col.Find(ctx, bson.M{"isLocked": true, "lockedAt": bson.M{"$lte": cutoff}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*document.Document{}
	for cur.Next(ctx) {
		var d document.Document
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, cur.Err()
}

func (m *MongoRepo) ClearExpiredLock(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	filter := bson.M{"id": id, "isLocked": true, "lockedAt": bson.M{"$lte": cutoff}}
	update := bson.M{
		"$set":   bson.M{"isLocked": false},
		"$unset": bson.M{"lockedBy": "", "lockedAt": ""},
	}
	res, err := m.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}
