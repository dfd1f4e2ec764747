package meetings

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("meeting not found")

// Repository provides meeting persistence operations
type Repository interface {
	Create(ctx context.Context, m *Meeting) (string, error)
	Get(ctx context.Context, id string) (*Meeting, error)
	ListByTeam(ctx context.Context, teamID string) ([]*Meeting, error)
	SetStatus(ctx context.Context, id string, status Status) error
	Delete(ctx context.Context, id string) error
	DeleteByTeam(ctx context.Context, teamID string) (int64, error)
}

// MemoryRepo keeps meetings in a map for tests and memory-only runs.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*Meeting
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*Meeting)}
}

func (r *MemoryRepo) Create(ctx context.Context, m *Meeting) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = StatusScheduled
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	cp := *m
	r.store[m.ID] = &cp
	return m.ID, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (*Meeting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *MemoryRepo) ListByTeam(ctx context.Context, teamID string) ([]*Meeting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*Meeting{}
	for _, m := range r.store {
		if m.TeamID == teamID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryRepo) SetStatus(ctx context.Context, id string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.store[id]
	if !ok {
		return ErrNotFound
	}
	m.Status = status
	m.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[id]; !ok {
		return ErrNotFound
	}
	delete(r.store, id)
	return nil
}

func (r *MemoryRepo) DeleteByTeam(ctx context.Context, teamID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, m := range r.store {
		if m.TeamID == teamID {
			delete(r.store, id)
			n++
		}
	}
	return n, nil
}

// MongoRepo implements Repository using a Mongo collection
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	idxModel := mongo.IndexModel{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)}
	col.Indexes().CreateOne(context.Background(), idxModel)
	return &MongoRepo{col: col}
}

func (r *MongoRepo) Create(ctx context.Context, m *Meeting) (string, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = StatusScheduled
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	if _, err := r.col.InsertOne(ctx, m); err != nil {
		return "", err
	}
	return m.ID, nil
}

func (r *MongoRepo) Get(ctx context.Context, id string) (*Meeting, error) {
	var m Meeting
	if err := r.col.FindOne(ctx, bson.M{"id": id}).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *MongoRepo) ListByTeam(ctx context.Context, teamID string) ([]*Meeting, error) {
	cur, err := r.col.Find(ctx, bson.M{"teamId": teamID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*Meeting{}
	for cur.Next(ctx) {
		var m Meeting
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, cur.Err()
}

func (r *MongoRepo) SetStatus(ctx context.Context, id string, status Status) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"id": id},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepo) DeleteByTeam(ctx context.Context, teamID string) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"teamId": teamID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
