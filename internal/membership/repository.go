package membership

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

var ErrTeamNotFound = errors.New("team not found")

// Repository provides team persistence operations
type Repository interface {
	Create(ctx context.Context, t *Team) (string, error)
	Get(ctx context.Context, id string) (*Team, error)
	SetMember(ctx context.Context, teamID, userID string, role Role) error
	RemoveMember(ctx context.Context, teamID, userID string) error
	Delete(ctx context.Context, id string) error
}

// MemoryRepo keeps teams in a map; used in tests and memory-only deployments.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*Team
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*Team)}
}

func (m *MemoryRepo) Create(ctx context.Context, t *Team) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Plan == "" {
		t.Plan = PlanFree
	}
	t.Active = true
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	cp := *t
	cp.Members = append([]Member(nil), t.Members...)
	m.store[t.ID] = &cp
	return t.ID, nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.store[id]
	if !ok {
		return nil, ErrTeamNotFound
	}
	cp := *t
	cp.Members = append([]Member(nil), t.Members...)
	return &cp, nil
}

func (m *MemoryRepo) SetMember(ctx context.Context, teamID, userID string, role Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[teamID]
	if !ok {
		return ErrTeamNotFound
	}
	for i := range t.Members {
		if t.Members[i].UserID == userID {
			t.Members[i].Role = role
			t.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	t.Members = append(t.Members, Member{UserID: userID, Role: role})
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryRepo) RemoveMember(ctx context.Context, teamID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[teamID]
	if !ok {
		return ErrTeamNotFound
	}
	for i := range t.Members {
		if t.Members[i].UserID == userID {
			t.Members = append(t.Members[:i], t.Members[i+1:]...)
			t.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrTeamNotFound
	}
	delete(m.store, id)
	return nil
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

func (r *MongoRepo) Create(ctx context.Context, t *Team) (string, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Plan == "" {
		t.Plan = PlanFree
	}
	t.Active = true
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Members == nil {
		t.Members = []Member{}
	}
	if _, err := r.col.InsertOne(ctx, t); err != nil {
		return "", err
	}
	return t.ID, nil
}

func (r *MongoRepo) Get(ctx context.Context, id string) (*Team, error) {
	var t Team
	if err := r.col.FindOne(ctx, bson.M{"id": id}).Decode(&t); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *MongoRepo) SetMember(ctx context.Context, teamID, userID string, role Role) error {
	now := time.Now().UTC()
	// update in place when the user is already a member
	res, err := r.col.UpdateOne(ctx,
		bson.M{"id": teamID, "members.userId": userID},
		bson.M{"$set": bson.M{"members.$.role": role, "updatedAt": now}})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	res, err = r.col.UpdateOne(ctx,
		bson.M{"id": teamID},
		bson.M{"$push": bson.M{"members": Member{UserID: userID, Role: role}}, "$set": bson.M{"updatedAt": now}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrTeamNotFound
	}
	return nil
}

func (r *MongoRepo) RemoveMember(ctx context.Context, teamID, userID string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"id": teamID},
		bson.M{"$pull": bson.M{"members": bson.M{"userId": userID}}, "$set": bson.M{"updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrTeamNotFound
	}
	return nil
}

func (r *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrTeamNotFound
	}
	return nil
}
