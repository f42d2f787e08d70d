package repo

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"user-management/internal/domain"
)

// MemoryUserStore 进程内实现，本地开发与测试用；id 与 Mongo 一样是 ObjectID hex
type MemoryUserStore struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]domain.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{byID: make(map[string]domain.User)}
}

func (s *MemoryUserStore) EnsureIndexes(context.Context) error { return nil }
func (s *MemoryUserStore) Ping(context.Context) error          { return nil }

// conflict 调用方持锁
func (s *MemoryUserStore) conflict(u *domain.User, skipID string) error {
	for id, x := range s.byID {
		if id == skipID {
			continue
		}
		if x.UniqueID == u.UniqueID {
			return domain.DuplicateError("uniqueId", errors.New("uniqueId already exists"))
		}
		if x.Email == u.Email {
			return domain.DuplicateError("email", errors.New("email already exists"))
		}
	}
	return nil
}

func (s *MemoryUserStore) put(u *domain.User) {
	u.ID = primitive.NewObjectID().Hex()
	s.byID[u.ID] = *u
	s.order = append(s.order, u.ID)
}

func (s *MemoryUserStore) Insert(_ context.Context, u *domain.User) error {
	u.Normalize()
	if err := domain.Validate(u); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conflict(u, ""); err != nil {
		return err
	}
	s.put(u)
	return nil
}

func (s *MemoryUserStore) InsertMany(_ context.Context, us []*domain.User) error {
	if err := checkBatch(us); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range us {
		if err := s.conflict(u, ""); err != nil {
			return err
		}
	}
	for _, u := range us {
		s.put(u)
	}
	return nil
}

func (s *MemoryUserStore) FindAll(_ context.Context, f domain.ListFilter) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.order))
	for _, id := range s.order {
		u := s.byID[id]
		if f.Deleted != nil && u.Delete != *f.Deleted {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *MemoryUserStore) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (s *MemoryUserStore) ReplaceByID(_ context.Context, id string, rp domain.Replacement) (*domain.User, error) {
	u := rp.User
	u.Normalize()
	if err := domain.Validate(&u); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := s.conflict(&u, id); err != nil {
		return nil, err
	}
	u.ID = id
	u.Delete = cur.Delete
	if rp.Delete != nil {
		u.Delete = *rp.Delete
	}
	s.byID[id] = u
	return &u, nil
}

func (s *MemoryUserStore) SetDeleteFlag(_ context.Context, ids []string, deleted bool) (*domain.BulkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := &domain.BulkResult{Acknowledged: true}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		u, ok := s.byID[id]
		if !ok {
			continue
		}
		res.MatchedCount++
		if u.Delete != deleted {
			u.Delete = deleted
			s.byID[id] = u
			res.ModifiedCount++
		}
	}
	return res, nil
}
