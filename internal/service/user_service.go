package service

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"user-management/internal/core/cache"
	"user-management/internal/domain"
)

var userMutations = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "users_mutations_total", Help: "User store mutations by operation and outcome"},
	[]string{"op", "outcome"},
)

func init() { prometheus.MustRegister(userMutations) }

func observe(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	userMutations.WithLabelValues(op, outcome).Inc()
}

type UserService struct {
	store domain.UserStore
	cache *cache.Cache // 可为 nil
	ttl   time.Duration
	log   *zap.Logger
}

type Option func(*UserService)

func WithCache(c *cache.Cache, ttl time.Duration) Option {
	return func(s *UserService) { s.cache, s.ttl = c, ttl }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *UserService) { s.log = l }
}

func NewUserService(store domain.UserStore, opts ...Option) *UserService {
	s := &UserService{store: store, ttl: time.Minute, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

func cacheKey(id string) string { return "user:" + id }

func (s *UserService) Create(ctx context.Context, in domain.UserInput) (*domain.User, error) {
	u, err := in.Build()
	if err == nil {
		err = s.store.Insert(ctx, u)
	}
	observe("create", err)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ImportAll 批量导入，任一条失败则整体失败
func (s *UserService) ImportAll(ctx context.Context, ins []domain.UserInput) ([]domain.User, error) {
	// mongo 与 gorm 的批量写入都不接受空切片
	if len(ins) == 0 {
		return []domain.User{}, nil
	}
	us := make([]*domain.User, 0, len(ins))
	var fields []domain.FieldError
	for i, in := range ins {
		u, err := in.Build()
		if err != nil {
			ve, ok := domain.AsValidation(err)
			if !ok {
				return nil, err
			}
			for _, f := range ve.Fields {
				fields = append(fields, domain.FieldError{Field: "users." + strconv.Itoa(i) + "." + f.Field, Reason: f.Reason})
			}
			continue
		}
		us = append(us, u)
	}
	if len(fields) > 0 {
		err := &domain.ValidationError{Fields: fields}
		observe("import", err)
		return nil, err
	}
	err := s.store.InsertMany(ctx, us)
	observe("import", err)
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, len(us))
	for i, u := range us {
		out[i] = *u
	}
	return out, nil
}

// List 不过滤软删记录
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.store.FindAll(ctx, domain.ListFilter{})
}

func (s *UserService) ListDeleted(ctx context.Context) ([]domain.User, error) {
	deleted := true
	return s.store.FindAll(ctx, domain.ListFilter{Deleted: &deleted})
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	if s.cache == nil {
		return s.store.FindByID(ctx, id)
	}
	return cache.GetOrLoadJSON(s.cache, ctx, cacheKey(id), s.ttl, func(ctx context.Context) (*domain.User, error) {
		return s.store.FindByID(ctx, id)
	})
}

func (s *UserService) Update(ctx context.Context, id string, in domain.UserInput) (*domain.User, error) {
	u, err := in.Build()
	if err != nil {
		observe("update", err)
		return nil, err
	}
	out, err := s.store.ReplaceByID(ctx, id, domain.Replacement{User: *u, Delete: in.Delete})
	observe("update", err)
	s.invalidate(ctx, id)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetDeleted 批量软删/恢复；没有任何记录被修改时返回 ErrNotFound
func (s *UserService) SetDeleted(ctx context.Context, ids []string, deleted bool) (*domain.BulkResult, error) {
	res, err := s.store.SetDeleteFlag(ctx, ids, deleted)
	observe("bulk_flag", err)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, ids...)
	if res.ModifiedCount == 0 {
		return res, domain.ErrNotFound
	}
	return res, nil
}

func (s *UserService) Ping(ctx context.Context) error { return s.store.Ping(ctx) }

func (s *UserService) invalidate(ctx context.Context, ids ...string) {
	if s.cache == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cacheKey(id)
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.log.Warn("cache invalidate failed", zap.Strings("ids", ids), zap.Error(err))
	}
}
