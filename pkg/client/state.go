package client

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"user-management/internal/domain"
)

// GenericFailure 非 400 失败统一提示
const GenericFailure = "Something Went Wrong"

// API State 依赖的远端操作，*Client 实现了它
type API interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListDeletedUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	CreateUser(ctx context.Context, in domain.UserInput) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, in domain.UserInput) (*domain.User, error)
	SetDeleted(ctx context.Context, ids []string, deleted bool) (*domain.BulkResult, error)
}

type Notifier interface {
	Success(msg string)
	Failure(msg string)
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Failure(string) {}

// Suggestion 自动补全条目
type Suggestion struct {
	Name string `json:"name"`
	ID   string `json:"_id"`
}

// BulkKind 批量置位的场景，决定 delete 取值、提示文案和刷新哪个列表
type BulkKind int

const (
	DeleteSingle BulkKind = iota
	DeleteSelected
	RestoreSingle
	RestoreSelected
)

func (k BulkKind) deleted() bool { return k == DeleteSingle || k == DeleteSelected }

func (k BulkKind) successMsg() string {
	switch k {
	case DeleteSingle:
		return "User Deleted Successfully"
	case DeleteSelected:
		return "All Users Deleted Successfully"
	case RestoreSingle:
		return "User Enabled Successfully"
	default:
		return "All Users Enabled Successfully"
	}
}

// State 行数据、自动补全、选中集合以及 loading/err；并发安全
type State struct {
	api    API
	notify Notifier
	log    *zap.Logger

	mu           sync.RWMutex
	rows         []domain.User
	autocomplete []Suggestion
	selected     []string
	loading      bool
	err          error
}

type StateOption func(*State)

func WithNotifier(n Notifier) StateOption       { return func(s *State) { s.notify = n } }
func WithStateLogger(l *zap.Logger) StateOption { return func(s *State) { s.log = l } }

func NewState(api API, opts ...StateOption) *State {
	s := &State{api: api, notify: nopNotifier{}, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *State) Rows() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.User(nil), s.rows...)
}

func (s *State) Autocomplete() []Suggestion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Suggestion(nil), s.autocomplete...)
}

func (s *State) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.selected...)
}

func (s *State) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *State) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *State) begin(clearAutocomplete bool) {
	s.mu.Lock()
	s.loading = true
	s.err = nil
	if clearAutocomplete {
		s.autocomplete = nil
	}
	s.mu.Unlock()
}

func (s *State) end(err error) {
	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.err = err
	}
	s.mu.Unlock()
}

// setRows err 非 nil 时清空行
func (s *State) setRows(rows []domain.User, err error, rebuild bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.rows = []domain.User{}
		s.autocomplete = nil
		return
	}
	s.rows = rows
	if rebuild {
		s.autocomplete = buildAutocomplete(rows)
	}
}

// buildAutocomplete 先全部姓名，再全部 uniqueId
func buildAutocomplete(rows []domain.User) []Suggestion {
	if len(rows) == 0 {
		return nil
	}
	out := make([]Suggestion, 0, 2*len(rows))
	for _, u := range rows {
		out = append(out, Suggestion{Name: u.FullName(), ID: u.ID})
	}
	for _, u := range rows {
		out = append(out, Suggestion{Name: u.UniqueID, ID: u.ID})
	}
	return out
}

func (s *State) FetchActive(ctx context.Context) error {
	s.begin(false)
	rows, err := s.api.ListUsers(ctx)
	s.setRows(rows, err, true)
	s.end(err)
	return err
}

func (s *State) FetchDeleted(ctx context.Context) error {
	s.begin(true)
	rows, err := s.api.ListDeletedUsers(ctx)
	s.setRows(rows, err, true)
	s.end(err)
	return err
}

// FetchOne 行集合替换为单条记录，不动自动补全
func (s *State) FetchOne(ctx context.Context, id string) error {
	s.begin(false)
	u, err := s.api.GetUser(ctx, id)
	var rows []domain.User
	if err == nil {
		rows = []domain.User{*u}
	}
	s.setRows(rows, err, false)
	s.end(err)
	return err
}

func (s *State) Create(ctx context.Context, in domain.UserInput) (*domain.User, error) {
	s.begin(false)
	u, err := s.api.CreateUser(ctx, in)
	s.end(err)
	if err != nil {
		s.fail(err)
		return nil, err
	}
	s.notify.Success("ID " + u.ID + " created successfully!")
	_ = s.FetchActive(ctx)
	return u, nil
}

func (s *State) Update(ctx context.Context, id string, in domain.UserInput) (*domain.User, error) {
	s.begin(false)
	u, err := s.api.UpdateUser(ctx, id, in)
	s.end(err)
	if err != nil {
		s.fail(err)
		return nil, err
	}
	s.notify.Success("ID " + id + " Edited successfully!")
	_ = s.FetchActive(ctx)
	return u, nil
}

// BulkFlag 置位后刷新对应列表；批量场景清空选中集合
func (s *State) BulkFlag(ctx context.Context, kind BulkKind, ids []string) (*domain.BulkResult, error) {
	s.begin(false)
	res, err := s.api.SetDeleted(ctx, ids, kind.deleted())
	s.end(err)
	if err != nil {
		s.fail(err)
		return nil, err
	}
	if kind == DeleteSelected || kind == RestoreSelected {
		s.Clear()
	}
	s.notify.Success(kind.successMsg())
	if kind.deleted() {
		_ = s.FetchActive(ctx)
	} else {
		_ = s.FetchDeleted(ctx)
	}
	return res, nil
}

func (s *State) fail(err error) {
	var ae *APIError
	if errors.As(err, &ae) && ae.Status == http.StatusBadRequest && ae.Message != "" {
		s.notify.Failure(ae.Message)
		return
	}
	s.log.Debug("request failed", zap.Error(err))
	s.notify.Failure(GenericFailure)
}

// Toggle 已选则取消，未选则追加
func (s *State) Toggle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, x := range s.selected {
		if x == id {
			s.selected = append(s.selected[:i:i], s.selected[i+1:]...)
			return
		}
	}
	s.selected = append(s.selected, id)
}

// SelectAllActive 只选 delete=false 的行
func (s *State) SelectAllActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = s.selected[:0:0]
	for _, u := range s.rows {
		if !u.Delete {
			s.selected = append(s.selected, u.ID)
		}
	}
}

func (s *State) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make([]string, 0, len(s.rows))
	for _, u := range s.rows {
		s.selected = append(s.selected, u.ID)
	}
}

func (s *State) Clear() {
	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()
}

func (s *State) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, x := range s.selected {
		if x == id {
			return true
		}
	}
	return false
}
