package domain

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// User 用户记录；Delete 为软删标记，记录从不物理删除
type User struct {
	ID           string    `json:"_id"`
	UniqueID     string    `json:"uniqueId"     validate:"required"`
	FirstName    string    `json:"firstName"    validate:"required"`
	LastName     string    `json:"lastName"     validate:"required"`
	Email        string    `json:"email"        validate:"required,looseemail"`
	Gender       Gender    `json:"gender,omitempty"      validate:"omitempty,oneof=Male Female Other"`
	SelectedDate time.Time `json:"selectedDate"`
	FullAddress  string    `json:"fullAddress"  validate:"required"`
	PhoneNumber  *int64    `json:"phoneNumber,omitempty" validate:"omitempty,phone10"`
	Status       Status    `json:"status,omitempty"      validate:"omitempty,oneof=Active Inactive"`
	Delete       bool      `json:"delete"`
}

// FullName 供自动补全使用
func (u User) FullName() string { return u.FirstName + " " + u.LastName }

// UserInput 是创建/更新请求体，字段保持宽松，由 Build 统一转换+校验
type UserInput struct {
	UniqueID     string      `json:"uniqueId"`
	FirstName    string      `json:"firstName"`
	LastName     string      `json:"lastName"`
	Email        string      `json:"email"`
	Gender       *string     `json:"gender,omitempty"`
	SelectedDate string      `json:"selectedDate"`
	FullAddress  string      `json:"fullAddress"`
	PhoneNumber  json.Number `json:"phoneNumber,omitempty"`
	Status       *string     `json:"status,omitempty"`
	Delete       *bool       `json:"delete,omitempty"`
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Build 把请求体转成 User：先转换类型，再规范化，最后校验
func (in UserInput) Build() (*User, error) {
	var fields []FieldError
	u := &User{
		UniqueID:    in.UniqueID,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		FullAddress: in.FullAddress,
	}
	if in.Delete != nil {
		u.Delete = *in.Delete
	}

	// 显式传空串不算缺省，按枚举不合法处理
	if in.Gender != nil {
		if *in.Gender == "" {
			fields = append(fields, FieldError{Field: "gender", Reason: "`` is not a valid enum value"})
		}
		u.Gender = Gender(*in.Gender)
	}
	if in.Status != nil {
		if *in.Status == "" {
			fields = append(fields, FieldError{Field: "status", Reason: "`` is not a valid enum value"})
		}
		u.Status = Status(*in.Status)
	}

	switch {
	case strings.TrimSpace(in.SelectedDate) == "":
		fields = append(fields, FieldError{Field: "selectedDate", Reason: "is required"})
	default:
		t, ok := parseDate(in.SelectedDate)
		if !ok {
			fields = append(fields, FieldError{Field: "selectedDate", Reason: "is not a valid date"})
		}
		u.SelectedDate = t
	}

	if p := strings.TrimSpace(in.PhoneNumber.String()); p != "" {
		n, err := json.Number(p).Int64()
		if err != nil {
			fields = append(fields, FieldError{Field: "phoneNumber", Reason: p + " is not a valid phone number"})
		} else {
			u.PhoneNumber = &n
		}
	}

	u.Normalize()
	if err := Validate(u); err != nil {
		ve, ok := AsValidation(err)
		if !ok {
			return nil, err
		}
		// 同一字段只报一次，转换阶段的原因优先
		for _, f := range ve.Fields {
			if !hasField(fields, f.Field) {
				fields = append(fields, f)
			}
		}
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	return u, nil
}

// OptString 空串返回 nil，用于可选的枚举字段
func OptString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func hasField(fields []FieldError, name string) bool {
	for _, f := range fields {
		if f.Field == name {
			return true
		}
	}
	return false
}

// Normalize 对齐 email 的 lowercase + trim
func (u *User) Normalize() {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
}

// Replacement 是 PUT 的整体替换；Delete 为 nil 时保留库中原值
type Replacement struct {
	User   User
	Delete *bool
}

type ListFilter struct {
	Deleted *bool
}

// BulkResult 对应 update-many 的原始结果
type BulkResult struct {
	Acknowledged  bool    `json:"acknowledged"`
	MatchedCount  int64   `json:"matchedCount"`
	ModifiedCount int64   `json:"modifiedCount"`
	UpsertedID    *string `json:"upsertedId"`
	UpsertedCount int64   `json:"upsertedCount"`
}

type UserStore interface {
	Insert(ctx context.Context, u *User) error
	InsertMany(ctx context.Context, us []*User) error
	FindAll(ctx context.Context, f ListFilter) ([]User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	ReplaceByID(ctx context.Context, id string, r Replacement) (*User, error)
	SetDeleteFlag(ctx context.Context, ids []string, deleted bool) (*BulkResult, error)
	EnsureIndexes(ctx context.Context) error
	Ping(ctx context.Context) error
}
