package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrDuplicate          = errors.New("duplicate key")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type FieldError struct {
	Field  string
	Reason string
}

// ValidationError 覆盖缺字段、格式错误、唯一键冲突，统一映射为 400
type ValidationError struct {
	Fields []FieldError
	Err    error
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	msg := "user validation failed"
	if len(parts) > 0 {
		msg += ": " + strings.Join(parts, ", ")
	}
	if e.Err != nil && len(parts) == 0 {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// DuplicateError 唯一键冲突；field 为空时表示无法从驱动错误中识别
func DuplicateError(field string, cause error) error {
	if field == "" {
		return &ValidationError{Err: errors.Join(ErrDuplicate, cause)}
	}
	return &ValidationError{
		Fields: []FieldError{{Field: field, Reason: "already exists"}},
		Err:    errors.Join(ErrDuplicate, cause),
	}
}

// DuplicateField 从驱动错误信息里猜出冲突字段
func DuplicateField(msg string) string {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "uniqueid") || strings.Contains(m, "unique_id"):
		return "uniqueId"
	case strings.Contains(m, "email"):
		return "email"
	}
	return ""
}
