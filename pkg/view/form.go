package view

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"user-management/internal/domain"
)

// UserForm 新增/编辑对话框的输入，全部按字符串收集
type UserForm struct {
	ID           string // 编辑时为已有记录 id
	UniqueID     string
	FirstName    string
	LastName     string
	Email        string
	Gender       string
	SelectedDate string // YYYY-MM-DD 或 RFC3339
	FullAddress  string
	PhoneNumber  string
	Status       string
}

func (f UserForm) Editing() bool { return f.ID != "" }

// FormFromUser 编辑时回填
func FormFromUser(u domain.User) UserForm {
	f := UserForm{
		ID:          u.ID,
		UniqueID:    u.UniqueID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Gender:      string(u.Gender),
		FullAddress: u.FullAddress,
		Status:      string(u.Status),
	}
	if !u.SelectedDate.IsZero() {
		f.SelectedDate = u.SelectedDate.UTC().Format(time.DateOnly)
	}
	if u.PhoneNumber != nil {
		f.PhoneNumber = strconv.FormatInt(*u.PhoneNumber, 10)
	}
	return f
}

var (
	formValidate     *validator.Validate
	formValidateOnce sync.Once
)

func fv() *validator.Validate {
	formValidateOnce.Do(func() { formValidate = validator.New() })
	return formValidate
}

// FormErrors 字段名 -> 提示
type FormErrors map[string]string

func (e FormErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, k := range formFieldOrder {
		if msg, ok := e[k]; ok {
			parts = append(parts, k+": "+msg)
		}
	}
	return strings.Join(parts, "; ")
}

var formFieldOrder = []string{
	"uniqueId", "firstName", "lastName", "email", "gender",
	"selectedDate", "fullAddress", "phoneNumber", "status",
}

// Validate 提交前的字段级校验；通过返回 nil
func (f UserForm) Validate() FormErrors {
	errs := FormErrors{}
	required := func(field, val, msg string) bool {
		if strings.TrimSpace(val) == "" {
			errs[field] = msg
			return false
		}
		return true
	}

	required("firstName", f.FirstName, "First name is required")
	required("lastName", f.LastName, "Last name is required")
	required("uniqueId", f.UniqueID, "ID is required")
	required("fullAddress", f.FullAddress, "Address is required")

	if required("email", f.Email, "Email is required") {
		if fv().Var(strings.TrimSpace(f.Email), "email") != nil {
			errs["email"] = "Enter a valid email"
		}
	}
	if required("gender", f.Gender, "Gender is required") {
		if fv().Var(f.Gender, "oneof=Male Female Other") != nil {
			errs["gender"] = "Invalid gender"
		}
	}
	if required("status", f.Status, "Status is required") {
		if fv().Var(f.Status, "oneof=Active Inactive") != nil {
			errs["status"] = "Invalid status"
		}
	}
	if required("selectedDate", f.SelectedDate, "Date is required") {
		if _, ok := parseFormDate(f.SelectedDate); !ok {
			errs["selectedDate"] = "Please provide a valid date"
		}
	}
	if required("phoneNumber", f.PhoneNumber, "Phone number is required") {
		if fv().Var(strings.TrimSpace(f.PhoneNumber), "numeric") != nil {
			errs["phoneNumber"] = "Please provide a valid phone number"
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func parseFormDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.DateOnly, time.RFC3339Nano, "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Payload 新增与编辑提交同一结构，delete 恒为 false
func (f UserForm) Payload() domain.UserInput {
	del := false
	in := domain.UserInput{
		UniqueID:    strings.TrimSpace(f.UniqueID),
		FirstName:   strings.TrimSpace(f.FirstName),
		LastName:    strings.TrimSpace(f.LastName),
		Email:       strings.TrimSpace(f.Email),
		Gender:      domain.OptString(f.Gender),
		FullAddress: strings.TrimSpace(f.FullAddress),
		PhoneNumber: json.Number(strings.TrimSpace(f.PhoneNumber)),
		Status:      domain.OptString(f.Status),
		Delete:      &del,
	}
	if t, ok := parseFormDate(f.SelectedDate); ok {
		in.SelectedDate = t.Format(time.RFC3339)
	} else {
		in.SelectedDate = f.SelectedDate
	}
	return in
}
