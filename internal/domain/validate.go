package domain

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		// 错误里用 json 字段名
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("looseemail", func(fl validator.FieldLevel) bool {
			return emailPattern.MatchString(fl.Field().String())
		})
		// 10 位纯数字
		_ = v.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
			n := fl.Field().Int()
			return n >= 1_000_000_000 && n <= 9_999_999_999
		})
		validate = v
	})
	return validate
}

// Validate 校验存储层字段约束（调用前应先 Normalize）
func Validate(u *User) error {
	var fields []FieldError
	if err := validatorInstance().Struct(u); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Field(), Reason: reasonFor(fe)})
		}
	}
	if u.SelectedDate.IsZero() {
		fields = append(fields, FieldError{Field: "selectedDate", Reason: "is required"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("`%v` is not a valid enum value", fe.Value())
	case "phone10":
		return "is not a valid phone number"
	case "looseemail":
		return "is invalid"
	default:
		return "failed " + fe.Tag()
	}
}
