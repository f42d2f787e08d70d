package repo

import (
	"strconv"

	"user-management/internal/domain"
)

// checkBatch 批量写入前逐条校验，并拦截批内重复的 uniqueId / email
func checkBatch(us []*domain.User) error {
	var fields []domain.FieldError
	uniqueIDs := make(map[string]int, len(us))
	emails := make(map[string]int, len(us))
	for i, u := range us {
		u.Normalize()
		prefix := "users." + strconv.Itoa(i) + "."
		if err := domain.Validate(u); err != nil {
			ve, ok := domain.AsValidation(err)
			if !ok {
				return err
			}
			for _, f := range ve.Fields {
				fields = append(fields, domain.FieldError{Field: prefix + f.Field, Reason: f.Reason})
			}
			continue
		}
		if j, dup := uniqueIDs[u.UniqueID]; dup {
			fields = append(fields, domain.FieldError{Field: prefix + "uniqueId", Reason: "duplicates users." + strconv.Itoa(j)})
		} else {
			uniqueIDs[u.UniqueID] = i
		}
		if j, dup := emails[u.Email]; dup {
			fields = append(fields, domain.FieldError{Field: prefix + "email", Reason: "duplicates users." + strconv.Itoa(j)})
		} else {
			emails[u.Email] = i
		}
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}
