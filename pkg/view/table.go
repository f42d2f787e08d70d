// Package view 终端前端的展示逻辑：排序、分页、表单校验、确认框与表格输出
package view

import (
	"errors"
	"sort"
	"strings"

	"user-management/internal/domain"
	"user-management/pkg/client"
)

type Column string

const (
	ColID      Column = "uniqueId"
	ColName    Column = "name"
	ColDOB     Column = "dob"
	ColGender  Column = "gender"
	ColEmail   Column = "email"
	ColAddress Column = "address"
	ColMobile  Column = "mobile"
	ColStatus  Column = "status"
)

var Columns = []Column{ColID, ColName, ColDOB, ColGender, ColEmail, ColAddress, ColMobile, ColStatus}

type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// 初始排序
const (
	DefaultColumn = ColName
	DefaultOrder  = Asc
)

var ErrUnknownColumn = errors.New("unknown column")

func ParseColumn(s string) (Column, error) {
	for _, c := range Columns {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", ErrUnknownColumn
}

// NextOrder 点击表头：同列升序再点变降序，其余情况一律升序
func NextOrder(cur Column, order Order, clicked Column) (Column, Order) {
	if cur == clicked && order == Asc {
		return clicked, Desc
	}
	return clicked, Asc
}

// cmp a<b 返回负数
func cmp(a, b domain.User, col Column) int {
	switch col {
	case ColID:
		return strings.Compare(a.UniqueID, b.UniqueID)
	case ColName:
		return strings.Compare(a.FullName(), b.FullName())
	case ColDOB:
		return a.SelectedDate.Compare(b.SelectedDate)
	case ColGender:
		return strings.Compare(string(a.Gender), string(b.Gender))
	case ColEmail:
		return strings.Compare(a.Email, b.Email)
	case ColAddress:
		return strings.Compare(a.FullAddress, b.FullAddress)
	case ColMobile:
		return comparePhone(a.PhoneNumber, b.PhoneNumber)
	case ColStatus:
		return strings.Compare(string(a.Status), string(b.Status))
	}
	return 0
}

// 没有号码的排在最前
func comparePhone(a, b *int64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}

// SortRows 稳定排序，返回新切片
func SortRows(rows []domain.User, col Column, order Order) []domain.User {
	out := append([]domain.User(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(out[i], out[j], col)
		if order == Desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

var PageSizes = []int{5, 10, 25}

const DefaultPageSize = 5

var ErrPageSize = errors.New("page size must be one of 5, 10, 25")

func validPageSize(size int) bool {
	for _, s := range PageSizes {
		if s == size {
			return true
		}
	}
	return false
}

// Paginate page 从 0 开始；越界返回空页
func Paginate(rows []domain.User, page, size int) ([]domain.User, error) {
	if !validPageSize(size) {
		return nil, ErrPageSize
	}
	if page < 0 {
		page = 0
	}
	start := page * size
	if start >= len(rows) {
		return []domain.User{}, nil
	}
	end := min(start+size, len(rows))
	return rows[start:end], nil
}

func PageCount(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Search 在自动补全条目里做不区分大小写的子串匹配，返回去重后的 id
func Search(items []client.Suggestion, q string) []string {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return nil
	}
	seen := map[string]struct{}{}
	var ids []string
	for _, it := range items {
		if !strings.Contains(strings.ToLower(it.Name), q) {
			continue
		}
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		ids = append(ids, it.ID)
	}
	return ids
}
