package view

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"user-management/internal/domain"
)

const InvalidDate = "Invalid Date"

// FormatDate dd/mm/yyyy，零值返回 Invalid Date
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return InvalidDate
	}
	return t.UTC().Format("02/01/2006")
}

// FormatDateString 先解析再格式化
func FormatDateString(s string) string {
	t, ok := parseFormDate(s)
	if !ok {
		return InvalidDate
	}
	return FormatDate(t)
}

func phone(p *int64) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatInt(*p, 10)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// RenderTable offset 为当前页首行的序号偏移；selected 中的行前面打 *
func RenderTable(w io.Writer, rows []domain.User, offset int, selected func(id string) bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, " \t#\tID\tNAME\tDOB\tGENDER\tEMAIL\tADDRESS\tMOBILE\tSTATUS\t_ID")
	for i, u := range rows {
		mark := " "
		if selected != nil && selected(u.ID) {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			mark, offset+i+1, u.UniqueID, u.FullName(), FormatDate(u.SelectedDate),
			orDash(string(u.Gender)), u.Email, u.FullAddress, phone(u.PhoneNumber),
			orDash(string(u.Status)), u.ID)
	}
	return tw.Flush()
}
