package view

import (
	"context"
	"errors"

	"user-management/internal/domain"
	"user-management/pkg/client"
)

var ErrNothingSelected = errors.New("no users selected")

// Flagger 由 *client.State 实现
type Flagger interface {
	BulkFlag(ctx context.Context, kind client.BulkKind, ids []string) (*domain.BulkResult, error)
	Selected() []string
}

// DeleteDialog 单条删除确认
type DeleteDialog struct {
	ID string
}

func (d DeleteDialog) Prompt(name string) string {
	return "Are you sure you want to delete " + name + "?"
}

func (d DeleteDialog) Confirm(ctx context.Context, f Flagger) (*domain.BulkResult, error) {
	return f.BulkFlag(ctx, client.DeleteSingle, []string{d.ID})
}

// DeleteSelected 活跃列表里批量删除
func DeleteSelected(ctx context.Context, f Flagger) (*domain.BulkResult, error) {
	ids := f.Selected()
	if len(ids) == 0 {
		return nil, ErrNothingSelected
	}
	return f.BulkFlag(ctx, client.DeleteSelected, ids)
}

// RestoreOne 已删除列表里恢复单条
func RestoreOne(ctx context.Context, f Flagger, id string) (*domain.BulkResult, error) {
	return f.BulkFlag(ctx, client.RestoreSingle, []string{id})
}

// RestoreSelected 已删除列表里批量恢复
func RestoreSelected(ctx context.Context, f Flagger) (*domain.BulkResult, error) {
	ids := f.Selected()
	if len(ids) == 0 {
		return nil, ErrNothingSelected
	}
	return f.BulkFlag(ctx, client.RestoreSelected, ids)
}
