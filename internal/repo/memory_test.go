package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-management/internal/domain"
)

func TestMemoryUserStore(t *testing.T) {
	s := NewMemoryUserStore()
	ctx := context.Background()

	a := sampleUser("U1", "A@b.com")
	require.NoError(t, s.Insert(ctx, a))
	assert.Len(t, a.ID, 24)
	assert.ErrorIs(t, s.Insert(ctx, sampleUser("U1", "x@y.com")), domain.ErrDuplicate)
	assert.ErrorIs(t, s.Insert(ctx, sampleUser("U2", "a@b.com")), domain.ErrDuplicate)

	// 批量中任一条冲突，整体不写入
	err := s.InsertMany(ctx, []*domain.User{sampleUser("U2", "c@d.com"), sampleUser("U3", "a@b.com")})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	all, _ := s.FindAll(ctx, domain.ListFilter{})
	assert.Len(t, all, 1)

	res, err := s.SetDeleteFlag(ctx, []string{a.ID, a.ID, "missing"}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.MatchedCount)
	assert.Equal(t, int64(1), res.ModifiedCount)

	deleted := true
	got, _ := s.FindAll(ctx, domain.ListFilter{Deleted: &deleted})
	require.Len(t, got, 1)

	next := *sampleUser("U1", "new@b.com")
	u, err := s.ReplaceByID(ctx, a.ID, domain.Replacement{User: next})
	require.NoError(t, err)
	assert.True(t, u.Delete)
	assert.Equal(t, "new@b.com", u.Email)

	_, err = s.ReplaceByID(ctx, "missing", domain.Replacement{User: next})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
