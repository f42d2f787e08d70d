package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"user-management/internal/domain"
	"user-management/pkg/utils"
)

type GormUserStore struct{ db *gorm.DB }

func NewGormUserStore(db *gorm.DB) *GormUserStore { return &GormUserStore{db: db} }

func (s *GormUserStore) EnsureIndexes(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&userRow{})
}

func (s *GormUserStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormUserStore) Insert(ctx context.Context, u *domain.User) error {
	u.Normalize()
	if err := domain.Validate(u); err != nil {
		return err
	}
	row := toRow(u)
	row.ID = utils.NewID()
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return gormErr(err)
	}
	u.ID = row.ID
	return nil
}

func (s *GormUserStore) InsertMany(ctx context.Context, us []*domain.User) error {
	if err := checkBatch(us); err != nil {
		return err
	}
	rows := make([]userRow, len(us))
	for i, u := range us {
		rows[i] = toRow(u)
		rows[i].ID = utils.NewID()
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		return gormErr(err)
	}
	for i, u := range us {
		u.ID = rows[i].ID
	}
	return nil
}

func (s *GormUserStore) FindAll(ctx context.Context, f domain.ListFilter) ([]domain.User, error) {
	q := s.db.WithContext(ctx).Model(&userRow{})
	if f.Deleted != nil {
		q = q.Where("is_deleted = ?", *f.Deleted)
	}
	var rows []userRow
	if err := q.Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toUser())
	}
	return out, nil
}

func (s *GormUserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var r userRow
	err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u := r.toUser()
	return &u, nil
}

func (s *GormUserStore) ReplaceByID(ctx context.Context, id string, rp domain.Replacement) (*domain.User, error) {
	u := rp.User
	u.Normalize()
	if err := domain.Validate(&u); err != nil {
		return nil, err
	}
	cols := map[string]any{
		"unique_id":     u.UniqueID,
		"first_name":    u.FirstName,
		"last_name":     u.LastName,
		"email":         u.Email,
		"gender":        string(u.Gender),
		"selected_date": u.SelectedDate,
		"full_address":  u.FullAddress,
		"phone_number":  u.PhoneNumber,
		"status":        string(u.Status),
	}
	if rp.Delete != nil {
		cols["is_deleted"] = *rp.Delete
	}

	var out userRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&userRow{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return err
		}
		// MySQL 对未变化的行 RowsAffected 为 0，存在性以回读为准
		return tx.First(&out, "id = ?", id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, gormErr(err)
	}
	res := out.toUser()
	return &res, nil
}

func (s *GormUserStore) SetDeleteFlag(ctx context.Context, ids []string, deleted bool) (*domain.BulkResult, error) {
	if len(ids) == 0 {
		return &domain.BulkResult{Acknowledged: true}, nil
	}
	out := &domain.BulkResult{Acknowledged: true}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&userRow{}).Where("id IN ?", ids).Count(&out.MatchedCount).Error; err != nil {
			return err
		}
		res := tx.Model(&userRow{}).
			Where("id IN ? AND is_deleted <> ?", ids, deleted).
			Update("is_deleted", deleted)
		if res.Error != nil {
			return res.Error
		}
		out.ModifiedCount = res.RowsAffected
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func gormErr(err error) error {
	if isDupKey(err) {
		return domain.DuplicateError(domain.DuplicateField(err.Error()), err)
	}
	return err
}

func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
