package repo

import (
	"time"

	"user-management/internal/domain"
)

type userRow struct {
	ID           string    `gorm:"primaryKey;type:varchar(32)"`
	UniqueID     string    `gorm:"column:unique_id;size:191;not null;uniqueIndex:ux_users_unique_id"`
	FirstName    string    `gorm:"size:128;not null"`
	LastName     string    `gorm:"size:128;not null"`
	Email        string    `gorm:"size:191;not null;uniqueIndex:ux_users_email"`
	Gender       string    `gorm:"size:16"`
	SelectedDate time.Time `gorm:"not null"`
	FullAddress  string    `gorm:"size:512;not null"`
	PhoneNumber  *int64
	Status       string `gorm:"size:16"`
	// delete 是 SQL 关键字
	IsDeleted bool `gorm:"column:is_deleted;not null;default:false;index"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (userRow) TableName() string { return "users" }

func toRow(u *domain.User) userRow {
	return userRow{
		ID:           u.ID,
		UniqueID:     u.UniqueID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		Gender:       string(u.Gender),
		SelectedDate: u.SelectedDate,
		FullAddress:  u.FullAddress,
		PhoneNumber:  u.PhoneNumber,
		Status:       string(u.Status),
		IsDeleted:    u.Delete,
	}
}

func (r userRow) toUser() domain.User {
	return domain.User{
		ID:           r.ID,
		UniqueID:     r.UniqueID,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Email:        r.Email,
		Gender:       domain.Gender(r.Gender),
		SelectedDate: r.SelectedDate.UTC(),
		FullAddress:  r.FullAddress,
		PhoneNumber:  r.PhoneNumber,
		Status:       domain.Status(r.Status),
		Delete:       r.IsDeleted,
	}
}
