package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID         string `gorm:"primaryKey;type:uuid"`
	Email      string `gorm:"unique"`
	Password   string
	Name       string
	PracticeID string `gorm:"index"`
	Role       Role   `gorm:"type:varchar(32);not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
