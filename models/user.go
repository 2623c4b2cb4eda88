package models

type User struct {
	ID             int    `gorm:"primary_key" json:"id"`
	Email          string `gorm:"size:255;uniqueIndex;not null" json:"email" binding:"required"`
	HashedPassword string `gorm:"size:255;not null" json:"-"`
}
