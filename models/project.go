package models

type Project struct {
	ID   int    `gorm:"primary_key" json:"id"`
	Name string `gorm:"size:255;uniqueIndex;not null" json:"name" binding:"required"`
}
