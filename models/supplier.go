package models

// Supplier is a reference entity keyed by its display name. Created once per
// distinct name; the pipeline never refreshes email/phone on later sightings.
type Supplier struct {
	ID    int    `gorm:"primary_key" json:"id"`
	Name  string `gorm:"size:255;uniqueIndex;not null" json:"name" binding:"required"`
	Email string `gorm:"size:100" json:"email"`
	Phone string `gorm:"size:30" json:"phone"`
}

func (s Supplier) String() string {
	return s.Name
}
