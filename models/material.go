package models

import "fmt"

// Material unit-of-measure values derived from the remote item type.
const (
	MaterialUnitService = "service"
	MaterialUnitEach    = "each"
	MaterialUnitNos     = "nos"
)

type Material struct {
	ID   int    `gorm:"primary_key" json:"id"`
	Name string `gorm:"size:255;uniqueIndex;not null" json:"name" binding:"required"`
	Unit string `gorm:"size:20;not null" json:"unit"` // e.g. 'nos', 'each', 'service'
}

func (m Material) String() string {
	return fmt.Sprintf("%s (%s)", m.Name, m.Unit)
}
