package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LPO statuses carried over from the remote purchase order.
const (
	LPOStatusPending = "Pending"
)

// LPO is a local purchase order header. The LPO number is the natural key:
// an LPO is created at most once per number and reused as-is afterwards.
type LPO struct {
	ID                int             `gorm:"primary_key" json:"id"`
	LPONumber         string          `gorm:"size:255;uniqueIndex;not null" json:"lpo_number" binding:"required"`
	LPODate           time.Time       `gorm:"type:date;not null" json:"lpo_date"`
	Status            string          `gorm:"size:50;not null;default:'Pending'" json:"status"`
	Subtotal          decimal.Decimal `gorm:"type:decimal(12,2)" json:"subtotal"`
	TaxTotal          decimal.Decimal `gorm:"type:decimal(12,2)" json:"tax_total"`
	GrandTotal        decimal.Decimal `gorm:"type:decimal(12,2)" json:"grand_total"`
	MessageToSupplier string          `gorm:"type:text" json:"message_to_supplier"`
	Memo              string          `gorm:"type:text" json:"memo"`
	PaymentMode       string          `gorm:"size:50;default:null" json:"payment_mode"` // remote purchase orders carry no payment mode
	SupplierId        int             `gorm:"index;not null" json:"supplier_id"`
	ProjectId         int             `gorm:"not null" json:"project_id"`
	CreatedById       int             `gorm:"not null" json:"created_by_id"`
	Supplier          Supplier        `json:"-"`
	Project           Project         `json:"-"`
	CreatedBy         User            `gorm:"foreignKey:CreatedById" json:"-"`
	Items             []LPOItem       `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	Attachments       []LPOAttachment `gorm:"constraint:OnDelete:CASCADE" json:"attachments"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type LPOItem struct {
	ID          int             `gorm:"primary_key" json:"id"`
	Description string          `gorm:"type:text" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"quantity"`
	Rate        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"rate"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(4,2);default:0" json:"tax_rate"`
	LPOId       int             `gorm:"index;not null" json:"lpo_id"`
	MaterialId  int             `gorm:"not null" json:"material_id"`
	Material    Material        `json:"-"`
}

type LPOAttachment struct {
	ID        int       `gorm:"primary_key" json:"id"`
	BlobURL   string    `gorm:"size:1024;not null" json:"blob_url"`
	FileName  string    `gorm:"size:255" json:"file_name"`
	LPOId     int       `gorm:"index" json:"lpo_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
