package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice payment statuses. "Paid" iff the remote balance is exactly zero.
const (
	InvoiceStatusPaid    = "Paid"
	InvoiceStatusPending = "Pending"
)

// Invoice mirrors the LPO header shape plus a due date and payment status.
// Every persisted invoice links to exactly one LPO and inherits its
// supplier/project/creator.
type Invoice struct {
	ID                int                 `gorm:"primary_key" json:"id"`
	InvoiceNumber     string              `gorm:"size:255;uniqueIndex;not null" json:"invoice_number" binding:"required"`
	InvoiceDate       time.Time           `gorm:"type:date;not null" json:"invoice_date"`
	InvoiceDueDate    time.Time           `gorm:"type:date;not null" json:"invoice_due_date"`
	LPOId             int                 `gorm:"index" json:"lpo_id"`
	Status            string              `gorm:"size:50;not null;default:'Pending'" json:"status"`
	Subtotal          decimal.Decimal     `gorm:"type:decimal(12,2)" json:"subtotal"`
	TaxTotal          decimal.Decimal     `gorm:"type:decimal(12,2)" json:"tax_total"`
	GrandTotal        decimal.Decimal     `gorm:"type:decimal(12,2)" json:"grand_total"`
	MessageToCustomer string              `gorm:"type:text" json:"message_to_customer"`
	Memo              string              `gorm:"type:text" json:"memo"`
	PaymentMode       string              `gorm:"size:50;default:null" json:"payment_mode"`
	SupplierId        int                 `gorm:"index;not null" json:"supplier_id"`
	ProjectId         int                 `gorm:"not null" json:"project_id"`
	CreatedById       int                 `gorm:"not null" json:"created_by_id"`
	LPO               LPO                 `json:"-"`
	Supplier          Supplier            `json:"-"`
	Project           Project             `json:"-"`
	CreatedBy         User                `gorm:"foreignKey:CreatedById" json:"-"`
	Items             []InvoiceItem       `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	Attachments       []InvoiceAttachment `gorm:"constraint:OnDelete:CASCADE" json:"attachments"`
	CreatedAt         time.Time           `gorm:"autoCreateTime" json:"created_at"`
}

type InvoiceItem struct {
	ID          int             `gorm:"primary_key" json:"id"`
	Description string          `gorm:"type:text" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"quantity"`
	Rate        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"rate"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(4,2);default:0" json:"tax_rate"`
	InvoiceId   int             `gorm:"index;not null" json:"invoice_id"`
	MaterialId  int             `gorm:"not null" json:"material_id"`
	Material    Material        `json:"-"`
}

type InvoiceAttachment struct {
	ID        int       `gorm:"primary_key" json:"id"`
	BlobURL   string    `gorm:"size:1024;not null" json:"blob_url"`
	FileName  string    `gorm:"size:255" json:"file_name"`
	InvoiceId int       `gorm:"index" json:"invoice_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
