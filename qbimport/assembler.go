package qbimport

import (
	"context"
	"encoding/json"

	"github.com/aiengrshafiq/QuickBooksImporter/models"
	"github.com/aiengrshafiq/QuickBooksImporter/qbclient"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Flat tax heuristic carried over from the source system: any tax code other
// than "NON" means 5%. Precise rates would need TaxRate lookups, which is
// beyond what the original pipeline did.
var flatTaxRate = decimal.NewFromFloat(0.05)

// buildLPOItems walks the remote order's lines and attaches one LPOItem per
// item-based expense line. Lines without a resolvable item are skipped with a
// warning; a material that exists remotely but has no name fails the invoice.
func (imp *Importer) buildLPOItems(ctx context.Context, tx *gorm.DB, qbLPO *qbclient.PurchaseOrder, dbLPO *models.LPO) error {
	for _, line := range qbLPO.Line {
		if line.DetailType != qbclient.DetailTypeItemExpense {
			continue
		}
		material, detail, ok, err := imp.resolveLineMaterial(ctx, tx, line, "purchase order line")
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		item := models.LPOItem{
			Description: line.Description,
			Quantity:    decimalFromNumber(detail.Qty),
			Rate:        decimalFromNumber(detail.UnitPrice),
			TaxRate:     lineTaxRate(detail),
			LPOId:       dbLPO.ID,
			MaterialId:  material.ID,
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
	}
	return nil
}

// buildInvoiceItems mirrors buildLPOItems for sales-item lines.
func (imp *Importer) buildInvoiceItems(ctx context.Context, tx *gorm.DB, qbInvoice *qbclient.Invoice, dbInvoice *models.Invoice) error {
	for _, line := range qbInvoice.Line {
		if line.DetailType != qbclient.DetailTypeSalesItem {
			continue
		}
		material, detail, ok, err := imp.resolveLineMaterial(ctx, tx, line, "invoice line")
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		item := models.InvoiceItem{
			Description: line.Description,
			Quantity:    decimalFromNumber(detail.Qty),
			Rate:        decimalFromNumber(detail.UnitPrice),
			TaxRate:     lineTaxRate(detail),
			InvoiceId:   dbInvoice.ID,
			MaterialId:  material.ID,
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
	}
	return nil
}

// resolveLineMaterial resolves the material referenced by an item-based line.
// ok=false means the line should be dropped (missing or unfetchable item);
// err means the whole invoice fails (resolver errors, storage errors).
func (imp *Importer) resolveLineMaterial(ctx context.Context, tx *gorm.DB, line qbclient.Line, lineKind string) (*models.Material, *qbclient.ItemLineDetail, bool, error) {
	detail := line.ItemDetail()
	if detail == nil || detail.ItemRef == nil || detail.ItemRef.Value == "" {
		imp.logger.WithFields(logrus.Fields{
			"module":      "qbimport",
			"description": line.Description,
		}).Warn("skipping " + lineKind + ": no item reference")
		return nil, nil, false, nil
	}

	item, err := imp.source.GetItem(ctx, detail.ItemRef.Value)
	if err != nil {
		imp.logger.WithFields(logrus.Fields{
			"module": "qbimport",
			"itemId": detail.ItemRef.Value,
		}).Warn("skipping " + lineKind + ": item not found in QuickBooks: " + err.Error())
		return nil, nil, false, nil
	}

	material, err := getOrCreateMaterial(tx, item)
	if err != nil {
		return nil, nil, false, err
	}
	return material, detail, true, nil
}

// lineTaxRate applies the flat 5%-if-taxed heuristic.
func lineTaxRate(detail *qbclient.ItemLineDetail) decimal.Decimal {
	if detail.TaxCodeRef != nil && detail.TaxCodeRef.Value != "" && detail.TaxCodeRef.Value != qbclient.TaxCodeNone {
		return flatTaxRate
	}
	return decimal.Zero
}

func decimalFromNumber(num json.Number) decimal.Decimal {
	if num.String() == "" {
		return decimal.Zero
	}
	if d, err := decimal.NewFromString(num.String()); err == nil {
		return d
	}
	return decimal.Zero
}
