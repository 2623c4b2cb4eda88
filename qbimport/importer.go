package qbimport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aiengrshafiq/QuickBooksImporter/config"
	"github.com/aiengrshafiq/QuickBooksImporter/models"
	"github.com/aiengrshafiq/QuickBooksImporter/qbclient"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Fixed query window for the import run.
var (
	importWindowStart = time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	importWindowEnd   = time.Date(2025, time.September, 30, 0, 0, 0, 0, time.UTC)
)

// Summary is the run-level aggregate. Failures never propagate past a single
// invoice; these counts are the only signal that crosses that boundary.
type Summary struct {
	Succeeded int
	Skipped   int
	Failed    int
}

type outcome int

const (
	outcomeSucceeded outcome = iota
	outcomeSkipped
	outcomeFailed
)

// Importer drives the per-invoice workflow: duplicate detection, purchase
// order resolution, transactional commit, and failure isolation. Processing is
// sequential; one invoice is fully committed or rolled back before the next
// begins.
type Importer struct {
	db     *gorm.DB
	source DocumentSource
	blobs  BlobStore
	logger *logrus.Logger
}

func NewImporter(db *gorm.DB, source DocumentSource, blobs BlobStore, logger *logrus.Logger) *Importer {
	return &Importer{
		db:     db,
		source: source,
		blobs:  blobs,
		logger: logger,
	}
}

// Run pulls invoices for the import window and processes each one in its own
// transaction. A positive limit caps the number of invoices considered for
// the whole run (a test affordance; unbounded runs paginate internally).
func (imp *Importer) Run(ctx context.Context, limit int) (Summary, error) {
	var summary Summary

	imp.logger.WithFields(logrus.Fields{
		"module": "qbimport",
		"from":   importWindowStart.Format("2006-01-02"),
		"to":     importWindowEnd.Format("2006-01-02"),
	}).Info("starting import process")
	if limit > 0 {
		imp.logger.WithFields(logrus.Fields{
			"module": "qbimport",
			"limit":  limit,
		}).Warn("test mode: importing a capped number of invoices")
	}

	defaults, err := ResolveImportDefaults(ctx, imp.db)
	if err != nil {
		return summary, fmt.Errorf("failed to resolve default project/user: %w", err)
	}

	invoices, err := imp.source.QueryInvoices(ctx, importWindowStart, importWindowEnd, limit)
	if err != nil {
		return summary, fmt.Errorf("failed to fetch invoices: %w", err)
	}
	imp.logger.WithFields(logrus.Fields{
		"module": "qbimport",
		"count":  len(invoices),
	}).Info("found invoices to process")

	for _, qbInvoice := range invoices {
		switch imp.importOne(ctx, defaults, qbInvoice) {
		case outcomeSucceeded:
			summary.Succeeded++
		case outcomeSkipped:
			summary.Skipped++
		case outcomeFailed:
			summary.Failed++
		}
	}

	imp.logger.WithFields(logrus.Fields{
		"module":    "qbimport",
		"succeeded": summary.Succeeded,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
	}).Info("import process finished")
	return summary, nil
}

// importOne runs the per-invoice state machine. Any error after the skip
// checks rolls back everything staged for this invoice, including a freshly
// created purchase order.
func (imp *Importer) importOne(ctx context.Context, defaults ImportDefaults, qbInvoice qbclient.Invoice) outcome {
	invoiceNumber := qbInvoice.DocNumber
	if invoiceNumber == "" {
		imp.logger.WithFields(logrus.Fields{
			"module":    "qbimport",
			"invoiceId": qbInvoice.Id,
		}).Warn("skipping invoice: it has no invoice number (DocNumber)")
		return outcomeSkipped
	}

	log := imp.logger.WithFields(logrus.Fields{
		"module":  "qbimport",
		"invoice": invoiceNumber,
	})

	tx := imp.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		log.Error("failed to open transaction: " + tx.Error.Error())
		return outcomeFailed
	}

	// Duplicate check: the invoice number is the sole idempotency guard.
	var count int64
	if err := tx.Model(&models.Invoice{}).Where("invoice_number = ?", invoiceNumber).Count(&count).Error; err != nil {
		tx.Rollback()
		log.Error("duplicate check failed: " + err.Error())
		return outcomeFailed
	}
	if count > 0 {
		tx.Rollback()
		log.Warn("skipping invoice: already exists in database")
		return outcomeSkipped
	}

	qbLPO := imp.linkedPurchaseOrder(ctx, qbInvoice)
	if qbLPO == nil {
		tx.Rollback()
		log.Warn("skipping invoice: no related LPO (PurchaseOrder) found")
		return outcomeSkipped
	}
	if qbLPO.DocNumber == "" {
		tx.Rollback()
		log.WithFields(logrus.Fields{"lpoId": qbLPO.Id}).
			Warn("skipping invoice: linked LPO has no LPO number (DocNumber)")
		return outcomeSkipped
	}

	log = log.WithFields(logrus.Fields{"lpo": qbLPO.DocNumber})
	log.Debug("processing invoice")

	dbLPO, err := imp.findOrCreateLPO(ctx, tx, defaults, qbLPO)
	if err == nil {
		err = imp.createInvoice(ctx, tx, &qbInvoice, dbLPO)
	}
	if err == nil {
		err = tx.Commit().Error
	}
	if err != nil {
		tx.Rollback()
		config.LogError(imp.logger, "qbimport", "importOne", "failed to process invoice "+invoiceNumber, nil, err)
		log.WithFields(logrus.Fields{"detail": fmt.Sprintf("%+v", err)}).Debug("invoice failure detail")
		return outcomeFailed
	}

	log.Info("successfully imported invoice")
	return outcomeSucceeded
}

// linkedPurchaseOrder finds the invoice's linked purchase order reference and
// fetches the full record. Returns nil when no order is linked or the fetch
// fails; both are skip conditions, not failures.
func (imp *Importer) linkedPurchaseOrder(ctx context.Context, qbInvoice qbclient.Invoice) *qbclient.PurchaseOrder {
	for _, txn := range qbInvoice.LinkedTxn {
		if txn.TxnType != qbclient.EntityTypePurchaseOrder {
			continue
		}
		lpo, err := imp.source.GetPurchaseOrder(ctx, txn.TxnId)
		if err != nil {
			imp.logger.WithFields(logrus.Fields{
				"module": "qbimport",
				"lpoId":  txn.TxnId,
			}).Error("error fetching linked LPO: " + err.Error())
			return nil
		}
		return lpo
	}
	return nil
}

// findOrCreateLPO returns the local purchase order for the remote record,
// creating header, line items, and attachments when it is first seen. An
// existing row is reused unchanged.
func (imp *Importer) findOrCreateLPO(ctx context.Context, tx *gorm.DB, defaults ImportDefaults, qbLPO *qbclient.PurchaseOrder) (*models.LPO, error) {
	var dbLPO models.LPO
	err := tx.Where("lpo_number = ?", qbLPO.DocNumber).First(&dbLPO).Error
	if err == nil {
		imp.logger.WithFields(logrus.Fields{
			"module": "qbimport",
			"lpo":    qbLPO.DocNumber,
			"lpoID":  dbLPO.ID,
		}).Info("found existing LPO, linking to it")
		return &dbLPO, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if qbLPO.VendorRef == nil || qbLPO.VendorRef.Value == "" {
		return nil, fmt.Errorf("LPO %s has no supplier (VendorRef)", qbLPO.DocNumber)
	}
	vendor, err := imp.source.GetVendor(ctx, qbLPO.VendorRef.Value)
	if err != nil {
		return nil, fmt.Errorf("supplier %s not found in QuickBooks: %w", qbLPO.VendorRef.Value, err)
	}
	supplier, err := getOrCreateSupplier(tx, vendor)
	if err != nil {
		return nil, err
	}

	taxTotal := taxTotalOf(qbLPO.TxnTaxDetail)
	grandTotal := decimalFromNumber(qbLPO.TotalAmt)
	status := qbLPO.POStatus
	if status == "" {
		status = models.LPOStatusPending
	}

	dbLPO = models.LPO{
		LPONumber:         qbLPO.DocNumber,
		LPODate:           dateOrNow(qbLPO.TxnDate),
		Status:            status,
		Subtotal:          grandTotal.Sub(taxTotal),
		TaxTotal:          taxTotal,
		GrandTotal:        grandTotal,
		MessageToSupplier: qbLPO.PrivateNote,
		Memo:              qbLPO.Memo,
		SupplierId:        supplier.ID,
		ProjectId:         defaults.Project.ID,
		CreatedById:       defaults.User.ID,
	}
	if err := tx.Create(&dbLPO).Error; err != nil {
		return nil, err
	}

	if err := imp.buildLPOItems(ctx, tx, qbLPO, &dbLPO); err != nil {
		return nil, err
	}
	if err := imp.relocateAttachments(ctx, qbclient.EntityTypePurchaseOrder, qbLPO.Id, func(blobURL, fileName string) error {
		return tx.Create(&models.LPOAttachment{
			BlobURL:  blobURL,
			FileName: fileName,
			LPOId:    dbLPO.ID,
		}).Error
	}); err != nil {
		return nil, err
	}

	imp.logger.WithFields(logrus.Fields{
		"module": "qbimport",
		"lpo":    dbLPO.LPONumber,
		"lpoID":  dbLPO.ID,
	}).Info("successfully created new LPO")
	return &dbLPO, nil
}

// createInvoice persists the invoice header, items, and attachments,
// inheriting supplier/project/creator from the resolved purchase order.
func (imp *Importer) createInvoice(ctx context.Context, tx *gorm.DB, qbInvoice *qbclient.Invoice, dbLPO *models.LPO) error {
	taxTotal := taxTotalOf(qbInvoice.TxnTaxDetail)
	grandTotal := decimalFromNumber(qbInvoice.TotalAmt)

	status := models.InvoiceStatusPending
	if decimalFromNumber(qbInvoice.Balance).IsZero() {
		status = models.InvoiceStatusPaid
	}

	dbInvoice := models.Invoice{
		InvoiceNumber:     qbInvoice.DocNumber,
		InvoiceDate:       dateOrNow(qbInvoice.TxnDate),
		InvoiceDueDate:    dueDateOrDefault(qbInvoice.DueDate),
		LPOId:             dbLPO.ID,
		Status:            status,
		Subtotal:          grandTotal.Sub(taxTotal),
		TaxTotal:          taxTotal,
		GrandTotal:        grandTotal,
		MessageToCustomer: qbInvoice.CustomerMemoValue(),
		Memo:              qbInvoice.PrivateNote,
		SupplierId:        dbLPO.SupplierId,
		ProjectId:         dbLPO.ProjectId,
		CreatedById:       dbLPO.CreatedById,
	}
	if err := tx.Create(&dbInvoice).Error; err != nil {
		return err
	}

	if err := imp.buildInvoiceItems(ctx, tx, qbInvoice, &dbInvoice); err != nil {
		return err
	}
	return imp.relocateAttachments(ctx, qbclient.EntityTypeInvoice, qbInvoice.Id, func(blobURL, fileName string) error {
		return tx.Create(&models.InvoiceAttachment{
			BlobURL:   blobURL,
			FileName:  fileName,
			InvoiceId: dbInvoice.ID,
		}).Error
	})
}

func taxTotalOf(detail *qbclient.TxnTaxDetail) decimal.Decimal {
	if detail == nil {
		return decimal.Zero
	}
	return decimalFromNumber(detail.TotalTax)
}

func dateOrNow(value string) time.Time {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t
	}
	return time.Now()
}

func dueDateOrDefault(value string) time.Time {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t
	}
	return time.Now().AddDate(0, 0, 30)
}
