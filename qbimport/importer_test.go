package qbimport_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aiengrshafiq/QuickBooksImporter/models"
	"github.com/aiengrshafiq/QuickBooksImporter/qbclient"
	"github.com/aiengrshafiq/QuickBooksImporter/qbimport"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func decimalFrom(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fakeSource serves canned documents keyed by id the way the live client
// serves them from the remote API.
type fakeSource struct {
	invoices    []qbclient.Invoice
	orders      map[string]*qbclient.PurchaseOrder
	vendors     map[string]*qbclient.Vendor
	items       map[string]*qbclient.Item
	attachments map[string][]qbclient.Attachable
	files       map[string][]byte

	vendorCalls int
}

func (f *fakeSource) QueryInvoices(ctx context.Context, start, end time.Time, limit int) ([]qbclient.Invoice, error) {
	if limit > 0 && limit < len(f.invoices) {
		return f.invoices[:limit], nil
	}
	return f.invoices, nil
}

func (f *fakeSource) GetPurchaseOrder(ctx context.Context, id string) (*qbclient.PurchaseOrder, error) {
	lpo, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("purchase order %s not found", id)
	}
	return lpo, nil
}

func (f *fakeSource) GetVendor(ctx context.Context, id string) (*qbclient.Vendor, error) {
	f.vendorCalls++
	vendor, ok := f.vendors[id]
	if !ok {
		return nil, fmt.Errorf("vendor %s not found", id)
	}
	return vendor, nil
}

func (f *fakeSource) GetItem(ctx context.Context, id string) (*qbclient.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s not found", id)
	}
	return item, nil
}

func (f *fakeSource) QueryAttachments(ctx context.Context, entityType string, entityId string) ([]qbclient.Attachable, error) {
	return f.attachments[entityType+"/"+entityId], nil
}

func (f *fakeSource) DownloadAttachment(ctx context.Context, att qbclient.Attachable) ([]byte, error) {
	data, ok := f.files[att.Id]
	if !ok {
		return nil, fmt.Errorf("attachment %s has no content", att.Id)
	}
	return data, nil
}

// fakeBlobStore records uploads instead of talking to a bucket.
type fakeBlobStore struct {
	uploads []string
}

func (b *fakeBlobStore) Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	b.uploads = append(b.uploads, objectName)
	return "https://blobs.test/" + objectName, nil
}

func itemLine(itemId, taxCode, qty, price string) qbclient.Line {
	detail := &qbclient.ItemLineDetail{
		ItemRef:   &qbclient.ReferenceValue{Value: itemId},
		Qty:       json.Number(qty),
		UnitPrice: json.Number(price),
	}
	if taxCode != "" {
		detail.TaxCodeRef = &qbclient.ReferenceValue{Value: taxCode}
	}
	return qbclient.Line{
		DetailType:                 qbclient.DetailTypeItemExpense,
		ItemBasedExpenseLineDetail: detail,
	}
}

func salesLine(itemId, taxCode, qty, price string) qbclient.Line {
	line := itemLine(itemId, taxCode, qty, price)
	line.DetailType = qbclient.DetailTypeSalesItem
	line.SalesItemLineDetail = line.ItemBasedExpenseLineDetail
	line.ItemBasedExpenseLineDetail = nil
	return line
}

func baseSource() *fakeSource {
	return &fakeSource{
		orders: map[string]*qbclient.PurchaseOrder{
			"po-1": {
				Id:           "po-1",
				DocNumber:    "LPO-100",
				TxnDate:      "2025-05-02",
				TotalAmt:     json.Number("105.00"),
				TxnTaxDetail: &qbclient.TxnTaxDetail{TotalTax: json.Number("5.00")},
				VendorRef:    &qbclient.ReferenceValue{Value: "v-1"},
				PrivateNote:  "deliver to site",
				Line: []qbclient.Line{
					itemLine("item-1", "TAX", "2", "50.00"),
				},
			},
		},
		vendors: map[string]*qbclient.Vendor{
			"v-1": {
				Id:               "v-1",
				DisplayName:      "Alpha Traders",
				PrimaryEmailAddr: &qbclient.EmailAddress{Address: "sales@alpha.example"},
				PrimaryPhone:     &qbclient.TelephoneNumber{FreeFormNumber: "+971501234567"},
			},
		},
		items: map[string]*qbclient.Item{
			"item-1": {Id: "item-1", Name: "Cement Bag", Type: "Inventory"},
			"item-2": {Id: "item-2", Name: "Site Cleanup", Type: "Service"},
		},
		attachments: map[string][]qbclient.Attachable{},
		files:       map[string][]byte{},
	}
}

func invoiceLinkedTo(poId, docNumber string) qbclient.Invoice {
	return qbclient.Invoice{
		Id:           "inv-" + docNumber,
		DocNumber:    docNumber,
		TxnDate:      "2025-05-10",
		DueDate:      "2025-06-10",
		Balance:      json.Number("0"),
		TotalAmt:     json.Number("105.00"),
		TxnTaxDetail: &qbclient.TxnTaxDetail{TotalTax: json.Number("5.00")},
		LinkedTxn:    []qbclient.LinkedTxn{{TxnId: poId, TxnType: qbclient.EntityTypePurchaseOrder}},
		Line: []qbclient.Line{
			salesLine("item-1", "TAX", "2", "50.00"),
		},
	}
}

func TestImportCreatesLPOAndInvoice(t *testing.T) {
	db := newTestDB(t)
	source := baseSource()
	source.invoices = []qbclient.Invoice{invoiceLinkedTo("po-1", "INV-1001")}
	blobs := &fakeBlobStore{}

	imp := qbimport.NewImporter(db, source, blobs, quietLogger())
	summary, err := imp.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Succeeded != 1 || summary.Skipped != 0 || summary.Failed != 0 {
		t.Fatalf("summary = %+v, want 1 succeeded", summary)
	}

	var dbLPO models.LPO
	if err := db.Preload("Items").First(&dbLPO, "lpo_number = ?", "LPO-100").Error; err != nil {
		t.Fatalf("load LPO: %v", err)
	}
	if !dbLPO.Subtotal.Equal(decimalFrom(t, "100.00")) {
		t.Errorf("LPO subtotal = %s, want 100.00", dbLPO.Subtotal)
	}
	if !dbLPO.GrandTotal.Equal(decimalFrom(t, "105.00")) {
		t.Errorf("LPO grand total = %s, want 105.00", dbLPO.GrandTotal)
	}
	if len(dbLPO.Items) != 1 {
		t.Fatalf("LPO items = %d, want 1", len(dbLPO.Items))
	}
	if !dbLPO.Items[0].TaxRate.Equal(decimalFrom(t, "0.05")) {
		t.Errorf("LPO item tax rate = %s, want 0.05", dbLPO.Items[0].TaxRate)
	}

	var dbInvoice models.Invoice
	if err := db.Preload("Items").First(&dbInvoice, "invoice_number = ?", "INV-1001").Error; err != nil {
		t.Fatalf("load invoice: %v", err)
	}
	if dbInvoice.Status != models.InvoiceStatusPaid {
		t.Errorf("invoice status = %q, want Paid for zero balance", dbInvoice.Status)
	}
	if dbInvoice.LPOId != dbLPO.ID {
		t.Errorf("invoice LPOId = %d, want %d", dbInvoice.LPOId, dbLPO.ID)
	}
	if dbInvoice.SupplierId != dbLPO.SupplierId {
		t.Errorf("invoice supplier %d does not match LPO supplier %d", dbInvoice.SupplierId, dbLPO.SupplierId)
	}
	if !dbInvoice.Subtotal.Equal(decimalFrom(t, "100.00")) {
		t.Errorf("invoice subtotal = %s, want 100.00", dbInvoice.Subtotal)
	}
	if len(dbInvoice.Items) != 1 {
		t.Fatalf("invoice items = %d, want 1", len(dbInvoice.Items))
	}

	var supplier models.Supplier
	if err := db.First(&supplier, "name = ?", "Alpha Traders").Error; err != nil {
		t.Fatalf("load supplier: %v", err)
	}
	if supplier.Phone != "+971501234567" {
		t.Errorf("supplier phone = %q, want normalized E.164", supplier.Phone)
	}

	var material models.Material
	if err := db.First(&material, "name = ?", "Cement Bag").Error; err != nil {
		t.Fatalf("load material: %v", err)
	}
	if material.Unit != models.MaterialUnitEach {
		t.Errorf("material unit = %q, want %q for Inventory items", material.Unit, models.MaterialUnitEach)
	}

	var project models.Project
	if err := db.First(&project, "name = ?", qbimport.DefaultProjectName).Error; err != nil {
		t.Fatalf("default project was not created: %v", err)
	}
	var user models.User
	if err := db.First(&user, "email = ?", qbimport.DefaultUserEmail).Error; err != nil {
		t.Fatalf("default user was not created: %v", err)
	}
	if dbLPO.ProjectId != project.ID || dbLPO.CreatedById != user.ID {
		t.Errorf("LPO not attributed to defaults: project=%d createdBy=%d", dbLPO.ProjectId, dbLPO.CreatedById)
	}
}

func TestImportIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	source := baseSource()
	source.invoices = []qbclient.Invoice{invoiceLinkedTo("po-1", "INV-2001")}

	imp := qbimport.NewImporter(db, source, &fakeBlobStore{}, quietLogger())
	if _, err := imp.Run(context.Background(), 0); err != nil {
		t.Fatalf("first run: %v", err)
	}
	summary, err := imp.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.Skipped != 1 || summary.Succeeded != 0 {
		t.Fatalf("second run summary = %+v, want 1 skipped", summary)
	}

	var invoices int64
	db.Model(&models.Invoice{}).Count(&invoices)
	if invoices != 1 {
		t.Errorf("invoice rows = %d after rerun, want 1", invoices)
	}
	var lpos int64
	db.Model(&models.LPO{}).Count(&lpos)
	if lpos != 1 {
		t.Errorf("LPO rows = %d after rerun, want 1", lpos)
	}
}

func TestImportSkipConditions(t *testing.T) {
	db := newTestDB(t)
	source := baseSource()
	source.orders["po-2"] = &qbclient.PurchaseOrder{
		Id:        "po-2",
		TotalAmt:  json.Number("10.00"),
		VendorRef: &qbclient.ReferenceValue{Value: "v-1"},
	}

	noNumber := invoiceLinkedTo("po-1", "")
	noLinked := invoiceLinkedTo("po-1", "INV-3001")
	noLinked.LinkedTxn = nil
	unfetchable := invoiceLinkedTo("po-missing", "INV-3002")
	bareLPO := invoiceLinkedTo("po-2", "INV-3003")
	source.invoices = []qbclient.Invoice{noNumber, noLinked, unfetchable, bareLPO}

	imp := qbimport.NewImporter(db, source, &fakeBlobStore{}, quietLogger())
	summary, err := imp.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Skipped != 4 || summary.Succeeded != 0 || summary.Failed != 0 {
		t.Fatalf("summary = %+v, want 4 skipped", summary)
	}

	var invoices int64
	db.Model(&models.Invoice{}).Count(&invoices)
	if invoices != 0 {
		t.Errorf("invoice rows = %d, want 0", invoices)
	}
}

func TestImportRollsBackFailedInvoice(t *testing.T) {
	db := newTestDB(t)
	source := baseSource()
	// item-bad exists remotely but carries no name, which fails the invoice
	// after the LPO header has already been staged.
	source.items["item-bad"] = &qbclient.Item{Id: "item-bad", Name: "", Type: "Inventory"}
	source.orders["po-bad"] = &qbclient.PurchaseOrder{
		Id:        "po-bad",
		DocNumber: "LPO-200",
		TotalAmt:  json.Number("50.00"),
		VendorRef: &qbclient.ReferenceValue{Value: "v-1"},
		Line:      []qbclient.Line{itemLine("item-bad", "", "1", "50.00")},
	}

	good := invoiceLinkedTo("po-1", "INV-4001")
	bad := invoiceLinkedTo("po-bad", "INV-4002")
	source.invoices = []qbclient.Invoice{good, bad}

	imp := qbimport.NewImporter(db, source, &fakeBlobStore{}, quietLogger())
	summary, err := imp.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Succeeded != 1 || summary.Failed != 1 {
		t.Fatalf("summary = %+v, want 1 succeeded and 1 failed", summary)
	}

	// The failed invoice left nothing behind, including its staged LPO.
	var count int64
	db.Model(&models.Invoice{}).Where("invoice_number = ?", "INV-4002").Count(&count)
	if count != 0 {
		t.Errorf("failed invoice was committed")
	}
	db.Model(&models.LPO{}).Where("lpo_number = ?", "LPO-200").Count(&count)
	if count != 0 {
		t.Errorf("LPO of the failed invoice was committed")
	}

	// The earlier commit is untouched.
	db.Model(&models.Invoice{}).Where("invoice_number = ?", "INV-4001").Count(&count)
	if count != 1 {
		t.Errorf("successful invoice from the same run is missing")
	}
}

func TestImportFailsWhenVendorMissing(t *testing.T) {
	db := newTestDB(t)
	source := baseSource()
	source.orders["po-1"].VendorRef = &qbclient.ReferenceValue{Value: "v-missing"}
	source.invoices = []qbclient.Invoice{invoiceLinkedTo("po-1", "INV-5001")}

	imp := qbimport.NewImporter(db, source, &fakeBlobStore{}, quietLogger())
	summary, err := imp.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Failed != 1 {
		t.Fatalf("summary = %+v, want 1 failed", summary)
	}
}

func TestImportReusesExistingLPO(t *testing.T) {
	db := newTestDB(t)
	source := baseSource()
	first := invoiceLinkedTo("po-1", "INV-6001")
	second := invoiceLinkedTo("po-1", "INV-6002")
	source.invoices = []qbclient.Invoice{first, second}

	imp := qbimport.NewImporter(db, source, &fakeBlobStore{}, quietLogger())
	summary, err := imp.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Succeeded != 2 {
		t.Fatalf("summary = %+v, want 2 succeeded", summary)
	}

	var lpos int64
	db.Model(&models.LPO{}).Count(&lpos)
	if lpos != 1 {
		t.Errorf("LPO rows = %d, want 1 shared row", lpos)
	}
	if source.vendorCalls != 1 {
		t.Errorf("vendor fetched %d times, want 1 (only on LPO creation)", source.vendorCalls)
	}

	var invoices []models.Invoice
	if err := db.Find(&invoices).Error; err != nil {
		t.Fatalf("load invoices: %v", err)
	}
	if len(invoices) != 2 {
		t.Fatalf("invoice rows = %d, want 2", len(invoices))
	}
	if invoices[0].LPOId != invoices[1].LPOId {
		t.Errorf("invoices point at different LPOs: %d vs %d", invoices[0].LPOId, invoices[1].LPOId)
	}
}

func TestAttachmentFailuresDoNotFailInvoice(t *testing.T) {
	db := newTestDB(t)
	source := baseSource()
	inv := invoiceLinkedTo("po-1", "INV-7001")
	source.invoices = []qbclient.Invoice{inv}
	source.attachments[qbclient.EntityTypeInvoice+"/"+inv.Id] = []qbclient.Attachable{
		{Id: "att-1", FileName: "delivery-note.pdf"},
		{Id: "att-2", FileName: "photo.jpg"}, // download fails, skipped
		{Id: "att-3", FileName: "terms.txt"},
		{Id: "att-4", FileName: ""}, // no filename, skipped
	}
	source.files["att-1"] = []byte("pdf bytes")
	source.files["att-3"] = []byte("txt bytes")

	blobs := &fakeBlobStore{}
	imp := qbimport.NewImporter(db, source, blobs, quietLogger())
	summary, err := imp.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Fatalf("summary = %+v, want 1 succeeded", summary)
	}

	var atts []models.InvoiceAttachment
	if err := db.Find(&atts).Error; err != nil {
		t.Fatalf("load attachments: %v", err)
	}
	if len(atts) != 2 {
		t.Fatalf("attachment rows = %d, want 2", len(atts))
	}
	for _, att := range atts {
		if att.FileName == "photo.jpg" {
			t.Errorf("failed download was persisted anyway")
		}
		if att.BlobURL == "" {
			t.Errorf("attachment %s has no blob URL", att.FileName)
		}
	}

	if len(blobs.uploads) != 2 {
		t.Fatalf("uploaded %d objects, want 2", len(blobs.uploads))
	}
	for _, name := range blobs.uploads {
		// Object names carry a unique prefix ahead of the original filename.
		if !strings.HasSuffix(name, "-delivery-note.pdf") && !strings.HasSuffix(name, "-terms.txt") {
			t.Errorf("unexpected object name %q", name)
		}
		if name == "delivery-note.pdf" || name == "terms.txt" {
			t.Errorf("object name %q is not collision-proofed", name)
		}
	}
}

func TestImportSkipsLinesWithoutItems(t *testing.T) {
	db := newTestDB(t)
	source := baseSource()
	inv := invoiceLinkedTo("po-1", "INV-8001")
	inv.Line = append(inv.Line,
		qbclient.Line{DetailType: qbclient.DetailTypeSalesItem, SalesItemLineDetail: &qbclient.ItemLineDetail{}},
		salesLine("item-unknown", "TAX", "1", "10.00"),
		qbclient.Line{DetailType: "SubTotalLineDetail"},
	)
	source.invoices = []qbclient.Invoice{inv}

	imp := qbimport.NewImporter(db, source, &fakeBlobStore{}, quietLogger())
	summary, err := imp.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Fatalf("summary = %+v, want 1 succeeded despite dropped lines", summary)
	}

	var items []models.InvoiceItem
	if err := db.Find(&items).Error; err != nil {
		t.Fatalf("load items: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("invoice items = %d, want 1 (only the resolvable line)", len(items))
	}
}
