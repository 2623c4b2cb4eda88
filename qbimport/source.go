package qbimport

import (
	"context"
	"time"

	"github.com/aiengrshafiq/QuickBooksImporter/qbclient"
	"github.com/aiengrshafiq/QuickBooksImporter/utils"
)

// DocumentSource is the remote accounting service as seen by the importer:
// paginated invoice queries, point lookups, and attachment metadata plus
// content download. *qbclient.Client is the production implementation.
type DocumentSource interface {
	QueryInvoices(ctx context.Context, start, end time.Time, limit int) ([]qbclient.Invoice, error)
	GetPurchaseOrder(ctx context.Context, id string) (*qbclient.PurchaseOrder, error)
	GetVendor(ctx context.Context, id string) (*qbclient.Vendor, error)
	GetItem(ctx context.Context, id string) (*qbclient.Item, error)
	QueryAttachments(ctx context.Context, entityType string, entityId string) ([]qbclient.Attachable, error)
	DownloadAttachment(ctx context.Context, att qbclient.Attachable) ([]byte, error)
}

// BlobStore relocates attachment bytes and returns a durable URL.
type BlobStore interface {
	Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

// GCSBlobStore uploads to the bucket configured via GCS_BUCKET.
type GCSBlobStore struct{}

func NewGCSBlobStore() GCSBlobStore {
	return GCSBlobStore{}
}

func (GCSBlobStore) Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	if err := utils.UploadBytesToGCS(ctx, objectName, data, contentType); err != nil {
		return "", err
	}
	return utils.BuildObjectAccessURL(objectName), nil
}
