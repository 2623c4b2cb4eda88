package qbimport

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/aiengrshafiq/QuickBooksImporter/config"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var attachmentContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

func contentTypeForFileName(fileName string) string {
	if ct, ok := attachmentContentTypes[strings.ToLower(filepath.Ext(fileName))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// relocateAttachments moves every attachment of the given remote object into
// blob storage and hands the resulting URL to persist. Each attachment is
// best-effort: no filename, a failed download, or a failed upload are logged
// and skipped, never failing the owning document. persist errors do fail it,
// since they mean the surrounding transaction is broken.
func (imp *Importer) relocateAttachments(ctx context.Context, entityType string, entityId string, persist func(blobURL, fileName string) error) error {
	atts, err := imp.source.QueryAttachments(ctx, entityType, entityId)
	if err != nil {
		imp.logger.WithFields(logrus.Fields{
			"module":     "qbimport",
			"entityType": entityType,
			"entityId":   entityId,
		}).Error("failed to query attachments: " + err.Error())
		return nil
	}

	for _, att := range atts {
		if att.FileName == "" {
			imp.logger.WithFields(logrus.Fields{
				"module":     "qbimport",
				"entityType": entityType,
				"entityId":   entityId,
			}).Warn("skipping attachment: no file name")
			continue
		}

		data, err := imp.source.DownloadAttachment(ctx, att)
		if err != nil {
			config.LogError(imp.logger, "qbimport", "relocateAttachments", "failed to download attachment", att.FileName, err)
			continue
		}

		// Collision-proof object name; two documents may attach "invoice.pdf".
		objectName := uuid.NewString() + "-" + att.FileName
		blobURL, err := imp.blobs.Upload(ctx, objectName, data, contentTypeForFileName(att.FileName))
		if err != nil {
			config.LogError(imp.logger, "qbimport", "relocateAttachments", "failed to upload attachment", att.FileName, err)
			continue
		}
		imp.logger.WithFields(logrus.Fields{
			"module":   "qbimport",
			"fileName": att.FileName,
			"blobURL":  blobURL,
		}).Debug("relocated attachment")

		if err := persist(blobURL, att.FileName); err != nil {
			return err
		}
	}
	return nil
}
