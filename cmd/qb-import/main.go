// qb-import runs one pass of the QuickBooks invoice import: it pulls invoices
// for the configured window, resolves each one's linked purchase order, and
// writes both into the local database. Safe to rerun; already-imported
// invoices are skipped by invoice number.
//
// Usage (from the repository root, with .env populated):
//
//	go run ./cmd/qb-import            # full run
//	go run ./cmd/qb-import --limit 5  # test mode, first page only
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/aiengrshafiq/QuickBooksImporter/config"
	"github.com/aiengrshafiq/QuickBooksImporter/models"
	"github.com/aiengrshafiq/QuickBooksImporter/qbclient"
	"github.com/aiengrshafiq/QuickBooksImporter/qbimport"
	"github.com/sirupsen/logrus"
)

func main() {
	limit := flag.Int("limit", 0, "cap the number of invoices fetched (0 = no cap)")
	flag.Parse()

	if !config.AllQuickBooksKeysPresent() {
		fmt.Fprintln(os.Stderr, "missing QuickBooks credentials. Set QB_CLIENT_ID, QB_CLIENT_SECRET, QB_ACCESS_TOKEN, QB_REFRESH_TOKEN and QB_REALM_ID (run ./cmd/qb-oauth to obtain tokens).")
		os.Exit(1)
	}

	logger := config.GetLogger()
	ctx := context.Background()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	client, err := qbclient.NewClient(ctx)
	if err != nil {
		logger.WithFields(logrus.Fields{"module": "qb-import"}).
			Fatal("failed to connect to QuickBooks: " + err.Error())
	}

	importer := qbimport.NewImporter(db, client, qbimport.NewGCSBlobStore(), logger)
	summary, err := importer.Run(ctx, *limit)
	if err != nil {
		logger.WithFields(logrus.Fields{"module": "qb-import"}).
			Fatal("import run aborted: " + err.Error())
	}

	fmt.Printf("Import finished: %d succeeded, %d skipped, %d failed\n",
		summary.Succeeded, summary.Skipped, summary.Failed)
	if summary.Failed > 0 {
		os.Exit(1)
	}
}
