package qbimport

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/aiengrshafiq/QuickBooksImporter/models"
	"github.com/aiengrshafiq/QuickBooksImporter/qbclient"
)

func TestLineTaxRate(t *testing.T) {
	cases := []struct {
		name    string
		taxCode *qbclient.ReferenceValue
		want    string
	}{
		{"taxed code", &qbclient.ReferenceValue{Value: "TAX"}, "0.05"},
		{"custom code", &qbclient.ReferenceValue{Value: "5"}, "0.05"},
		{"NON code", &qbclient.ReferenceValue{Value: "NON"}, "0"},
		{"empty code", &qbclient.ReferenceValue{Value: ""}, "0"},
		{"no ref", nil, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := lineTaxRate(&qbclient.ItemLineDetail{TaxCodeRef: tc.taxCode})
			if got.String() != tc.want {
				t.Errorf("lineTaxRate = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestMaterialUnitForItemType(t *testing.T) {
	cases := map[string]string{
		"Service":      models.MaterialUnitService,
		"Inventory":    models.MaterialUnitEach,
		"NonInventory": models.MaterialUnitNos,
		"":             models.MaterialUnitNos,
	}
	for itemType, want := range cases {
		if got := materialUnitForItemType(itemType); got != want {
			t.Errorf("materialUnitForItemType(%q) = %q, want %q", itemType, got, want)
		}
	}
}

func TestContentTypeForFileName(t *testing.T) {
	cases := map[string]string{
		"invoice.pdf":  "application/pdf",
		"INVOICE.PDF":  "application/pdf",
		"notes.txt":    "text/plain",
		"scan.png":     "image/png",
		"photo.jpg":    "image/jpeg",
		"photo.jpeg":   "image/jpeg",
		"archive.zip":  "application/octet-stream",
		"no-extension": "application/octet-stream",
	}
	for fileName, want := range cases {
		if got := contentTypeForFileName(fileName); got != want {
			t.Errorf("contentTypeForFileName(%q) = %q, want %q", fileName, got, want)
		}
	}
}

func TestDecimalFromNumber(t *testing.T) {
	if got := decimalFromNumber(json.Number("105.50")); got.String() != "105.5" {
		t.Errorf("decimalFromNumber(105.50) = %s", got)
	}
	if got := decimalFromNumber(json.Number("")); !got.IsZero() {
		t.Errorf("decimalFromNumber(empty) = %s, want 0", got)
	}
	if got := decimalFromNumber(json.Number("garbage")); !got.IsZero() {
		t.Errorf("decimalFromNumber(garbage) = %s, want 0", got)
	}
}

func TestTaxTotalOf(t *testing.T) {
	if got := taxTotalOf(nil); !got.IsZero() {
		t.Errorf("taxTotalOf(nil) = %s, want 0", got)
	}
	got := taxTotalOf(&qbclient.TxnTaxDetail{TotalTax: json.Number("5.25")})
	if got.String() != "5.25" {
		t.Errorf("taxTotalOf = %s, want 5.25", got)
	}
}

func TestDateOrNow(t *testing.T) {
	got := dateOrNow("2025-04-15")
	want := time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("dateOrNow = %v, want %v", got, want)
	}

	before := time.Now()
	fallback := dateOrNow("not-a-date")
	if fallback.Before(before.Add(-time.Minute)) {
		t.Errorf("dateOrNow fallback = %v, want roughly now", fallback)
	}

	due := dueDateOrDefault("bad")
	if due.Before(before.AddDate(0, 0, 29)) {
		t.Errorf("dueDateOrDefault fallback = %v, want about 30 days out", due)
	}
}
