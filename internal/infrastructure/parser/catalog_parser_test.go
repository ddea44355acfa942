package parser

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}
	return path
}

func TestParseCatalogCSV(t *testing.T) {
	path := writeTempCSV(t, `sku,name,price,currency,qty,url
rev-41-1097,REV Battery Pack 12V,25000,KZT,10,https://example.kz/battery
ARD-10-UNO,Arduino Uno R3,9000,,30,
`)

	products, err := ParseCatalogFile(path)
	if err != nil {
		t.Fatalf("ParseCatalogFile() error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("products = %d, want 2", len(products))
	}

	first := products[0]
	if first.SKU != "REV-41-1097" {
		t.Errorf("SKU = %q, want upper-cased %q", first.SKU, "REV-41-1097")
	}
	if first.Price != 25000 || first.StockQty != 10 {
		t.Errorf("price/qty = %f/%d, want 25000/10", first.Price, first.StockQty)
	}
	if first.URL != "https://example.kz/battery" {
		t.Errorf("URL = %q", first.URL)
	}

	// Valyuta bo'sh bo'lsa default qo'yiladi
	if products[1].Currency != "KZT" {
		t.Errorf("default currency = %q, want KZT", products[1].Currency)
	}
}

func TestParseCatalogCSVHeaderOrder(t *testing.T) {
	// Ustunlar tartibi sarlavhadan olinadi
	path := writeTempCSV(t, `name,qty,sku,price
Arduino Uno R3,30,ARD-10-UNO,9000
`)

	products, err := ParseCatalogFile(path)
	if err != nil {
		t.Fatalf("ParseCatalogFile() error: %v", err)
	}
	if products[0].SKU != "ARD-10-UNO" || products[0].StockQty != 30 {
		t.Errorf("got %+v", products[0])
	}
}

func TestParseCatalogCSVCommaDecimal(t *testing.T) {
	path := writeTempCSV(t, `sku,name,price
ARD-10-UNO,Arduino Uno R3,"9000,50"
`)

	products, err := ParseCatalogFile(path)
	if err != nil {
		t.Fatalf("ParseCatalogFile() error: %v", err)
	}
	if products[0].Price != 9000.50 {
		t.Errorf("price = %f, want 9000.50", products[0].Price)
	}
}

func TestParseCatalogCSVSkipsEmptyRows(t *testing.T) {
	path := writeTempCSV(t, `sku,name,price
ARD-10-UNO,Arduino Uno R3,9000
,,
`)

	products, err := ParseCatalogFile(path)
	if err != nil {
		t.Fatalf("ParseCatalogFile() error: %v", err)
	}
	if len(products) != 1 {
		t.Errorf("products = %d, want 1", len(products))
	}
}

func TestParseCatalogErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing required column", "name,price\nArduino,9000\n"},
		{"bad price", "sku,name,price\nARD-10-UNO,Arduino,дорого\n"},
		{"bad qty", "sku,name,price,qty\nARD-10-UNO,Arduino,9000,много\n"},
		{"empty file", "sku,name,price\n"},
	}
	for _, tt := range tests {
		path := writeTempCSV(t, tt.content)
		if _, err := ParseCatalogFile(path); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestParseCatalogUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.txt")
	if err := os.WriteFile(path, []byte("whatever"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if _, err := ParseCatalogFile(path); err == nil {
		t.Errorf("expected error for unsupported extension")
	}
}
