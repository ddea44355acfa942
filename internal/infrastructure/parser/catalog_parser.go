package parser

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"github.com/kerneugroup/telegram-order-bot/internal/domain/constants"
	"github.com/kerneugroup/telegram-order-bot/internal/domain/entity"
)

// ParseCatalogFile katalog faylidan mahsulotlarni o'qish. Format fayl
// kengaytmasidan aniqlanadi: .csv yoki .xlsx. Kutilgan ustunlar:
// sku, name, price, currency, qty, url (sarlavha qatori majburiy).
func ParseCatalogFile(path string) ([]entity.Product, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseCSV(path)
	case ".xlsx":
		return parseXLSX(path)
	default:
		return nil, fmt.Errorf("katalog fayl formati qo'llab-quvvatlanmaydi: %s", path)
	}
}

func parseCSV(path string) ([]entity.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("katalog faylini ochib bo'lmadi: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("CSV o'qib bo'lmadi: %w", err)
	}
	return rowsToProducts(rows)
}

func parseXLSX(path string) ([]entity.Product, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("katalog faylini ochib bo'lmadi: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("XLSX faylda varaq yo'q")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("XLSX o'qib bo'lmadi: %w", err)
	}
	return rowsToProducts(rows)
}

// rowsToProducts qatorlarni mahsulotlarga aylantirish. Birinchi qator
// sarlavha sifatida qabul qilinadi, ustun tartibi sarlavhadan olinadi.
func rowsToProducts(rows [][]string) ([]entity.Product, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("katalog bo'sh: sarlavha va kamida bitta qator kerak")
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"sku", "name", "price"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("katalogda majburiy ustun yo'q: %s", required)
		}
	}

	var products []entity.Product
	for rowNum, row := range rows[1:] {
		sku := strings.ToUpper(cell(row, cols, "sku"))
		name := cell(row, cols, "name")
		if sku == "" || name == "" {
			continue // bo'sh qatorlar import paytida e'tiborga olinmaydi
		}

		price, err := strconv.ParseFloat(strings.ReplaceAll(cell(row, cols, "price"), ",", "."), 64)
		if err != nil {
			return nil, fmt.Errorf("qator %d: narx noto'g'ri: %q", rowNum+2, cell(row, cols, "price"))
		}

		qty := 0
		if raw := cell(row, cols, "qty"); raw != "" {
			qty, err = strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("qator %d: qoldiq noto'g'ri: %q", rowNum+2, raw)
			}
		}

		currency := cell(row, cols, "currency")
		if currency == "" {
			currency = constants.DefaultCurrency
		}

		products = append(products, entity.Product{
			SKU:      sku,
			Name:     name,
			Price:    price,
			Currency: currency,
			StockQty: qty,
			URL:      cell(row, cols, "url"),
		})
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("katalogda yaroqli mahsulot topilmadi")
	}
	return products, nil
}

func cell(row []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
