package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/boddenberg/jjr-ops-go/internal/domain"

	"github.com/xuri/excelize/v2"
)

// Header names accepted for each column of the historical job sheet.
var legacyColumns = map[string][]string{
	"client":     {"client", "client name", "customer"},
	"address":    {"address"},
	"rep":        {"rep", "sales rep", "rep name"},
	"start":      {"start", "start date"},
	"labor":      {"labor", "labor cost"},
	"materials":  {"material", "materials", "material cost"},
	"revenue":    {"payout", "revenue"},
	"gross":      {"profit", "gross profit"},
	"commission": {"rep comm", "commission", "rep commission"},
	"net":        {"jj profit", "net profit"},
	"paid":       {"paid"},
	"completed":  {"completed", "completion date", "completed date"},
}

// ReadLegacyRecords parses the first sheet of the historical workbook. The
// first row must hold headers; blank rows and rows without a client are
// skipped.
func ReadLegacyRecords(r io.Reader) ([]domain.LegacyRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &domain.ErrValidation{Field: "workbook", Message: "no sheets"}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	idx := indexHeaders(rows[0])
	if _, ok := idx["client"]; !ok {
		return nil, &domain.ErrValidation{Field: "workbook", Message: "missing client column"}
	}

	var out []domain.LegacyRecord
	for _, row := range rows[1:] {
		get := func(key string) string {
			i, ok := idx[key]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		if get("client") == "" {
			continue
		}
		out = append(out, domain.LegacyRecord{
			ClientName:     get("client"),
			Address:        get("address"),
			RepName:        get("rep"),
			StartDate:      get("start"),
			LaborCost:      amount(get("labor")),
			MaterialCost:   amount(get("materials")),
			Revenue:        amount(get("revenue")),
			GrossProfit:    amount(get("gross")),
			RepCommission:  amount(get("commission")),
			NetProfit:      amount(get("net")),
			Paid:           isYes(get("paid")),
			CompletionDate: get("completed"),
		})
	}
	return out, nil
}

func indexHeaders(header []string) map[string]int {
	idx := make(map[string]int)
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		for key, aliases := range legacyColumns {
			for _, a := range aliases {
				if name == a {
					if _, seen := idx[key]; !seen {
						idx[key] = i
					}
				}
			}
		}
	}
	return idx
}

// amount strips currency formatting before coercion.
func amount(s string) float64 {
	s = strings.NewReplacer("$", "", ",", "").Replace(s)
	return domain.ParseAmount(s)
}

func isYes(s string) bool {
	switch strings.ToLower(s) {
	case "yes", "y", "true", "x", "paid", "1":
		return true
	}
	return false
}
