// Package export reads and writes spreadsheets: the P&L workbook and the
// historical job sheet used by the legacy import.
package export

import (
	"fmt"
	"io"

	"github.com/boddenberg/jjr-ops-go/internal/domain"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	jobsSheet    = "Jobs"
	moneyFormat  = `"$"#,##0.00`
)

var jobHeaders = []string{
	"Job Number", "Client", "Phase", "Sales Rep", "Revenue", "Materials", "Labor",
	"Other", "Commission", "Gross Profit", "Net Profit", "Margin %", "Received", "Legacy",
}

// WriteProfitAndLoss writes a workbook with the company P&L on the first
// sheet and one row per job on the second.
func WriteProfitAndLoss(w io.Writer, pnl domain.ProfitAndLoss, jobs []domain.Job) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(jobsSheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	currency, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr(moneyFormat)})
	if err != nil {
		return err
	}

	// Summary
	f.SetCellValue(summarySheet, "A1", pnl.Company)
	f.SetCellValue(summarySheet, "A2", pnl.Period)
	f.SetCellStyle(summarySheet, "A1", "A1", bold)
	summary := []struct {
		label string
		value float64
	}{
		{"Total Revenue", pnl.TotalRevenue},
		{"Materials", pnl.TotalMaterials},
		{"Labor", pnl.TotalLabor},
		{"Gross Profit", pnl.GrossProfit},
		{"Commissions", pnl.TotalCommissions},
		{"Net Profit", pnl.NetProfit},
	}
	for i, line := range summary {
		row := i + 4
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), line.label)
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), line.value)
		f.SetCellStyle(summarySheet, fmt.Sprintf("B%d", row), fmt.Sprintf("B%d", row), currency)
	}
	f.SetColWidth(summarySheet, "A", "B", 20)

	// Jobs
	for i, h := range jobHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(jobsSheet, cell, h)
		f.SetCellStyle(jobsSheet, cell, cell, bold)
	}
	for i := range jobs {
		j := &jobs[i]
		fin := &j.Financials
		values := []any{
			j.JobNumber,
			j.Client.Name,
			fmt.Sprintf("%d - %s", j.PhaseTracking.CurrentPhase, domain.PhaseName(j.PhaseTracking.CurrentPhase)),
			j.SalesRep.Name,
			fin.TotalRevenue(),
			fin.Costs.Materials,
			fin.Costs.Labor,
			fin.Costs.Other,
			fin.Commissions.SalesRepAmount,
			fin.Profitability.GrossProfit,
			fin.Profitability.NetProfit,
			fin.Profitability.GrossMargin,
			fin.Payments.TotalReceived,
			fin.IsLegacy,
		}
		row := i + 2
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(jobsSheet, cell, v)
		}
		first, _ := excelize.CoordinatesToCellName(5, row)
		last, _ := excelize.CoordinatesToCellName(11, row)
		f.SetCellStyle(jobsSheet, first, last, currency)
	}
	f.SetColWidth(jobsSheet, "A", "N", 15)

	f.SetActiveSheet(0)
	_, err = f.WriteTo(w)
	return err
}

func strPtr(s string) *string { return &s }
