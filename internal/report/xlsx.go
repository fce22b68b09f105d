package report

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the exported workbook.
const (
	SheetTrialBalance = "Trial Balance"
	SheetIncome       = "Income Statement"
	SheetBalance      = "Balance Sheet"
	SheetEquity       = "Equity Statement"
	SheetRatios       = "Ratios"
)

type workbook struct {
	f       *excelize.File
	header  int
	data    int
	summary int
}

func border() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
}

func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border(),
	})
	if err != nil {
		return nil, err
	}
	data, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "center"},
		Border:    border(),
	})
	if err != nil {
		return nil, err
	}
	summary, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Border: border(),
	})
	if err != nil {
		return nil, err
	}
	return &workbook{f: f, header: header, data: data, summary: summary}, nil
}

// sheet creates a sheet with a styled header row and returns the next row.
func (w *workbook) sheet(name string, headers []string, widths []float64) (int, error) {
	if _, err := w.f.NewSheet(name); err != nil {
		return 0, fmt.Errorf("creating sheet %s: %w", name, err)
	}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := fmt.Sprintf("%s1", col)
		if err := w.f.SetCellValue(name, cell, h); err != nil {
			return 0, err
		}
		if err := w.f.SetCellStyle(name, cell, cell, w.header); err != nil {
			return 0, err
		}
		if i < len(widths) {
			if err := w.f.SetColWidth(name, col, col, widths[i]); err != nil {
				return 0, err
			}
		}
	}
	return 2, nil
}

// row writes values into one row with the given style.
func (w *workbook) row(name string, row int, style int, values ...any) error {
	for i, v := range values {
		if d, ok := v.(decimal.Decimal); ok {
			v = d.InexactFloat64()
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := w.f.SetCellValue(name, fmt.Sprintf("%s%d", col, row), v); err != nil {
			return err
		}
	}
	last, _ := excelize.ColumnNumberToName(len(values))
	return w.f.SetCellStyle(name, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", last, row), style)
}

// WriteWorkbook writes every statement of b to an xlsx workbook, one sheet
// per statement. Amounts are converted to floating point only here.
func WriteWorkbook(out io.Writer, b Bundle) error {
	w, err := newWorkbook()
	if err != nil {
		return fmt.Errorf("creating workbook: %w", err)
	}
	defer w.f.Close()

	steps := []func(*workbook, Bundle) error{
		writeTrialSheet,
		writeIncomeSheet,
		writeBalanceSheet,
		writeEquitySheet,
		writeRatiosSheet,
	}
	for _, step := range steps {
		if err := step(w, b); err != nil {
			return err
		}
	}

	if err := w.f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	idx, err := w.f.GetSheetIndex(SheetTrialBalance)
	if err != nil {
		return err
	}
	w.f.SetActiveSheet(idx)

	if err := w.f.Write(out); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeTrialSheet(w *workbook, b Bundle) error {
	name := SheetTrialBalance
	row, err := w.sheet(name, TrialBalanceHeader, []float64{10, 30, 20, 24, 14, 14, 14, 14})
	if err != nil {
		return err
	}
	for _, r := range b.Trial.Rows {
		if err := w.row(name, row, w.data, r.AccountID, r.Name, r.Category, r.Subcategory, r.GrossDebit, r.GrossCredit, r.Debit, r.Credit); err != nil {
			return err
		}
		row++
	}
	status := "balanced"
	if !b.Trial.Balanced {
		status = "not balanced"
	}
	return w.row(name, row, w.summary, "", "Total", status, "", "", "", b.Trial.TotalDebit, b.Trial.TotalCredit)
}

func writeIncomeSheet(w *workbook, b Bundle) error {
	name := SheetIncome
	row, err := w.sheet(name, []string{"line", "amount"}, []float64{30, 16})
	if err != nil {
		return err
	}
	for _, l := range b.Income.RevenueLines {
		if err := w.row(name, row, w.data, l.Name, l.Amount); err != nil {
			return err
		}
		row++
	}
	for _, l := range b.Income.ExpenseLines {
		if err := w.row(name, row, w.data, l.Name, l.Amount.Neg()); err != nil {
			return err
		}
		row++
	}
	totals := []struct {
		label string
		value decimal.Decimal
	}{
		{"Revenue", b.Income.Revenue},
		{"Expense", b.Income.Expense},
		{"Cost of sales", b.Income.CostOfSales},
		{"Profit", b.Income.Profit},
	}
	for _, t := range totals {
		if err := w.row(name, row, w.summary, t.label, t.value); err != nil {
			return err
		}
		row++
	}
	return nil
}

func writeBalanceSheet(w *workbook, b Bundle) error {
	name := SheetBalance
	row, err := w.sheet(name, []string{"line", "amount"}, []float64{36, 16})
	if err != nil {
		return err
	}
	lines := []struct {
		label string
		value decimal.Decimal
	}{
		{"Assets", b.Balance.Assets},
		{"Liabilities", b.Balance.Liabilities},
		{"Equity", b.Balance.Equity},
		{"Profit for the period", b.Balance.Profit},
	}
	for _, l := range lines {
		if err := w.row(name, row, w.data, l.label, l.value); err != nil {
			return err
		}
		row++
	}
	return w.row(name, row, w.summary, "Liabilities + equity + profit", b.Balance.Check)
}

func writeEquitySheet(w *workbook, b Bundle) error {
	name := SheetEquity
	row, err := w.sheet(name, []string{"category", "subcategory", "amount"}, []float64{24, 30, 16})
	if err != nil {
		return err
	}
	for _, g := range b.Equity.Groups {
		if err := w.row(name, row, w.data, g.Category, g.Subcategory, g.Amount); err != nil {
			return err
		}
		row++
	}
	return w.row(name, row, w.summary, "Total", "", b.Equity.Total)
}

func writeRatiosSheet(w *workbook, b Bundle) error {
	name := SheetRatios
	row, err := w.sheet(name, []string{"ratio", "value"}, []float64{20, 14})
	if err != nil {
		return err
	}
	ratios := []struct {
		label string
		value Ratio
	}{
		{"liquidity", b.Ratios.Liquidity},
		{"solvency", b.Ratios.Solvency},
		{"leverage", b.Ratios.Leverage},
		{"cost_ratio", b.Ratios.CostRatio},
		{"return_ratio", b.Ratios.Return},
	}
	for _, r := range ratios {
		var v any = r.value.String()
		if r.value.Defined {
			v = r.value.Value
		}
		if err := w.row(name, row, w.data, r.label, v); err != nil {
			return err
		}
		row++
	}
	return nil
}
