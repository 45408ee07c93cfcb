package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	apperrors "cuentas/internal/errors"
	"cuentas/internal/models"
	"cuentas/internal/period"
)

// reportService builds the multi-sheet Excel report: one sheet per
// calendar month in the user's history, each with the month's rows and a
// summary block computed with the same balance formula as Summarize.
type reportService struct {
	db *gorm.DB
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB) ReportServicer {
	return &reportService{db: db}
}

// Sheet labels. The product reports in Spanish.
var monthNames = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

var sheetHeaders = []string{"Fecha", "Tipo", "Categoría", "Descripción", "Monto", "Soporte"}

const (
	colorHeaderFill = "003366"
	colorIncome     = "008000"
	colorExpense    = "FF0000"
	colorLink       = "0000FF"
	colorSummary    = "DDEBF7"

	currencyFmt = `"$"#,##0.00`
	dateFmt     = "dd/mm/yyyy"

	emptySheetName = "Sin movimientos"
)

// monthGroup is one sheet's worth of data: a month of transactions plus
// the totals for its summary block.
type monthGroup struct {
	month        period.Month
	transactions []models.Transaction
	base         decimal.Decimal
	income       decimal.Decimal
	expense      decimal.Decimal
	balance      decimal.Decimal
}

func (g *monthGroup) title() string {
	return fmt.Sprintf("%s %d", monthNames[int(g.month.Month)-1], g.month.Year)
}

// MonthlyWorkbook builds the full report for a user. A user with no
// transactions gets a single informational sheet rather than an error.
func (s *reportService) MonthlyWorkbook(userID uint) (*excelize.File, error) {
	var transactions []models.Transaction
	err := s.db.
		Where("user_id = ?", userID).
		Order("date ASC").
		Find(&transactions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	groups, err := s.buildGroups(userID, transactions)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()

	if len(groups) == 0 {
		if err := renderEmptySheet(f); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrReportGeneration, err)
		}
		return f, nil
	}

	styles, err := newSheetStyles(f)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrReportGeneration, err)
	}

	for i := range groups {
		if err := renderSheet(f, i, &groups[i], styles); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrReportGeneration, err)
		}
	}
	f.SetActiveSheet(0)

	return f, nil
}

// buildGroups partitions the history by UTC calendar month, preserving
// chronological order, and resolves each group's own budget base by its
// (user, month) composite key.
func (s *reportService) buildGroups(userID uint, transactions []models.Transaction) ([]monthGroup, error) {
	index := make(map[string]int)
	var groups []monthGroup

	for _, tx := range transactions {
		m := period.Of(tx.Date)
		key := m.Key()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, monthGroup{month: m})
		}
		groups[i].transactions = append(groups[i].transactions, tx)
	}

	for i := range groups {
		g := &groups[i]

		var budget models.Budget
		err := s.db.Where("user_id = ? AND month = ?", userID, g.month.Key()).First(&budget).Error
		switch {
		case err == nil:
			g.base = budget.ResolvedAmount()
		case errors.Is(err, gorm.ErrRecordNotFound):
			g.base = decimal.Zero
		default:
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		g.income, g.expense = tally(g.transactions)
		g.balance = finalBalance(g.base, g.income, g.expense)
	}

	return groups, nil
}

// sheetStyles holds the style IDs shared by every sheet of one workbook.
type sheetStyles struct {
	header        int
	date          int
	incomeKind    int
	expenseKind   int
	incomeAmount  int
	expenseAmount int
	link          int
	summaryLabel  int
	summaryValue  int
	balancePos    int
	balanceNeg    int
}

func newSheetStyles(f *excelize.File) (*sheetStyles, error) {
	var st sheetStyles
	var err error

	dateNumFmt := dateFmt
	curNumFmt := currencyFmt

	if st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{colorHeaderFill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return nil, err
	}
	if st.date, err = f.NewStyle(&excelize.Style{
		CustomNumFmt: &dateNumFmt,
		Alignment:    &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return nil, err
	}
	if st.incomeKind, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: colorIncome},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return nil, err
	}
	if st.expenseKind, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: colorExpense},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return nil, err
	}
	if st.incomeAmount, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Color: colorIncome},
		CustomNumFmt: &curNumFmt,
	}); err != nil {
		return nil, err
	}
	if st.expenseAmount, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Color: colorExpense},
		CustomNumFmt: &curNumFmt,
	}); err != nil {
		return nil, err
	}
	if st.link, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: colorLink, Underline: "single"},
	}); err != nil {
		return nil, err
	}
	if st.summaryLabel, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	}); err != nil {
		return nil, err
	}
	if st.summaryValue, err = f.NewStyle(&excelize.Style{
		CustomNumFmt: &curNumFmt,
	}); err != nil {
		return nil, err
	}
	if st.balancePos, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true, Size: 12, Color: colorIncome},
		Fill:         excelize.Fill{Type: "pattern", Color: []string{colorSummary}, Pattern: 1},
		CustomNumFmt: &curNumFmt,
	}); err != nil {
		return nil, err
	}
	if st.balanceNeg, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true, Size: 12, Color: colorExpense},
		Fill:         excelize.Fill{Type: "pattern", Color: []string{colorSummary}, Pattern: 1},
		CustomNumFmt: &curNumFmt,
	}); err != nil {
		return nil, err
	}

	return &st, nil
}

// renderSheet writes one month's sheet: header row, one row per
// transaction, a blank separator, and the summary block.
func renderSheet(f *excelize.File, idx int, g *monthGroup, st *sheetStyles) error {
	sheet := g.title()
	if idx == 0 {
		if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
			return err
		}
	} else {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}

	widths := []float64{12, 10, 20, 35, 15, 14}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}

	for i, h := range sheetHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, "A1", "F1", st.header); err != nil {
		return err
	}
	if err := f.AutoFilter(sheet, "A1:F1", nil); err != nil {
		return err
	}

	row := 2
	for _, tx := range g.transactions {
		if err := renderRow(f, sheet, row, tx, st); err != nil {
			return err
		}
		row++
	}

	return renderSummary(f, sheet, row+1, g, st)
}

func renderRow(f *excelize.File, sheet string, row int, tx models.Transaction, st *sheetStyles) error {
	kindStyle, amountStyle := st.incomeKind, st.incomeAmount
	if tx.Kind == models.KindExpense {
		kindStyle, amountStyle = st.expenseKind, st.expenseAmount
	}

	dateCell := fmt.Sprintf("A%d", row)
	if err := f.SetCellValue(sheet, dateCell, tx.Date.UTC()); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, dateCell, dateCell, st.date); err != nil {
		return err
	}

	kindCell := fmt.Sprintf("B%d", row)
	if err := f.SetCellValue(sheet, kindCell, kindLabel(tx.Kind)); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, kindCell, kindCell, kindStyle); err != nil {
		return err
	}

	if err := f.SetCellValue(sheet, fmt.Sprintf("C%d", row), normalizeCategory(tx.Category)); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, fmt.Sprintf("D%d", row), tx.Description); err != nil {
		return err
	}

	amountCell := fmt.Sprintf("E%d", row)
	amount, _ := tx.Amount.Float64()
	if err := f.SetCellValue(sheet, amountCell, amount); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, amountCell, amountCell, amountStyle); err != nil {
		return err
	}

	linkCell := fmt.Sprintf("F%d", row)
	if tx.ReceiptURL != "" {
		if err := f.SetCellValue(sheet, linkCell, "Ver soporte"); err != nil {
			return err
		}
		if err := f.SetCellHyperLink(sheet, linkCell, tx.ReceiptURL, "External"); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, linkCell, linkCell, st.link); err != nil {
			return err
		}
	} else {
		if err := f.SetCellValue(sheet, linkCell, "-"); err != nil {
			return err
		}
	}

	return nil
}

func renderSummary(f *excelize.File, sheet string, row int, g *monthGroup, st *sheetStyles) error {
	balanceStyle := st.balancePos
	if g.balance.IsNegative() {
		balanceStyle = st.balanceNeg
	}

	lines := []struct {
		label string
		value decimal.Decimal
		style int
	}{
		{"Base del mes:", g.base, st.summaryValue},
		{"Total ingresos:", g.income, st.incomeAmount},
		{"Total egresos:", g.expense, st.expenseAmount},
		{"Balance final:", g.balance, balanceStyle},
	}

	for i, line := range lines {
		labelCell := fmt.Sprintf("D%d", row+i)
		valueCell := fmt.Sprintf("E%d", row+i)

		if err := f.SetCellValue(sheet, labelCell, line.label); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, labelCell, labelCell, st.summaryLabel); err != nil {
			return err
		}

		value, _ := line.value.Float64()
		if err := f.SetCellValue(sheet, valueCell, value); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, valueCell, valueCell, line.style); err != nil {
			return err
		}
	}

	return nil
}

func renderEmptySheet(f *excelize.File) error {
	if err := f.SetSheetName(f.GetSheetName(0), emptySheetName); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Italic: true, Size: 12}})
	if err != nil {
		return err
	}
	if err := f.SetCellValue(emptySheetName, "A1", "No hay movimientos registrados."); err != nil {
		return err
	}
	if err := f.SetCellStyle(emptySheetName, "A1", "A1", style); err != nil {
		return err
	}
	return f.SetColWidth(emptySheetName, "A", "A", 40)
}

func kindLabel(kind models.TransactionKind) string {
	if kind == models.KindIncome {
		return "INGRESO"
	}
	return "EGRESO"
}

// normalizeCategory trims the label, falls back to the default category,
// and renders it with a consistent leading capital.
func normalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return models.DefaultCategory
	}
	runes := []rune(strings.ToLower(category))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// ReportFilename builds the download filename, embedding the requesting
// user's name with filesystem-unsafe characters stripped.
func ReportFilename(username string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, username)
	if sanitized == "" {
		return "reporte_contabilidad.xlsx"
	}
	return fmt.Sprintf("reporte_contabilidad_%s.xlsx", sanitized)
}
