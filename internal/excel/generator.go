package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Anthonyboth/agriroute-connect-sub007/internal/i18n"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/model"
)

// Generator renders the operator consistency workbook. Every code is run
// through the localization guard; raw identifiers never reach a cell.
type Generator struct {
	loc *i18n.Guard
}

func NewGenerator(loc *i18n.Guard) *Generator {
	return &Generator{loc: loc}
}

const (
	summarySheet = "Resumo"
	matrixSheet  = "Matriz de ações"
	issuesSheet  = "Divergências"
	staleSheet   = "Fretes parados"
)

func (g *Generator) Generate(report model.ConsistencyReport) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	file.SetSheetName("Sheet1", summarySheet)
	g.writeSummary(file, summarySheet, report)

	for _, sheet := range []string{matrixSheet, issuesSheet, staleSheet} {
		if _, err := file.NewSheet(sanitizeSheetName(sheet)); err != nil {
			return nil, err
		}
	}
	g.writeMatrix(file, sanitizeSheetName(matrixSheet), report.Cells)
	g.writeIssues(file, sanitizeSheetName(issuesSheet), report.Issues)
	g.writeStale(file, sanitizeSheetName(staleSheet), report.Stale)

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, report model.ConsistencyReport) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Gerado em")
	set("B1", formatDateTime(report.GeneratedAt))
	set("A2", "Situação")
	if report.Consistent {
		set("B2", "Consistente")
	} else {
		set("B2", "Modo seguro")
	}
	set("A3", "Divergências")
	set("B3", len(report.Issues))
	set("A4", "Status sem ações")
	set("B4", g.joinStatuses(report.StuckStatuses))

	tableRow := 6
	set(fmt.Sprintf("A%d", tableRow), "Status")
	set(fmt.Sprintf("B%d", tableRow), "Fretes")

	var total int64
	for i, count := range report.StatusCounts {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), g.loc.LabelForStatus(string(count.Status)))
		set(fmt.Sprintf("B%d", row), count.Total)
		total += count.Total
	}
	totalRow := tableRow + 1 + len(report.StatusCounts)
	set(fmt.Sprintf("A%d", totalRow), "Total")
	set(fmt.Sprintf("B%d", totalRow), total)

	_ = file.SetColWidth(sheet, "A", "A", 36)
	_ = file.SetColWidth(sheet, "B", "B", 40)
}

func (g *Generator) writeMatrix(file *excelize.File, sheet string, cells []model.MatrixCell) {
	writeHeader(file, sheet, []string{"Status", "Perfil", "Ações permitidas"})

	for i, cell := range cells {
		row := i + 2
		values := []interface{}{
			g.loc.LabelForStatus(string(cell.Status)),
			g.loc.LabelForRole(string(cell.Role)),
			g.joinActions(cell.Actions),
		}
		writeRow(file, sheet, row, values)
	}

	_ = file.SetColWidth(sheet, "A", "B", 32)
	_ = file.SetColWidth(sheet, "C", "C", 80)
}

func (g *Generator) writeIssues(file *excelize.File, sheet string, issues []model.ConsistencyIssue) {
	writeHeader(file, sheet, []string{"Status", "Perfil", "Ação", "Tabela", "Regras"})

	for i, issue := range issues {
		row := i + 2
		values := []interface{}{
			g.loc.LabelForStatus(string(issue.Status)),
			g.loc.LabelForRole(string(issue.Role)),
			g.loc.LabelForAction(string(issue.Action)),
			yesNo(issue.InTable),
			yesNo(issue.ByGuard),
		}
		writeRow(file, sheet, row, values)
	}

	_ = file.SetColWidth(sheet, "A", "C", 32)
	_ = file.SetColWidth(sheet, "D", "E", 12)
}

func (g *Generator) writeStale(file *excelize.File, sheet string, stale []model.StaleFreight) {
	writeHeader(file, sheet, []string{"Frete", "Status", "Última atualização"})

	for i, freight := range stale {
		row := i + 2
		values := []interface{}{
			freight.ID.String(),
			g.loc.LabelForStatus(string(freight.Status)),
			formatDateTime(freight.UpdatedAt),
		}
		writeRow(file, sheet, row, values)
	}

	_ = file.SetColWidth(sheet, "A", "A", 40)
	_ = file.SetColWidth(sheet, "B", "C", 28)
}

func (g *Generator) joinStatuses(statuses []model.FreightStatus) string {
	if len(statuses) == 0 {
		return "—"
	}
	labels := make([]string, 0, len(statuses))
	for _, status := range statuses {
		labels = append(labels, g.loc.LabelForStatus(string(status)))
	}
	return strings.Join(labels, ", ")
}

func (g *Generator) joinActions(actions []model.Action) string {
	if len(actions) == 0 {
		return "—"
	}
	labels := make([]string, 0, len(actions))
	for _, action := range actions {
		labels = append(labels, g.loc.LabelForAction(string(action)))
	}
	return strings.Join(labels, ", ")
}

func writeHeader(file *excelize.File, sheet string, headers []string) {
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = file.SetCellValue(sheet, cell, header)
	}
}

func writeRow(file *excelize.File, sheet string, row int, values []interface{}) {
	for col, value := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		_ = file.SetCellValue(sheet, cell, value)
	}
}

func yesNo(v bool) string {
	if v {
		return "Sim"
	}
	return "Não"
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("02/01/2006 15:04")
}

func sanitizeSheetName(name string) string {
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		"?", "",
		"*", "",
		"[", "(",
		"]", ")",
		":", "-",
	)
	sanitized := strings.TrimSpace(replacer.Replace(name))
	if sanitized == "" {
		sanitized = "Planilha"
	}
	runes := []rune(sanitized)
	if len(runes) > 31 {
		sanitized = string(runes[:31])
	}
	return sanitized
}
