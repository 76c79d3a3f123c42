package applications

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"growf/platform-backend/internal/apperrors"
	"growf/platform-backend/internal/identity"
	"growf/platform-backend/internal/programs"
)

const exportSheet = "Applications"

// ExportFormat selects the file type produced by Export.
type ExportFormat string

const (
	FormatXLSX ExportFormat = "xlsx"
	FormatCSV  ExportFormat = "csv"
)

// ContentType is the response media type of the format.
func (f ExportFormat) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// ParseExportFormat defaults to xlsx.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", apperrors.NewValidation("unsupported export format", map[string]string{"format": "must be xlsx or csv"})
	}
}

var exportColumns = []string{
	"Application ID", "Company", "Status", "Score", "Review Comments",
	"Submitted At", "Reviewed At", "Created At", "Answers",
}

// Export writes every application of a program in the requested format and
// returns the suggested file name.
func (s *Service) Export(ctx context.Context, p identity.Principal, programID uuid.UUID, format ExportFormat, w io.Writer) (string, error) {
	program, err := s.loadProgramForReading(ctx, p, programID)
	if err != nil {
		return "", err
	}
	apps, err := s.repo.ListAll(ctx, Filter{ProgramID: &programID})
	if err != nil {
		return "", err
	}
	switch format {
	case FormatCSV:
		err = WriteCSV(w, apps)
	default:
		format = FormatXLSX
		err = WriteWorkbook(w, program, apps)
	}
	if err != nil {
		return "", err
	}
	return exportFileName(program, format, s.now()), nil
}

// WriteCSV writes the same columns as the workbook with RFC 3339 timestamps.
func WriteCSV(w io.Writer, apps []Application) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := range apps {
		app := &apps[i]
		score := ""
		if app.Score != nil {
			score = strconv.FormatFloat(*app.Score, 'f', -1, 64)
		}
		record := []string{
			app.ID.String(),
			safeCell(companyName(app)),
			string(app.Status),
			score,
			safeCell(app.ReviewComments),
			timeCell(app.SubmittedAt),
			timeCell(app.ReviewedAt),
			app.CreatedAt.UTC().Format(time.RFC3339),
			safeCell(string(app.Data)),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteWorkbook renders one row per application with a frozen, filtered header.
func WriteWorkbook(w io.Writer, program *programs.Program, apps []Application) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]any, len(exportColumns))
	for i, col := range exportColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(exportColumns))
	if err := f.SetCellStyle(exportSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, app := range apps {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			app.ID.String(),
			safeCell(companyName(&app)),
			string(app.Status),
			scoreCell(app.Score),
			safeCell(app.ReviewComments),
			timeCell(app.SubmittedAt),
			timeCell(app.ReviewedAt),
			app.CreatedAt.UTC().Format(time.RFC3339),
			safeCell(string(app.Data)),
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}
	if len(apps) > 0 {
		if err := f.AutoFilter(exportSheet, "A1:"+lastCol+"1", nil); err != nil {
			return fmt.Errorf("failed to add filter: %w", err)
		}
	}
	if err := f.SetColWidth(exportSheet, "A", lastCol, 20); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{Title: program.Title, Creator: "GROWF"}); err != nil {
		return fmt.Errorf("failed to set properties: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func scoreCell(score *float64) any {
	if score == nil {
		return ""
	}
	return *score
}

func timeCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func exportFileName(program *programs.Program, format ExportFormat, now time.Time) string {
	slug := slugify(program.Title)
	if slug == "" {
		slug = "program"
	}
	return fmt.Sprintf("applications-%s-%s.%s", slug, now.Format("20060102"), format)
}

func slugify(title string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + 'a' - 'A'
		default:
			return '-'
		}
	}, title)
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}

// safeCell stops spreadsheet apps from evaluating user text as a formula.
func safeCell(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + v
	}
	return v
}
