package applications

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"

	"growf/platform-backend/internal/identity"
)

// Dossier renders a printable PDF of one application with its answers and
// status history. Visibility follows Get.
func (s *Service) Dossier(ctx context.Context, p identity.Principal, id uuid.UUID, w io.Writer) (string, error) {
	app, err := s.Get(ctx, p, id)
	if err != nil {
		return "", err
	}
	history, err := s.repo.History(ctx, id)
	if err != nil {
		return "", err
	}
	if err := WriteDossier(w, app, history, s.now()); err != nil {
		return "", err
	}
	return fmt.Sprintf("application-%s.pdf", app.ID.String()[:8]), nil
}

var (
	headerFill = [3]int{68, 114, 196}
	stripeFill = [3]int{242, 242, 242}
)

// WriteDossier lays out an A4 portrait document.
func WriteDossier(w io.Writer, app *Application, history []StatusChange, generatedAt time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	programTitle := "Program"
	if app.Program != nil {
		programTitle = app.Program.Title
	}
	pdf.SetTitle(tr(programTitle+" - "+companyName(app)), false)
	pdf.SetAuthor("GROWF", false)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("Generated %s - page %d/{nb}", generatedAt.UTC().Format("2006-01-02 15:04 UTC"), pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(programTitle), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 12)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 8, tr(companyName(app)), "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)

	section(pdf, "Summary")
	summary := [][2]string{
		{"Application", app.ID.String()},
		{"Status", string(app.Status)},
		{"Score", scoreText(app.Score)},
		{"Created", app.CreatedAt.UTC().Format(time.RFC3339)},
		{"Submitted", timeCell(app.SubmittedAt)},
		{"Reviewed", timeCell(app.ReviewedAt)},
	}
	for _, kv := range summary {
		keyValue(pdf, tr, kv[0], kv[1])
	}
	if app.ReviewComments != "" {
		pdf.Ln(2)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, "Review comments", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, tr(app.ReviewComments), "", "L", false)
	}

	pdf.Ln(4)
	section(pdf, "Answers")
	answers := flattenAnswers(app.Data)
	if len(answers) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 6, "No answers recorded.", "", 1, "L", false, 0, "")
	}
	for _, kv := range answers {
		keyValue(pdf, tr, kv[0], kv[1])
	}

	pdf.Ln(4)
	section(pdf, "Status history")
	historyTable(pdf, tr, history)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render dossier: %w", err)
	}
	return nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(headerFill[0], headerFill[1], headerFill[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(0, 8, title, "", 1, "L", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(2)
}

func keyValue(pdf *gofpdf.Fpdf, tr func(string) string, key, value string) {
	if value == "" {
		value = "-"
	}
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(50, 6, tr(key), "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 6, tr(value), "", "L", false)
}

func historyTable(pdf *gofpdf.Fpdf, tr func(string) string, history []StatusChange) {
	widths := []float64{45, 35, 35, 65}
	pdf.SetFont("Arial", "B", 10)
	for i, label := range []string{"When", "From", "To", "Note"} {
		pdf.CellFormat(widths[i], 7, label, "B", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	pdf.SetFillColor(stripeFill[0], stripeFill[1], stripeFill[2])
	for i, change := range history {
		fill := i%2 == 1
		pdf.CellFormat(widths[0], 6, change.ChangedAt.UTC().Format("2006-01-02 15:04"), "", 0, "L", fill, 0, "")
		pdf.CellFormat(widths[1], 6, string(change.FromStatus), "", 0, "L", fill, 0, "")
		pdf.CellFormat(widths[2], 6, string(change.ToStatus), "", 0, "L", fill, 0, "")
		pdf.CellFormat(widths[3], 6, tr(truncate(change.Note, 45)), "", 1, "L", fill, 0, "")
	}
	if len(history) == 0 {
		pdf.CellFormat(0, 6, "No transitions yet.", "", 1, "L", false, 0, "")
	}
}

// flattenAnswers renders top-level form answers as sorted key/value pairs.
// Nested values are kept as compact JSON.
func flattenAnswers(raw []byte) [][2]string {
	if len(raw) == 0 {
		return nil
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return [][2]string{{"answers", string(raw)}}
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([][2]string, 0, len(keys))
	for _, k := range keys {
		var value string
		switch v := data[k].(type) {
		case string:
			value = v
		case nil:
			value = ""
		default:
			b, _ := json.Marshal(v)
			value = string(b)
		}
		out = append(out, [2]string{k, value})
	}
	return out
}

func scoreText(score *float64) string {
	if score == nil {
		return ""
	}
	return strconv.FormatFloat(*score, 'f', -1, 64) + " / 100"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
