package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonathan/fiscal-tone/internal/types"
)

// Output file names. Both artifacts are written as JSON for downstream
// tooling and as CSV for direct inspection.
const (
	ParagraphsJSON = "paragraphs_scored.json"
	ParagraphsCSV  = "paragraphs_scored.csv"
	DocumentsJSON  = "documents_summary.json"
	DocumentsCSV   = "documents_summary.csv"
)

// WriteOutputs writes the item-level and document-level artifacts into dir,
// creating it if needed.
func WriteOutputs(dir string, ws *types.WorkingSet, summaries []types.DocumentSummary) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", dir, err)
	}

	if err := writeJSON(filepath.Join(dir, ParagraphsJSON), ws.Entries); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, DocumentsJSON), summaries); err != nil {
		return err
	}
	if err := writeParagraphsCSV(filepath.Join(dir, ParagraphsCSV), ws); err != nil {
		return err
	}
	return writeDocumentsCSV(filepath.Join(dir, DocumentsCSV), summaries)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func writeParagraphsCSV(path string, ws *types.WorkingSet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "document_id", "date", "score", "absent", "attempts"}); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	for _, e := range ws.Entries {
		record := []string{e.Paragraph.ID, e.Paragraph.DocumentID, formatDate(e.Paragraph.Date), "", "false", "0"}
		if e.Score != nil {
			if e.Score.Scored() {
				record[3] = strconv.Itoa(e.Score.Value)
			}
			record[4] = strconv.FormatBool(e.Score.Absent)
			record[5] = strconv.Itoa(e.Score.Attempts)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	w.Flush()
	return w.Error()
}

func writeDocumentsCSV(path string, summaries []types.DocumentSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"document_id", "date", "count", "scored", "mean_score", "tone_index"}
	for v := types.MinScore; v <= types.MaxScore; v++ {
		header = append(header, "n_score_"+strconv.Itoa(v))
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	for _, s := range summaries {
		record := []string{
			s.DocumentID,
			formatDate(s.Date),
			strconv.Itoa(s.Count),
			strconv.Itoa(s.Scored),
			strconv.FormatFloat(s.MeanScore, 'f', 4, 64),
			strconv.FormatFloat(s.ToneIndex, 'f', 4, 64),
		}
		for v := types.MinScore; v <= types.MaxScore; v++ {
			record = append(record, strconv.Itoa(s.Histogram[v]))
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	w.Flush()
	return w.Error()
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
