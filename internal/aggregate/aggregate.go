// Package aggregate rolls paragraph-level scores up into per-document
// summary statistics and the fiscal tone index.
package aggregate

import (
	"sort"

	"github.com/jonathan/fiscal-tone/internal/types"
)

// The tone index maps the 1..5 score scale onto a symmetric -1..+1 scale:
// +1 is maximum consolidation (score 1), 0 is neutral (score 3), -1 is
// maximum alarm (score 5).
const (
	scaleMidpoint  = 3.0
	scaleHalfRange = 2.0
)

// ToneIndex converts a mean score into the fiscal tone index.
func ToneIndex(meanScore float64) float64 {
	return (scaleMidpoint - meanScore) / scaleHalfRange
}

// Summarize groups scored paragraphs by document and computes per-document
// statistics. Absent paragraphs are excluded from the mean and histogram but
// still counted as attempted, so data quality stays auditable. The output is
// deterministic for a given working set regardless of the order
// classifications completed in: documents sort by earliest date, then id.
func Summarize(ws *types.WorkingSet) []types.DocumentSummary {
	byDoc := make(map[string]*types.DocumentSummary)
	sums := make(map[string]int)

	for _, e := range ws.Entries {
		doc := e.Paragraph.DocumentID
		summary, ok := byDoc[doc]
		if !ok {
			summary = &types.DocumentSummary{
				DocumentID: doc,
				Histogram:  emptyHistogram(),
			}
			byDoc[doc] = summary
		}

		summary.Count++
		if summary.Date == nil || (e.Paragraph.Date != nil && e.Paragraph.Date.Before(*summary.Date)) {
			summary.Date = e.Paragraph.Date
		}

		if e.Score == nil || !e.Score.Scored() {
			continue
		}
		summary.Scored++
		summary.Histogram[e.Score.Value]++
		sums[doc] += e.Score.Value
	}

	out := make([]types.DocumentSummary, 0, len(byDoc))
	for doc, summary := range byDoc {
		if summary.Scored > 0 {
			summary.MeanScore = float64(sums[doc]) / float64(summary.Scored)
			summary.ToneIndex = ToneIndex(summary.MeanScore)
		}
		out = append(out, *summary)
	}

	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].Date, out[j].Date
		switch {
		case di != nil && dj != nil && !di.Equal(*dj):
			return di.Before(*dj)
		case di != nil && dj == nil:
			return true
		case di == nil && dj != nil:
			return false
		}
		return out[i].DocumentID < out[j].DocumentID
	})
	return out
}

// Report computes corpus-level statistics for the final run report.
func Report(ws *types.WorkingSet, summaries []types.DocumentSummary) types.RunReport {
	report := types.RunReport{
		Paragraphs:   ws.Len(),
		Documents:    len(summaries),
		Distribution: emptyHistogram(),
	}

	for _, e := range ws.Entries {
		switch {
		case e.Score != nil && e.Score.Scored():
			report.ScoredCount++
			report.Distribution[e.Score.Value]++
		case e.Score != nil && e.Score.Absent:
			report.AbsentCount++
		}
	}

	if len(summaries) > 0 {
		total := 0.0
		for _, s := range summaries {
			total += s.ToneIndex
		}
		report.MeanTone = total / float64(len(summaries))
	}
	return report
}

func emptyHistogram() map[int]int {
	h := make(map[int]int, types.MaxScore-types.MinScore+1)
	for v := types.MinScore; v <= types.MaxScore; v++ {
		h[v] = 0
	}
	return h
}
