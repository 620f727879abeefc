package types

import "time"

// DocumentSummary represents the aggregated classification result for one
// source document. Count reflects attempted paragraphs; Scored reflects the
// subset that received a usable score, so data-quality loss stays auditable.
type DocumentSummary struct {
	DocumentID string      `json:"document_id"`
	Count      int         `json:"count"`
	Scored     int         `json:"scored"`
	MeanScore  float64     `json:"mean_score"`
	Histogram  map[int]int `json:"histogram"`
	ToneIndex  float64     `json:"tone_index"`
	Date       *time.Time  `json:"date,omitempty"`
}

// RunReport summarizes a completed run for the final log line and the
// optional database artifact.
type RunReport struct {
	Paragraphs   int         `json:"paragraphs"`
	Documents    int         `json:"documents"`
	ScoredCount  int         `json:"scored_count"`
	AbsentCount  int         `json:"absent_count"`
	Distribution map[int]int `json:"distribution"`
	MeanTone     float64     `json:"mean_tone"`
}
