// Package types provides type definitions for structured data used throughout the fiscal-tone system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// Score values form the fixed classification vocabulary: 1 (no fiscal
// concern) through 5 (fiscal alarm).
const (
	MinScore = 1
	MaxScore = 5
)

// Paragraph represents one input record: a cleaned paragraph extracted from
// a fiscal council document upstream of this pipeline. Identity fields are
// immutable for the life of a run.
type Paragraph struct {
	ID         string     `json:"id"`
	DocumentID string     `json:"document_id"`
	Text       string     `json:"text"`
	Date       *time.Time `json:"date,omitempty"`
}

// Score represents the classification outcome for a single paragraph.
// Either Value holds a number in [MinScore, MaxScore], or Absent is true and
// Value is zero (the service replied with an out-of-vocabulary token).
type Score struct {
	ParagraphID string `json:"paragraph_id"`
	Value       int    `json:"value,omitempty"`
	Absent      bool   `json:"absent,omitempty"`
	Attempts    int    `json:"attempts"`
}

// Scored reports whether the paragraph received a usable classification.
func (s Score) Scored() bool {
	return !s.Absent && s.Value >= MinScore && s.Value <= MaxScore
}

// Entry pairs an input paragraph with its score, if one has been produced.
type Entry struct {
	Paragraph Paragraph `json:"paragraph"`
	Score     *Score    `json:"score,omitempty"`
}

// WorkingSet is the full state a classification run operates over: every
// input paragraph exactly once, in input order, each with an optional score.
// Scores are merged keyed by paragraph id, so the final content does not
// depend on the order classifications complete in.
type WorkingSet struct {
	Entries []Entry `json:"entries"`

	index map[string]int
}

// NewWorkingSet builds a WorkingSet over the given paragraphs. Duplicate ids
// keep the first occurrence.
func NewWorkingSet(paragraphs []Paragraph) *WorkingSet {
	ws := &WorkingSet{
		Entries: make([]Entry, 0, len(paragraphs)),
		index:   make(map[string]int, len(paragraphs)),
	}
	for _, p := range paragraphs {
		if _, exists := ws.index[p.ID]; exists {
			continue
		}
		ws.index[p.ID] = len(ws.Entries)
		ws.Entries = append(ws.Entries, Entry{Paragraph: p})
	}
	return ws
}

// Reindex rebuilds the id lookup after Entries have been populated directly,
// e.g. by JSON unmarshaling of a snapshot.
func (ws *WorkingSet) Reindex() {
	ws.index = make(map[string]int, len(ws.Entries))
	for i, e := range ws.Entries {
		ws.index[e.Paragraph.ID] = i
	}
}

// Len returns the number of paragraphs in the set.
func (ws *WorkingSet) Len() int {
	return len(ws.Entries)
}

// Lookup returns the entry for a paragraph id.
func (ws *WorkingSet) Lookup(id string) (Entry, bool) {
	i, ok := ws.index[id]
	if !ok {
		return Entry{}, false
	}
	return ws.Entries[i], true
}

// Merge records a score for its paragraph, overwriting any previous score.
// Scores for unknown paragraph ids are ignored.
func (ws *WorkingSet) Merge(score Score) {
	i, ok := ws.index[score.ParagraphID]
	if !ok {
		return
	}
	s := score
	ws.Entries[i].Score = &s
}

// MergeScoresFrom copies every score present in other into this set, keyed
// by paragraph id. Used on resume: the input file is authoritative for which
// paragraphs exist; the snapshot contributes only work already paid for.
func (ws *WorkingSet) MergeScoresFrom(other *WorkingSet) {
	if other == nil {
		return
	}
	for _, e := range other.Entries {
		if e.Score != nil {
			ws.Merge(*e.Score)
		}
	}
}

// Pending returns the paragraphs still needing classification: those with no
// score, or whose score is absent. A paragraph with a usable score is never
// re-dispatched.
func (ws *WorkingSet) Pending() []Paragraph {
	var pending []Paragraph
	for _, e := range ws.Entries {
		if e.Score == nil || e.Score.Absent {
			pending = append(pending, e.Paragraph)
		}
	}
	return pending
}

// Counts returns how many paragraphs are scored, absent, and unscored.
func (ws *WorkingSet) Counts() (scored, absent, unscored int) {
	for _, e := range ws.Entries {
		switch {
		case e.Score == nil:
			unscored++
		case e.Score.Absent:
			absent++
		default:
			scored++
		}
	}
	return scored, absent, unscored
}
