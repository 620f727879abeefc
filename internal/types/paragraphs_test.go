package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParagraphs() []Paragraph {
	date := time.Date(2021, 4, 12, 0, 0, 0, 0, time.UTC)
	return []Paragraph{
		{ID: "p1", DocumentID: "doc-1", Text: "El CF considera que...", Date: &date},
		{ID: "p2", DocumentID: "doc-1", Text: "La regla fiscal..."},
		{ID: "p3", DocumentID: "doc-2", Text: "Se observa un deterioro..."},
	}
}

func TestNewWorkingSet_PreservesOrderAndDedupes(t *testing.T) {
	paragraphs := testParagraphs()
	paragraphs = append(paragraphs, Paragraph{ID: "p1", DocumentID: "doc-9", Text: "duplicate"})

	ws := NewWorkingSet(paragraphs)
	require.Equal(t, 3, ws.Len())

	entry, ok := ws.Lookup("p1")
	require.True(t, ok)
	assert.Equal(t, "doc-1", entry.Paragraph.DocumentID, "first occurrence wins")
	assert.Equal(t, "p1", ws.Entries[0].Paragraph.ID)
	assert.Equal(t, "p3", ws.Entries[2].Paragraph.ID)
}

func TestWorkingSet_MergeOverwrites(t *testing.T) {
	ws := NewWorkingSet(testParagraphs())

	ws.Merge(Score{ParagraphID: "p1", Absent: true, Attempts: 1})
	entry, _ := ws.Lookup("p1")
	require.NotNil(t, entry.Score)
	assert.True(t, entry.Score.Absent)

	ws.Merge(Score{ParagraphID: "p1", Value: 4, Attempts: 2})
	entry, _ = ws.Lookup("p1")
	assert.Equal(t, 4, entry.Score.Value)
	assert.False(t, entry.Score.Absent)
	assert.Equal(t, 2, entry.Score.Attempts)
}

func TestWorkingSet_MergeIgnoresUnknownIDs(t *testing.T) {
	ws := NewWorkingSet(testParagraphs())
	ws.Merge(Score{ParagraphID: "ghost", Value: 3})
	_, ok := ws.Lookup("ghost")
	assert.False(t, ok)
	assert.Equal(t, 3, ws.Len())
}

func TestWorkingSet_Pending(t *testing.T) {
	ws := NewWorkingSet(testParagraphs())
	assert.Len(t, ws.Pending(), 3)

	ws.Merge(Score{ParagraphID: "p1", Value: 2, Attempts: 1})
	ws.Merge(Score{ParagraphID: "p2", Absent: true, Attempts: 1})

	pending := ws.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, "p2", pending[0].ID, "absent scores are re-dispatched on resume")
	assert.Equal(t, "p3", pending[1].ID)
}

func TestWorkingSet_MergeOrderIndependent(t *testing.T) {
	scores := []Score{
		{ParagraphID: "p3", Value: 5, Attempts: 1},
		{ParagraphID: "p1", Value: 1, Attempts: 1},
		{ParagraphID: "p2", Value: 3, Attempts: 2},
	}

	forward := NewWorkingSet(testParagraphs())
	for _, s := range scores {
		forward.Merge(s)
	}
	backward := NewWorkingSet(testParagraphs())
	for i := len(scores) - 1; i >= 0; i-- {
		backward.Merge(scores[i])
	}

	assert.Equal(t, forward.Entries, backward.Entries)
}

func TestWorkingSet_MergeScoresFrom(t *testing.T) {
	previous := NewWorkingSet(testParagraphs())
	previous.Merge(Score{ParagraphID: "p1", Value: 4, Attempts: 1})
	previous.Merge(Score{ParagraphID: "p2", Absent: true, Attempts: 5})

	ws := NewWorkingSet(testParagraphs())
	ws.MergeScoresFrom(previous)

	scored, absent, unscored := ws.Counts()
	assert.Equal(t, 1, scored)
	assert.Equal(t, 1, absent)
	assert.Equal(t, 1, unscored)

	ws.MergeScoresFrom(nil) // no-op
	assert.Equal(t, 3, ws.Len())
}

func TestWorkingSet_JSONRoundTrip(t *testing.T) {
	ws := NewWorkingSet(testParagraphs())
	ws.Merge(Score{ParagraphID: "p2", Value: 5, Attempts: 3})

	data, err := json.Marshal(ws)
	require.NoError(t, err)

	var restored WorkingSet
	require.NoError(t, json.Unmarshal(data, &restored))
	restored.Reindex()

	assert.Equal(t, ws.Entries, restored.Entries)
	entry, ok := restored.Lookup("p2")
	require.True(t, ok)
	assert.Equal(t, 5, entry.Score.Value)
}

func TestScore_Scored(t *testing.T) {
	tests := []struct {
		name  string
		score Score
		want  bool
	}{
		{"valid value", Score{Value: 3}, true},
		{"absent", Score{Absent: true}, false},
		{"zero value", Score{}, false},
		{"out of range", Score{Value: 6}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.score.Scored())
		})
	}
}
