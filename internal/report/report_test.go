package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/persona/internal/model"
)

func TestBuild_CollectsCitedSources(t *testing.T) {
	c := testCorpus(5)

	r := Build(Input{
		Username: "spez",
		Summary:  "**CRITICAL FINDINGS**\n- Deep Go knowledge [SRC3]\n- Made up [SRC12]",
		Persona:  "- Patient [SRC1, SRC3]",
		Corpus:   c,
		Stats:    model.Stats{Items: 5, Fetched: 5},
		Provider: "groq",
		Model:    "llama-3.1-8b-instant",
	})

	require.Len(t, r.Sources, 2)
	assert.Equal(t, 1, r.Sources[0].Index)
	assert.Equal(t, 3, r.Sources[1].Index)
	assert.Equal(t, 2, r.CitedCount())
	assert.Equal(t, []int{12}, r.Summary.Dropped)
	assert.Equal(t, SummaryTitle, r.Summary.Title)
	assert.Equal(t, 5, r.Stats.Included)
	assert.Equal(t, c.Chars, r.Stats.CorpusChars)
}

func TestFormat_Layout(t *testing.T) {
	r := Build(Input{
		Username:    "spez",
		Summary:     "- Finding [SRC0]",
		Persona:     "- Trait [SRC1]",
		Corpus:      testCorpus(3),
		Partial:     true,
		PartialNote: "Reddit rate-limited the request before all activity was fetched",
		Stats:       model.Stats{Items: 3},
	})

	text := Format(r)
	lines := strings.Split(text, "\n")
	assert.Equal(t, "Reddit Persona Report for u/spez", lines[0])
	assert.Contains(t, text, "NOTE: This report is based on incomplete activity (Reddit rate-limited")

	summaryAt := strings.Index(text, SummaryTitle)
	personaAt := strings.Index(text, PersonaTitle)
	sourcesAt := strings.Index(text, SourcesTitle)
	assert.True(t, summaryAt > 0 && summaryAt < personaAt && personaAt < sourcesAt)

	refs := text[sourcesAt:]
	assert.Less(t, strings.Index(refs, "[SRC0]"), strings.Index(refs, "[SRC1]"))
	assert.NotContains(t, refs, "[SRC2]")
	assert.Contains(t, text, "Items analyzed: 3 (3 in corpus)")
}

func TestFormat_CompleteReportHasNoNote(t *testing.T) {
	r := Build(Input{Username: "spez", Summary: "s", Persona: "p", Corpus: testCorpus(1)})
	text := Format(r)
	assert.NotContains(t, text, "incomplete activity")
	assert.Contains(t, text, "No sources were cited.")
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	r := Build(Input{Username: "Spez", Summary: "s [SRC0]", Persona: "p", Corpus: testCorpus(1)})

	path, err := WriteFile(dir, r)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "spez_reddit_persona_report.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Format(r), string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}
