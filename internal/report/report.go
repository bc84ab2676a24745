package report

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/ppiankov/persona/internal/cache"
	"github.com/ppiankov/persona/internal/corpus"
	"github.com/ppiankov/persona/internal/model"
)

// Section titles
const (
	SummaryTitle = "Executive Summary"
	PersonaTitle = "Comprehensive Persona"
	SourcesTitle = "Source References"
)

// Input is everything a report is built from
type Input struct {
	Username    string
	Summary     string // Raw generator output with markers
	Persona     string
	Corpus      *corpus.Corpus
	Partial     bool
	PartialNote string
	Stats       model.Stats
	Provider    string
	Model       string
}

// Build renders both sections and collects every cited source
func Build(in Input) *model.Report {
	summary := Render(in.Summary, in.Corpus)
	persona := Render(in.Persona, in.Corpus)

	stats := in.Stats
	if in.Corpus != nil {
		stats.Included = len(in.Corpus.Entries)
		stats.Truncated = in.Corpus.Dropped
		stats.CorpusChars = in.Corpus.Chars
	}

	return &model.Report{
		Username:    in.Username,
		Summary:     section(SummaryTitle, summary),
		Persona:     section(PersonaTitle, persona),
		Sources:     citedEntries(in.Corpus, summary, persona),
		Partial:     in.Partial,
		PartialNote: in.PartialNote,
		Stats:       stats,
		Provider:    in.Provider,
		Model:       in.Model,
	}
}

func section(title string, r *Rendered) model.Section {
	return model.Section{
		Title:     title,
		Text:      r.Text,
		Citations: r.Citations,
		Dropped:   r.Dropped,
	}
}

func citedEntries(c *corpus.Corpus, rendered ...*Rendered) []model.CorpusEntry {
	cited := map[int]struct{}{}
	for _, r := range rendered {
		for _, citation := range r.Citations {
			for _, index := range citation.Indices {
				cited[index] = struct{}{}
			}
		}
	}

	indices := make([]int, 0, len(cited))
	for index := range cited {
		indices = append(indices, index)
	}
	sort.Ints(indices)

	entries := make([]model.CorpusEntry, 0, len(indices))
	for _, index := range indices {
		if entry, ok := c.Lookup(index); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

// Format renders the report as plain text
func Format(r *model.Report) string {
	var b strings.Builder

	title := "Reddit Persona Report for u/" + r.Username
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")

	if r.Partial {
		b.WriteString("NOTE: This report is based on incomplete activity")
		if r.PartialNote != "" {
			b.WriteString(" (" + r.PartialNote + ")")
		}
		b.WriteString(".\n\n")
	}

	for _, s := range []model.Section{r.Summary, r.Persona} {
		writeHeading(&b, s.Title)
		b.WriteString(strings.TrimSpace(s.Text) + "\n\n")
	}

	writeHeading(&b, SourcesTitle)
	if len(r.Sources) == 0 {
		b.WriteString("No sources were cited.\n")
	}
	for _, entry := range r.Sources {
		b.WriteString(SourceLine(entry) + "\n")
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "Items analyzed: %d (%d in corpus", r.Stats.Items, r.Stats.Included)
	if r.Stats.Truncated > 0 {
		fmt.Fprintf(&b, ", %d left out by the size budget", r.Stats.Truncated)
	}
	b.WriteString(")\n")
	if r.Provider != "" {
		fmt.Fprintf(&b, "Generated by: %s/%s\n", r.Provider, r.Model)
	}

	return b.String()
}

func writeHeading(b *strings.Builder, title string) {
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("-", len(title)) + "\n")
}

// FileName returns the report file name for user
func FileName(user string) string {
	return cache.NormalizeUser(user) + "_reddit_persona_report.txt"
}

// WriteFile writes the formatted report into dir and returns its path
func WriteFile(dir string, r *model.Report) (string, error) {
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, FileName(r.Username))
	if err := cache.WriteFileAtomic(path, []byte(Format(r)), 0644); err != nil {
		return "", errors.Wrap(err, "write report")
	}
	return path, nil
}
