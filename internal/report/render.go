package report

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/persona/internal/corpus"
	"github.com/ppiankov/persona/internal/model"
)

// MarkerPattern matches citation markers: [SRC3], [src03], [SRC1, SRC4].
var MarkerPattern = regexp.MustCompile(`(?i)\[\s*SRC\d+(?:\s*,\s*SRC\d+)*\s*\]`)

var indexPattern = regexp.MustCompile(`(?i)SRC(\d+)`)

const excerptRunes = 80

// Rendered is generator output with markers replaced by citation lines
type Rendered struct {
	Text      string
	Citations []model.Citation
	Dropped   []int // Marker indices outside the corpus, ascending, unique
}

// Render resolves citation markers against c. Every line carrying markers
// becomes a trait: its markers are removed and one indented line per
// resolved source follows it. Unresolvable indices are dropped silently.
// Lines without markers are copied unchanged.
func Render(text string, c *corpus.Corpus) *Rendered {
	r := &Rendered{}
	dropped := map[int]struct{}{}

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		markers := MarkerPattern.FindAllString(line, -1)
		if len(markers) == 0 {
			out = append(out, line)
			continue
		}

		citation := model.Citation{
			Trait: strings.TrimRight(MarkerPattern.ReplaceAllString(line, ""), " \t\r"),
		}
		seen := map[int]struct{}{}
		for _, index := range markerIndices(markers) {
			if _, dup := seen[index]; dup {
				continue
			}
			seen[index] = struct{}{}

			if _, ok := c.Lookup(index); !ok {
				citation.Dropped = append(citation.Dropped, index)
				dropped[index] = struct{}{}
				continue
			}
			citation.Indices = append(citation.Indices, index)
		}

		out = append(out, citation.Trait)
		for _, index := range citation.Indices {
			entry, _ := c.Lookup(index)
			out = append(out, "    "+SourceLine(entry))
		}
		r.Citations = append(r.Citations, citation)
	}

	r.Text = strings.Join(out, "\n")
	for index := range dropped {
		r.Dropped = append(r.Dropped, index)
	}
	sort.Ints(r.Dropped)
	return r
}

// markerIndices returns the indices named by markers, in order of appearance
func markerIndices(markers []string) []int {
	var indices []int
	for _, m := range markers {
		for _, sub := range indexPattern.FindAllStringSubmatch(m, -1) {
			n, err := strconv.Atoi(sub[1])
			if err != nil {
				continue
			}
			indices = append(indices, n)
		}
	}
	return indices
}

// SourceLine formats one cited entry: [SRC<n>] <permalink> — "<excerpt>"
func SourceLine(entry model.CorpusEntry) string {
	return fmt.Sprintf("[SRC%d] %s — %q", entry.Index, entry.Item.Permalink, Excerpt(entry.Text))
}

// Excerpt returns the first runes of text, marking a cut with "..."
func Excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptRunes {
		return text
	}
	return strings.TrimRight(string(runes[:excerptRunes]), " ") + "..."
}
