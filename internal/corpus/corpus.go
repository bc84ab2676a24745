package corpus

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/persona/internal/model"
)

// Header introduces the activity listing to the generator
const Header = "Below is a Reddit user's recent activity (posts and comments), newest first. " +
	"Each line starts with a citation ID such as [SRC0] that identifies the item.\n\n"

const (
	noSelfText  = "[No self-text]"
	ellipsis    = " [...] "
	keepPercent = 45
)

// Corpus is the indexed, budget-bounded text handed to the generator.
// Entries[i].Index == i for every entry.
type Corpus struct {
	Entries []model.CorpusEntry
	Text    string
	Dropped int // Items left out by the character budget
	Chars   int // Length of Text in runes
}

// Lookup returns the entry with citation index i
func (c *Corpus) Lookup(i int) (model.CorpusEntry, bool) {
	if c == nil || i < 0 || i >= len(c.Entries) {
		return model.CorpusEntry{}, false
	}
	return c.Entries[i], true
}

// Empty reports whether no item made it into the corpus
func (c *Corpus) Empty() bool {
	return c == nil || len(c.Entries) == 0
}

// Assembler renders item lists into corpora
type Assembler struct {
	maxItemChars int
	maxChars     int
}

// New creates an assembler. Non-positive limits disable the bound.
func New(maxItemChars, maxChars int) *Assembler {
	return &Assembler{maxItemChars: maxItemChars, maxChars: maxChars}
}

// Build indexes items in the given order (most recent first). Items are
// added while the corpus stays within the character budget; the first item
// that does not fit and every older one are dropped.
func (a *Assembler) Build(items []model.Item) *Corpus {
	c := &Corpus{Entries: make([]model.CorpusEntry, 0, len(items))}
	if len(items) == 0 {
		return c
	}

	var buf strings.Builder
	buf.WriteString(Header)
	total := utf8.RuneCountInString(Header)

	for i, item := range items {
		text := Truncate(ItemText(item), a.maxItemChars)
		index := len(c.Entries)
		line := Line(index, item, text)
		n := utf8.RuneCountInString(line)

		if a.maxChars > 0 && total+n > a.maxChars {
			c.Dropped = len(items) - i
			break
		}

		buf.WriteString(line)
		total += n
		c.Entries = append(c.Entries, model.CorpusEntry{Index: index, Item: item, Text: text})
	}

	if len(c.Entries) == 0 {
		return c
	}
	c.Text = buf.String()
	c.Chars = total
	return c
}

// ItemText is the single-line text shown for an item
func ItemText(item model.Item) string {
	body := strings.Join(strings.Fields(item.Body), " ")
	if item.Kind == model.KindPost {
		if body == "" {
			body = noSelfText
		}
		title := strings.Join(strings.Fields(item.Title), " ")
		return fmt.Sprintf("Title: %s. Content: %s", title, body)
	}
	return body
}

// Line renders one corpus line, newline included
func Line(index int, item model.Item, text string) string {
	kind := "COMMENT"
	if item.Kind == model.KindPost {
		kind = "POST"
	}

	meta := item.CreatedUTC.UTC().Format("2006-01-02")
	if item.Subreddit != "" {
		meta += ", r/" + item.Subreddit
	}
	return fmt.Sprintf("[SRC%d] %s (%s): %s\n", index, kind, meta, text)
}

// Truncate bounds s to max runes, keeping the head and tail of long text
// around an ellipsis marker. max <= 0 leaves s unchanged.
func Truncate(s string, max int) string {
	runes := []rune(s)
	n := len(runes)
	if max <= 0 || n <= max {
		return s
	}

	sep := utf8.RuneCountInString(ellipsis)
	start := n * keepPercent / 100
	end := n * keepPercent / 100
	if over := start + end + sep - max; over > 0 {
		start -= (over + 1) / 2
		end -= over / 2
	}
	if start <= 0 || end <= 0 {
		return string(runes[:max])
	}

	return string(runes[:start]) + ellipsis + string(runes[n-end:])
}
