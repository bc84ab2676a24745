package report

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/persona/internal/corpus"
	"github.com/ppiankov/persona/internal/model"
)

func testCorpus(n int) *corpus.Corpus {
	items := make([]model.Item, n)
	for i := range items {
		items[i] = model.Item{
			ID:         fmt.Sprintf("c%d", i),
			Kind:       model.KindComment,
			Body:       fmt.Sprintf("I write Go every day, item %d", i),
			Subreddit:  "golang",
			CreatedUTC: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Add(-time.Duration(i) * time.Hour),
			Permalink:  fmt.Sprintf("https://www.reddit.com/r/golang/comments/x/c%d/", i),
		}
	}
	return corpus.New(0, 0).Build(items)
}

func TestRender_OutOfRangeMarkerDropped(t *testing.T) {
	c := testCorpus(5)

	r := Render("- Enjoys systems programming [SRC7]", c)

	assert.Equal(t, "- Enjoys systems programming", r.Text)
	require.Len(t, r.Citations, 1)
	assert.Equal(t, "- Enjoys systems programming", r.Citations[0].Trait)
	assert.Empty(t, r.Citations[0].Indices)
	assert.Equal(t, []int{7}, r.Citations[0].Dropped)
	assert.Equal(t, []int{7}, r.Dropped)
}

func TestRender_ResolvesMarkers(t *testing.T) {
	c := testCorpus(5)
	text := "## PERSONALITY TRAITS\n- Analytical [SRC1]\n- Helpful [src03, SRC0, SRC3]\nPlain closing line."

	r := Render(text, c)

	want := strings.Join([]string{
		"## PERSONALITY TRAITS",
		"- Analytical",
		`    [SRC1] https://www.reddit.com/r/golang/comments/x/c1/ — "I write Go every day, item 1"`,
		"- Helpful",
		`    [SRC3] https://www.reddit.com/r/golang/comments/x/c3/ — "I write Go every day, item 3"`,
		`    [SRC0] https://www.reddit.com/r/golang/comments/x/c0/ — "I write Go every day, item 0"`,
		"Plain closing line.",
	}, "\n")
	if diff := cmp.Diff(want, r.Text); diff != "" {
		t.Errorf("rendered text mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, r.Citations, 2)
	assert.Equal(t, []int{1}, r.Citations[0].Indices)
	assert.Equal(t, []int{3, 0}, r.Citations[1].Indices, "repeats within one trait collapse")
	assert.Empty(t, r.Dropped)
}

func TestRender_DuplicatesAcrossTraitsKept(t *testing.T) {
	c := testCorpus(2)
	r := Render("- A [SRC1]\n- B [SRC1]", c)

	require.Len(t, r.Citations, 2)
	assert.Equal(t, []int{1}, r.Citations[0].Indices)
	assert.Equal(t, []int{1}, r.Citations[1].Indices)
	assert.Equal(t, 2, strings.Count(r.Text, "[SRC1]"))
}

func TestRender_MarkerGrammar(t *testing.T) {
	c := testCorpus(3)

	tests := []struct {
		line string
		want []int
	}{
		{"x [SRC2]", []int{2}},
		{"x [ SRC2 ]", []int{2}},
		{"x [src002]", []int{2}},
		{"x [SRC0,SRC1]", []int{0, 1}},
		{"x [SRC0 , SRC2] and [SRC1]", []int{0, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			r := Render(tt.line, c)
			require.Len(t, r.Citations, 1)
			assert.Equal(t, tt.want, r.Citations[0].Indices)
			assert.Equal(t, "x", strings.Split(r.Text, "\n")[0][:1])
		})
	}

	for _, line := range []string{"x [SRC]", "x [source]", "x SRC1", "x (SRC1)"} {
		r := Render(line, c)
		assert.Empty(t, r.Citations, line)
		assert.Equal(t, line, r.Text)
	}
}

func TestRender_Deterministic(t *testing.T) {
	c := testCorpus(5)
	text := "Summary\n- one [SRC4, SRC9]\n- two [SRC2]\n\n- three [SRC8] [SRC0]"

	first := Render(text, c)
	second := Render(text, c)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("render is not deterministic:\n%s", diff)
	}
	assert.Equal(t, []int{8, 9}, first.Dropped)
}

func TestRender_EmptyCorpus(t *testing.T) {
	r := Render("- claim [SRC0]", corpus.New(0, 0).Build(nil))
	assert.Equal(t, "- claim", r.Text)
	assert.Equal(t, []int{0}, r.Dropped)

	r = Render("no markers here", nil)
	assert.Equal(t, "no markers here", r.Text)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("short"))

	long := strings.Repeat("word ", 40)
	got := Excerpt(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len([]rune(got)), excerptRunes+3)
}
