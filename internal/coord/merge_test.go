package coord

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/persona/internal/model"
)

func TestMerge_UnionAndOrder(t *testing.T) {
	at := func(m int) time.Time { return testNow.Add(time.Duration(m) * time.Minute) }

	cached := []model.Item{
		{ID: "b", CreatedUTC: at(-2), Body: "old"},
		{ID: "c", CreatedUTC: at(-3)},
	}
	fresh := []model.Item{
		{ID: "a", CreatedUTC: at(-1)},
		{ID: "b", CreatedUTC: at(-2), Body: "new"},
		{ID: "d", CreatedUTC: at(-3)},
	}

	merged := Merge(fresh, cached)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(merged), "ties on time order by id")
	assert.Equal(t, "new", merged[1].Body)

	// Every input id appears exactly once
	seen := map[string]int{}
	for _, item := range merged {
		seen[item.ID]++
	}
	for _, item := range append(cached, fresh...) {
		assert.Equal(t, 1, seen[item.ID], item.ID)
	}
}

func TestMerge_PostAndCommentWithSameID(t *testing.T) {
	post := model.Item{ID: "abc12", Kind: model.KindPost, CreatedUTC: testNow}
	comment := model.Item{ID: "abc12", Kind: model.KindComment, CreatedUTC: testNow}

	merged := Merge([]model.Item{post}, []model.Item{comment})
	require.Len(t, merged, 2)
	assert.Equal(t, "t3_abc12", merged[0].Fullname(), "equal times order posts first")
	assert.Equal(t, "t1_abc12", merged[1].Fullname())

	assert.Len(t, Merge([]model.Item{post, comment}, []model.Item{post}), 2)
}

func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, Merge(nil, nil))
}

func TestHead(t *testing.T) {
	items := []model.Item{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	assert.Equal(t, []string{"a", "b"}, ids(head(items, 2)))
	assert.Equal(t, []string{"a", "b", "c"}, ids(head(items, 5)))

	out := head(items, 3)
	out[0].ID = "z"
	assert.Equal(t, "a", items[0].ID, "head copies")
}
