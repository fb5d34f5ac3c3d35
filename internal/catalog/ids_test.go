package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeIDs(t *testing.T) {
	assert.Nil(t, DedupeIDs(nil))
	assert.Equal(t, []int64{3, 1, 2}, DedupeIDs([]int64{3, 1, 3, 2, 1}))
}

func TestDiffIDs(t *testing.T) {
	added, removed := DiffIDs([]int64{1, 2, 3}, []int64{3, 4, 1, 5})
	assert.Equal(t, []int64{4, 5}, added)
	assert.Equal(t, []int64{2}, removed)

	added, removed = DiffIDs([]int64{1, 2}, nil)
	assert.Empty(t, added)
	assert.Equal(t, []int64{1, 2}, removed)

	added, removed = DiffIDs(nil, []int64{7})
	assert.Equal(t, []int64{7}, added)
	assert.Empty(t, removed)
}
