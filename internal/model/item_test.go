package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItems() []Item {
	return []Item{
		{ID: 1, Title: "a", Completed: true},
		{ID: 2, Title: "b"},
		{ID: 3, Title: "c", Completed: true},
	}
}

func TestApplyFilter(t *testing.T) {
	items := sampleItems()

	assert.Len(t, Apply(items, FilterAll), 3)

	active := Apply(items, FilterActive)
	require.Len(t, active, 1)
	assert.Equal(t, 2, active[0].ID)

	completed := Apply(items, FilterCompleted)
	require.Len(t, completed, 2)
	assert.Equal(t, 1, completed[0].ID)
	assert.Equal(t, 3, completed[1].ID)
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in   string
		want Filter
	}{
		{"", FilterAll},
		{"All", FilterAll},
		{"ACTIVE", FilterActive},
		{" completed ", FilterCompleted},
	}
	for _, tt := range tests {
		got, err := ParseFilter(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseFilter("someday")
	assert.Error(t, err)
}

func TestFilterLabelAndNext(t *testing.T) {
	assert.Equal(t, "All", FilterAll.Label())
	assert.Equal(t, "Completed", FilterCompleted.Label())
	assert.Equal(t, FilterActive, FilterAll.Next())
	assert.Equal(t, FilterAll, FilterCompleted.Next())
}

func TestStats(t *testing.T) {
	done, pending := Stats(sampleItems())
	assert.Equal(t, 2, done)
	assert.Equal(t, 1, pending)
}

func TestTemporary(t *testing.T) {
	assert.True(t, Item{ID: -1}.Temporary())
	assert.False(t, Item{ID: 7}.Temporary())
}
