package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticCatalog_ListReturnsCopy(t *testing.T) {
	catalog := NewStaticCatalog(DefaultFurniture())

	first, err := catalog.List(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 8)
	assert.Equal(t, "Modern Minimalist Sofa", first[0].Name)

	first[0].Name = "mutated"

	second, err := catalog.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Modern Minimalist Sofa", second[0].Name)
}

func TestStaticCatalog_Empty(t *testing.T) {
	records, err := NewStaticCatalog(nil).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestStaticCatalog_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStaticCatalog(DefaultFurniture()).List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFurnitureRecord_StockLevel(t *testing.T) {
	levels := map[string]string{}
	for _, r := range DefaultFurniture() {
		levels[r.ID] = string(r.StockLevel())
	}

	assert.Equal(t, "medium", levels["1"]) // 15
	assert.Equal(t, "high", levels["2"])   // 32
	assert.Equal(t, "high", levels["4"])   // 22
	assert.Equal(t, "low", levels["5"])    // 8
	assert.Equal(t, "low", levels["7"])    // 5
}
