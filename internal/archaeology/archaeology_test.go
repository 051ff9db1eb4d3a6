package archaeology

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultsearch/vaultsearch/internal/encoder"
	"github.com/vaultsearch/vaultsearch/internal/store"
)

func buildTracer(t *testing.T, rows []store.Row) *Tracer {
	t.Helper()
	enc := encoder.NewStaticEncoder()
	require.NoError(t, enc.Load(context.Background()))

	vs := store.New(t.TempDir())
	require.NoError(t, vs.Save(rows, store.IndexMetadata{}))

	return NewTracer(vs, enc)
}

func embed(t *testing.T, enc encoder.Encoder, text string) []float32 {
	t.Helper()
	vecs, err := enc.Embed(context.Background(), []string{text})
	require.NoError(t, err)
	return vecs[0]
}

func TestTrace_BucketsEntriesByMonth(t *testing.T) {
	enc := encoder.NewStaticEncoder()
	require.NoError(t, enc.Load(context.Background()))

	rows := []store.Row{
		{RelativePath: "jan.md", Content: "rust programming async traits", CreatedDate: date(2024, 1, 15)},
		{RelativePath: "feb.md", Content: "rust programming error handling", CreatedDate: date(2024, 2, 10)},
		{RelativePath: "bread.md", Content: "sourdough starter recipe", CreatedDate: date(2024, 2, 20)},
	}
	for i := range rows {
		rows[i].Vector = embed(t, enc, rows[i].Content)
	}

	vs := store.New(t.TempDir())
	require.NoError(t, vs.Save(rows, store.IndexMetadata{}))
	tracer := NewTracer(vs, enc)

	timeline, err := tracer.Trace(context.Background(), "rust programming", 0.1, false)
	require.NoError(t, err)

	assert.Equal(t, 1, timeline.ActivityByMonth["2024-01"])
	assert.Equal(t, 1, timeline.ActivityByMonth["2024-02"])
	assert.NotContains(t, timeline.ActivityByMonth, "bread")
}

func TestTrace_ExcludeDailyFiltersTaggedNotes(t *testing.T) {
	enc := encoder.NewStaticEncoder()
	require.NoError(t, enc.Load(context.Background()))

	rows := []store.Row{
		{RelativePath: "2024-03-01.md", Content: "rust programming daily log", Tags: []string{"daily"}, CreatedDate: date(2024, 3, 1)},
		{RelativePath: "notes/rust.md", Content: "rust programming deep dive", CreatedDate: date(2024, 3, 5)},
	}
	for i := range rows {
		rows[i].Vector = embed(t, enc, rows[i].Content)
	}

	vs := store.New(t.TempDir())
	require.NoError(t, vs.Save(rows, store.IndexMetadata{}))
	tracer := NewTracer(vs, enc)

	timeline, err := tracer.Trace(context.Background(), "rust programming", 0.1, true)
	require.NoError(t, err)

	for _, e := range timeline.Entries {
		assert.NotEqual(t, "2024-03-01.md", e.RelativePath)
	}
}

func TestTrace_ThresholdDropsWeakMatches(t *testing.T) {
	tracer := buildTracer(t, []store.Row{
		{RelativePath: "a.md", Content: "gardening tomatoes", Vector: embed(t, encoder.NewStaticEncoder(), "gardening tomatoes"), CreatedDate: date(2024, 4, 1)},
	})

	timeline, err := tracer.Trace(context.Background(), "rust programming", 0.99, false)
	require.NoError(t, err)
	assert.Empty(t, timeline.Entries)
}

func TestTrace_IdentifiesDormantPeriodsWithinRange(t *testing.T) {
	enc := encoder.NewStaticEncoder()
	require.NoError(t, enc.Load(context.Background()))

	rows := []store.Row{
		{RelativePath: "jan.md", Content: "rust programming traits", CreatedDate: date(2024, 1, 1)},
		{RelativePath: "apr.md", Content: "rust programming lifetimes", CreatedDate: date(2024, 4, 1)},
	}
	for i := range rows {
		rows[i].Vector = embed(t, enc, rows[i].Content)
	}

	vs := store.New(t.TempDir())
	require.NoError(t, vs.Save(rows, store.IndexMetadata{}))
	tracer := NewTracer(vs, enc)

	timeline, err := tracer.Trace(context.Background(), "rust programming", 0.1, false)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"2024-02", "2024-03"}, timeline.DormantPeriods)
}

func TestTrace_PeakPeriodsSortedDescendingByIntensity(t *testing.T) {
	enc := encoder.NewStaticEncoder()
	require.NoError(t, enc.Load(context.Background()))

	rows := []store.Row{
		{RelativePath: "strong.md", Content: "rust programming rust programming traits lifetimes borrow", CreatedDate: date(2024, 1, 1)},
		{RelativePath: "weak.md", Content: "rust mentioned once in passing note", CreatedDate: date(2024, 2, 1)},
	}
	for i := range rows {
		rows[i].Vector = embed(t, enc, rows[i].Content)
	}

	vs := store.New(t.TempDir())
	require.NoError(t, vs.Save(rows, store.IndexMetadata{}))
	tracer := NewTracer(vs, enc)

	timeline, err := tracer.Trace(context.Background(), "rust programming traits lifetimes borrow", 0.0, false)
	require.NoError(t, err)

	require.NotEmpty(t, timeline.PeakPeriods)
	for i := 1; i < len(timeline.PeakPeriods); i++ {
		assert.GreaterOrEqual(t, timeline.PeakPeriods[i-1].Intensity, timeline.PeakPeriods[i].Intensity)
	}
}

func TestTrace_EmptyIndexReturnsError(t *testing.T) {
	tracer := buildTracer(t, nil)

	_, err := tracer.Trace(context.Background(), "anything", 0.1, false)
	assert.Error(t, err)
}

func TestTrace_DailyNoteDateExtractedFromPath(t *testing.T) {
	enc := encoder.NewStaticEncoder()
	require.NoError(t, enc.Load(context.Background()))

	row := store.Row{
		RelativePath: "Daily/2024/2024-05-17.md",
		Content:      "rust programming",
		CreatedDate:  date(2099, 1, 1), // should be ignored in favor of path date
	}
	row.Vector = embed(t, enc, row.Content)

	vs := store.New(t.TempDir())
	require.NoError(t, vs.Save([]store.Row{row}, store.IndexMetadata{}))
	tracer := NewTracer(vs, enc)

	timeline, err := tracer.Trace(context.Background(), "rust programming", 0.1, false)
	require.NoError(t, err)
	require.Len(t, timeline.Entries, 1)
	assert.Equal(t, "2024-05-17", timeline.Entries[0].Date.Format("2006-01-02"))
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
