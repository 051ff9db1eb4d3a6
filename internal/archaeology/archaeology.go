// Package archaeology mines the index for an interest's evolution through
// time: how strongly a topic shows up in the vault, month by month, where
// it peaked, and where it went quiet.
package archaeology

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vaultsearch/vaultsearch/internal/encoder"
	"github.com/vaultsearch/vaultsearch/internal/store"
	"github.com/vaultsearch/vaultsearch/internal/vaulterr"
)

// topK is the retrieval breadth for a trace: wide enough to surface a
// topic's full history, narrow enough to keep monthly buckets meaningful.
const topK = 50

// peakThreshold is the minimum monthly intensity to count as a peak period.
const peakThreshold = 0.5

// snippetMaxLength bounds each timeline entry's content preview.
const snippetMaxLength = 200

// Entry is one chronological hit in a Timeline.
type Entry struct {
	Date            time.Time
	RelativePath    string
	Snippet         string
	SimilarityScore float64
}

// MonthIntensity pairs a YYYY-MM bucket with its mean similarity score.
type MonthIntensity struct {
	Month     string
	Intensity float64
}

// Timeline is the structured record produced by Trace. Any ASCII or other
// presentation is a view over this record, not part of it.
type Timeline struct {
	Query            string
	Entries          []Entry
	ActivityByMonth  map[string]int
	IntensityByMonth map[string]float64
	PeakPeriods      []MonthIntensity
	DormantPeriods   []string
}

// Tracer traces interest evolution against a loaded vector store, reusing
// the same embeddings the query pipeline searches with.
type Tracer struct {
	Store   *store.VectorStore
	Encoder encoder.Encoder
}

// NewTracer builds a Tracer over an already-loaded store and encoder.
func NewTracer(vs *store.VectorStore, enc encoder.Encoder) *Tracer {
	return &Tracer{Store: vs, Encoder: enc}
}

// Trace follows topic's journey through the vault: semantic retrieval,
// daily-note filtering, threshold drop, monthly bucketing, then peak and
// dormant period detection.
func (t *Tracer) Trace(ctx context.Context, topic string, threshold float64, excludeDaily bool) (*Timeline, error) {
	vecs, err := t.Encoder.Embed(ctx, []string{topic})
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.Encoder, err)
	}
	query := vecs[0]

	rows, _ := t.Store.Snapshot()
	if len(rows) == 0 {
		return nil, &vaulterr.VaultError{Kind: vaulterr.IndexUnavailable, Message: "no index to trace against"}
	}

	scored := store.TopK(rows, query, topK)

	var entries []Entry
	for _, s := range scored {
		row := rows[s.RowIndex]

		if excludeDaily && hasTag(row.Tags, "daily") {
			continue
		}

		similarity := float64(s.Score)
		if similarity < threshold {
			continue
		}

		effDate := effectiveDate(row)
		if effDate.IsZero() {
			continue
		}

		entries = append(entries, Entry{
			Date:            effDate,
			RelativePath:    row.RelativePath,
			Snippet:         snippet(row),
			SimilarityScore: similarity,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Date.Before(entries[j].Date) })

	intensity := monthlyIntensity(entries)
	activity := monthlyActivity(entries)

	return &Timeline{
		Query:            topic,
		Entries:          entries,
		ActivityByMonth:  activity,
		IntensityByMonth: intensity,
		PeakPeriods:      identifyPeaks(intensity),
		DormantPeriods:   identifyDormantPeriods(intensity),
	}, nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// effectiveDate extracts a row's effective date. Daily notes carry their
// date in the relative path (YYYY-MM-DD); everything else falls back to
// frontmatter creation date, and finally to modification time.
func effectiveDate(row store.Row) time.Time {
	if d, ok := dailyNoteDate(row.RelativePath); ok {
		return d
	}
	if !row.CreatedDate.IsZero() {
		return row.CreatedDate
	}
	return row.ModifiedTime
}

func dailyNoteDate(relPath string) (time.Time, bool) {
	base := filepath.Base(relPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if len(name) < 10 {
		return time.Time{}, false
	}
	candidate := name[len(name)-10:]
	d, err := time.Parse("2006-01-02", candidate)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func snippet(row store.Row) string {
	text := strings.TrimSpace(row.Content)
	if len(text) > snippetMaxLength {
		text = text[:snippetMaxLength] + "..."
	}
	return filepath.Base(row.RelativePath) + ": " + text
}

func monthKey(d time.Time) string {
	return d.Format("2006-01")
}

func monthlyIntensity(entries []Entry) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, e := range entries {
		k := monthKey(e.Date)
		sums[k] += e.SimilarityScore
		counts[k]++
	}
	out := make(map[string]float64, len(sums))
	for k, sum := range sums {
		out[k] = sum / float64(counts[k])
	}
	return out
}

func monthlyActivity(entries []Entry) map[string]int {
	out := make(map[string]int)
	for _, e := range entries {
		out[monthKey(e.Date)]++
	}
	return out
}

func identifyPeaks(intensity map[string]float64) []MonthIntensity {
	var peaks []MonthIntensity
	for month, score := range intensity {
		if score >= peakThreshold {
			peaks = append(peaks, MonthIntensity{Month: month, Intensity: score})
		}
	}
	sort.Slice(peaks, func(i, j int) bool {
		if peaks[i].Intensity != peaks[j].Intensity {
			return peaks[i].Intensity > peaks[j].Intensity
		}
		return peaks[i].Month < peaks[j].Month
	})
	return peaks
}

// identifyDormantPeriods walks every month between the earliest and latest
// active month and reports the ones with no activity at all.
func identifyDormantPeriods(intensity map[string]float64) []string {
	if len(intensity) == 0 {
		return nil
	}

	months := make([]string, 0, len(intensity))
	for m := range intensity {
		months = append(months, m)
	}
	sort.Strings(months)

	start, err := time.Parse("2006-01", months[0])
	if err != nil {
		return nil
	}
	end, err := time.Parse("2006-01", months[len(months)-1])
	if err != nil {
		return nil
	}

	var dormant []string
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 1, 0) {
		k := monthKey(cur)
		if _, ok := intensity[k]; !ok {
			dormant = append(dormant, k)
		}
	}
	return dormant
}
