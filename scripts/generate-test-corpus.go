//go:build ignore

// Package main generates a synthetic note vault for benchmarking.
// Usage: go run scripts/generate-test-corpus.go -notes 1000 -output testdata/bench
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	numNotes  = flag.Int("notes", 1000, "Number of notes to generate")
	outputDir = flag.String("output", "testdata/bench", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var noteTemplate = `---
title: %s
tags: [%s]
created: %s
---

# %s

%s %s explores %s in the context of %s. The central question is how
%s affects %s over time, and what that implies for %s.

## Notes

- %s tends to correlate with %s when %s is held constant.
- See [[%s]] for a related thread on %s.
- Revisit this after more data on %s comes in.

## Open questions

1. Does %s generalize beyond %s?
2. What would change the conclusion about %s?
`

var dailyTemplate = `---
title: %s
tags: [daily]
created: %s
---

# %s

## Log

- Spent time on %s, mostly around %s.
- Talked to someone about [[%s]] — worth following up.
- %s is still unresolved; revisit %s.

## Tomorrow

- Continue %s.
- Check in on %s.
`

var topics = []string{
	"distributed systems", "personal finance", "garden planning",
	"machine learning", "home renovation", "language learning",
	"running training", "book notes", "team retrospectives",
	"cooking experiments", "travel planning", "product strategy",
	"sleep tracking", "woodworking", "photography", "investing",
	"parenting", "meditation practice", "career planning", "music theory",
}

var adjectives = []string{
	"recurring", "emerging", "long-standing", "half-formed", "nagging",
	"promising", "stalled", "quiet", "early", "familiar",
}

var verbs = []string{
	"shapes", "constrains", "informs", "complicates", "clarifies",
	"undermines", "supports", "reframes", "delays", "accelerates",
}

func main() {
	flag.Parse()
	rand.Seed(*seed)

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "error creating output directory: %v\n", err)
		os.Exit(1)
	}
	subdirs := []string{"notes", "daily"}
	for _, subdir := range subdirs {
		if err := os.MkdirAll(filepath.Join(*outputDir, subdir), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "error creating subdirectory %s: %v\n", subdir, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Generating %d notes in %s...\n", *numNotes, *outputDir)

	dailyCount := *numNotes / 10
	noteCount := *numNotes - dailyCount

	generated := 0
	for i := 0; i < noteCount; i++ {
		if err := generateNote(i); err != nil {
			fmt.Fprintf(os.Stderr, "error generating note %d: %v\n", i, err)
			continue
		}
		generated++
	}
	for i := 0; i < dailyCount; i++ {
		if err := generateDaily(i); err != nil {
			fmt.Fprintf(os.Stderr, "error generating daily note %d: %v\n", i, err)
			continue
		}
		generated++
	}

	fmt.Printf("Generated %d notes successfully.\n", generated)
}

func randomWord(pool []string) string {
	return pool[rand.Intn(len(pool))]
}

func slugify(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "-")
}

func randomDate(index int) time.Time {
	base := time.Date(2023, 1, 1, 9, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, (index*7)%730)
}

func generateNote(index int) error {
	topic := randomWord(topics)
	related := randomWord(topics)
	adj := randomWord(adjectives)
	created := randomDate(index)

	title := fmt.Sprintf("%s %s", strings.Title(adj), strings.Title(topic))
	tags := fmt.Sprintf("%s, %s", slugify(topic), adj)

	content := fmt.Sprintf(noteTemplate,
		title, tags, created.Format("2006-01-02"),
		title,
		strings.Title(adj), topic, topic, related,
		topic, related, topic,
		topic, related, adj,
		related, related,
		related,
		topic, related,
		topic,
	)

	filename := filepath.Join(*outputDir, "notes", fmt.Sprintf("%s-%d.md", slugify(topic), index))
	return os.WriteFile(filename, []byte(content), 0644)
}

func generateDaily(index int) error {
	topic := randomWord(topics)
	related := randomWord(topics)
	created := randomDate(index)
	title := created.Format("2006-01-02")

	content := fmt.Sprintf(dailyTemplate,
		title, created.Format("2006-01-02"),
		title,
		topic, topic,
		related,
		topic, topic,
		topic,
		related,
	)

	filename := filepath.Join(*outputDir, "daily", fmt.Sprintf("%s.md", title))
	return os.WriteFile(filename, []byte(content), 0644)
}
