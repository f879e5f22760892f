// Package align assigns lesson sentences to contiguous, non-overlapping
// spans of transcript words, producing per-sentence start/end timings.
package align

import (
	"regexp"
	"sort"
	"strings"

	"github.com/hmtran/audiolesson/domain/entities"
)

// Match is the transcript span assigned to one sentence.
type Match struct {
	MatchedText string                    `json:"matched_text"`
	StartMs     int                       `json:"start_ms"`
	EndMs       int                       `json:"end_ms"`
	Words       []entities.TranscriptWord `json:"words"`
}

var (
	nonAlnumSpace = regexp.MustCompile(`[^a-z0-9\s]`)
	nonAlnum      = regexp.MustCompile(`[^a-z0-9]`)
)

// Sentences matches each target sentence to its span in the transcript.
// Sentences are resolved longest first so that longer, more specific
// sentences are not starved by shorter ones consuming their words; among
// candidate offsets the earliest wins. A word index claimed by one sentence
// is never reused by another. Sentences with no match are absent from the
// result; this never aborts the remaining sentences.
//
// Known limitation: the greedy longest-first policy can leave a short
// sentence unmatched even when a different assignment would have placed
// both sentences.
func Sentences(fullSentences []string, words []entities.TranscriptWord) map[string]Match {
	results := make(map[string]Match)
	if len(fullSentences) == 0 || len(words) == 0 {
		return results
	}

	usedWords := make([]bool, len(words))

	sorted := make([]string, 0, len(fullSentences))
	for _, sentence := range fullSentences {
		if strings.TrimSpace(sentence) != "" {
			sorted = append(sorted, sentence)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(normalizeAndSplit(sorted[i])) > len(normalizeAndSplit(sorted[j]))
	})

	for _, sentence := range sorted {
		if match, ok := findSequence(sentence, words, usedWords); ok {
			results[sentence] = match
		}
	}

	return results
}

func findSequence(fullSentence string, words []entities.TranscriptWord, usedWords []bool) (Match, bool) {
	targets := normalizeAndSplit(fullSentence)
	if len(targets) == 0 {
		return Match{}, false
	}

	for start := 0; start <= len(words)-len(targets); start++ {
		end := start + len(targets) - 1
		if rangeUsed(usedWords, start, end) {
			continue
		}
		if !sequenceMatches(words, start, targets) {
			continue
		}

		matched := words[start : end+1]
		texts := make([]string, len(matched))
		for i, w := range matched {
			texts[i] = w.Text
		}
		for i := start; i <= end; i++ {
			usedWords[i] = true
		}

		return Match{
			MatchedText: strings.Join(texts, " "),
			StartMs:     words[start].StartMs,
			EndMs:       words[end].EndMs,
			Words:       matched,
		}, true
	}

	return Match{}, false
}

func sequenceMatches(words []entities.TranscriptWord, start int, targets []string) bool {
	if start+len(targets) > len(words) {
		return false
	}
	for i, target := range targets {
		if normalizeWord(words[start+i].Text) != target {
			return false
		}
	}
	return true
}

func rangeUsed(usedWords []bool, start, end int) bool {
	for i := start; i <= end && i < len(usedWords); i++ {
		if usedWords[i] {
			return true
		}
	}
	return false
}

func normalizeAndSplit(text string) []string {
	return strings.Fields(nonAlnumSpace.ReplaceAllString(strings.ToLower(text), ""))
}

func normalizeWord(word string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(word), "")
}
