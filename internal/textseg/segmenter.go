// Package textseg turns a challenge sentence into per-position acceptable
// answer sets and grades user dictation against them. Everything here is
// pure and safe for concurrent use.
package textseg

import (
	"regexp"
	"strings"

	"github.com/hmtran/audiolesson/domain/entities"
)

// wordPattern tokenizes on word boundaries: letters/digits/apostrophes with
// an optional trailing punctuation mark kept attached.
var wordPattern = regexp.MustCompile(`\b\w+(?:['’]\w+)*[.!?,:;]?`)

// alternativeForms maps a lowercase token to its whole equivalence group:
// ordinal abbreviations, common contractions, and clock forms.
var alternativeForms = buildAlternativeForms()

func buildAlternativeForms() map[string][]string {
	m := make(map[string][]string)
	add := func(forms ...string) {
		for _, form := range forms {
			m[strings.ToLower(form)] = forms
		}
	}

	add("1st", "1st.", "first", "first.")
	add("2nd", "2nd.", "second", "second.")
	add("3rd", "3rd.", "third", "third.")
	add("4th", "4th.", "fourth", "fourth.")
	add("5th", "5th.", "fifth", "fifth.")
	add("26th", "26th.", "twenty-sixth", "twenty-sixth.")
	add("31st", "31st.", "thirty-first", "thirty-first.")

	add("can't", "cannot")
	add("won't", "will not")
	add("I'm", "I am")
	add("you're", "you are")
	add("it's", "it is")
	add("that's", "that is")

	add("o'clock", "o clock")
	add("a.m.", "am", "AM")
	add("p.m.", "pm", "PM")

	return m
}

// Segment splits a sentence into ordered acceptable-answer sets, one per
// token. Every set contains at least the literal token; blank input yields
// an empty result.
func Segment(fullSentence string) []entities.AnswerSet {
	if strings.TrimSpace(fullSentence) == "" {
		return nil
	}

	var sets []entities.AnswerSet
	for _, word := range wordPattern.FindAllString(fullSentence, -1) {
		if strings.TrimSpace(word) == "" {
			continue
		}
		sets = append(sets, entities.AnswerSet{
			Index:   len(sets),
			Answers: alternativesFor(word),
		})
	}
	return sets
}

func alternativesFor(word string) []string {
	endsWithDot := strings.HasSuffix(word, ".")
	base := word
	if endsWithDot {
		base = word[:len(word)-1]
	}

	if forms, ok := alternativeForms[strings.ToLower(word)]; ok {
		return append([]string(nil), forms...)
	}
	if endsWithDot {
		if forms, ok := alternativeForms[strings.ToLower(base)]; ok {
			return append([]string(nil), forms...)
		}
	}

	if isNumber(word) || isOrdinalNumber(word) ||
		(endsWithDot && (isNumber(base) || isOrdinalNumber(base))) {
		if endsWithDot {
			return numberAlternatives(base)
		}
		return numberAlternatives(word)
	}

	alternatives := []string{word}

	if lc := strings.ToLower(word); lc != word {
		alternatives = append(alternatives, lc)
	}
	if uc := strings.ToUpper(word); uc != word {
		alternatives = append(alternatives, uc)
	}

	if endsWithDot {
		alternatives = append(alternatives, base)
		if lc := strings.ToLower(base); lc != base {
			alternatives = append(alternatives, lc)
		}
		if uc := strings.ToUpper(base); uc != base {
			alternatives = append(alternatives, uc)
		}
	}

	return alternatives
}

// numberAlternatives returns the literal plus the spelled-out cardinal, and
// for ordinal-suffixed tokens the spelled-out ordinal as well.
func numberAlternatives(token string) []string {
	results := []string{token}
	if words, ok := cardinalWords(token); ok {
		results = append(results, words)
	}
	if words, ok := ordinalWords(token); ok {
		results = append(results, words)
	}
	return results
}
