package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/fernandovmc/ai-workspaces/internal/util"
)

const (
	citationThreshold = 0.7
	snippetRunes      = 100
	snippetEllipsis   = "..."
	paragraphBreak    = "\n\n"
)

var (
	sentenceBreak = regexp.MustCompile(`[.!?]+`)
	nonWord       = regexp.MustCompile(`\W+`)
)

// AttributeCitations maps each answer sentence to the first source
// paragraph whose word overlap exceeds the threshold and returns the
// snippets of those paragraphs in first-seen order, without repeats.
//
// Paragraphs are scanned in source order, then in order within a source.
// The first qualifying paragraph wins even if a later one scores higher.
func AttributeCitations(answer string, sources []string) []string {
	citations := []string{}
	paragraphs := splitParagraphs(sources)
	if len(paragraphs) == 0 {
		return citations
	}

	seen := make(map[string]struct{})
	for _, sentence := range splitSentences(answer) {
		for _, paragraph := range paragraphs {
			if overlapScore(sentence, paragraph) <= citationThreshold {
				continue
			}
			s := snippet(paragraph)
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				citations = append(citations, s)
			}
			break
		}
	}
	return citations
}

func splitParagraphs(sources []string) []string {
	var out []string
	for _, src := range sources {
		for _, p := range strings.Split(src, paragraphBreak) {
			if strings.TrimSpace(p) != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func splitSentences(text string) []string {
	var out []string
	for _, s := range sentenceBreak.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func tokenize(text string) []string {
	var words []string
	for _, w := range nonWord.Split(strings.ToLower(text), -1) {
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

// overlapScore counts the sentence words (with repeats) present in the
// paragraph and divides by the smaller of the two word counts.
func overlapScore(sentence, paragraph string) float64 {
	sw := tokenize(sentence)
	pw := tokenize(paragraph)
	if len(sw) == 0 || len(pw) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(pw))
	for _, w := range pw {
		set[w] = struct{}{}
	}
	shared := 0
	for _, w := range sw {
		if _, ok := set[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(min(len(sw), len(pw)))
}

func snippet(paragraph string) string {
	if utf8.RuneCountInString(paragraph) <= snippetRunes {
		return paragraph
	}
	return util.TruncateRunes(paragraph, snippetRunes) + snippetEllipsis
}
