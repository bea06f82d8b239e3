package transcript

import (
	"regexp"
	"strings"
	"unicode"
)

// Raw captions arrive with WEBVTT headers, inline timestamp markers,
// styling tags and runs of re-emitted words from overlapping caption
// windows. Clean strips the markup and collapses the repeats.
var (
	vttHeaderPattern = regexp.MustCompile(`^WEBVTT[^\n]*\n+`)
	timingTagPattern = regexp.MustCompile(`<\d{2}:\d{2}:\d{2}\.\d{3}>`)
	styleTagPattern  = regexp.MustCompile(`</?c[^>]*>`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
)

// maxRepeatPhrase is the longest phrase (in words) considered when
// collapsing adjacent repeats.
const maxRepeatPhrase = 15

// Clean normalizes raw caption text: markup and timestamp artifacts are
// stripped, whitespace runs become single spaces, and any maximal
// immediately-repeated phrase of 1 to 15 words is collapsed to a single
// occurrence. The collapse is repeated until a fixed point since removing
// one repeat can expose another. Clean is idempotent.
func Clean(raw string) string {
	s := vttHeaderPattern.ReplaceAllString(raw, "")
	s = timingTagPattern.ReplaceAllString(s, "")
	s = styleTagPattern.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	words := collapseRepeats(strings.Split(s, " "))
	return strings.Join(words, " ")
}

// collapseRepeats removes immediately repeated phrases. A phrase repeats
// when its words match exactly except that the second occurrence's last
// word may carry trailing punctuation (caption sources re-emit the phrase
// and then close the sentence). The survivor keeps that punctuation.
func collapseRepeats(words []string) []string {
	for changed := true; changed; {
		changed = false
		for i := 0; i < len(words); {
			n := repeatAt(words, i)
			if n == 0 {
				i++
				continue
			}
			words[i+n-1] = words[i+2*n-1]
			words = append(words[:i+n], words[i+2*n:]...)
			changed = true
		}
	}
	return words
}

// repeatAt returns the length of the shortest phrase starting at i that is
// immediately repeated, or 0.
func repeatAt(words []string, i int) int {
	for n := 1; n <= maxRepeatPhrase && i+2*n <= len(words); n++ {
		if phraseRepeats(words, i, n) {
			return n
		}
	}
	return 0
}

func phraseRepeats(words []string, i, n int) bool {
	for k := 0; k < n-1; k++ {
		if words[i+k] != words[i+n+k] {
			return false
		}
	}

	// The first occurrence must end cleanly on a word character; the
	// second may trail into sentence punctuation.
	aLast := words[i+n-1]
	if trimTrailingNonWord(aLast) != aLast || aLast == "" {
		return false
	}
	return trimTrailingNonWord(words[i+2*n-1]) == aLast
}

func trimTrailingNonWord(s string) string {
	return strings.TrimRightFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}
