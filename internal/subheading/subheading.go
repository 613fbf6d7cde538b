// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package subheading removes editorial section headings that some digital
// editions prepend to verse text.
//
// A heading is recognized by one of two shapes: a short, title-cased phrase
// terminated by '.', '!' or '?' and whitespace ("The Birth of Jesus. Now the
// birth..."), or a run of capitalized words running straight into the
// first word of the verse ("Psalm Of David A Psalm for..."). Detection errs
// toward leaving text alone; Strip never fails and returns its input
// byte-identical when no heading is found. Strip is idempotent: a span that
// would leave a second heading-shaped span behind is not removed.
package subheading

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/verse-prep/pkg/types"
)

// Defaults for Options. A zero field in Options falls back to these.
const (
	// DefaultLowercaseThreshold is the number of sentence letters at which a
	// candidate stops looking like a heading. With 1, any lowercase content
	// word ("wept", "created") marks the candidate as verse text.
	DefaultLowercaseThreshold = 1

	// DefaultRawLowercaseThreshold is the threshold used with
	// DensityLowercase, where every lowercase letter of the span counts.
	DefaultRawLowercaseThreshold = 5

	// DefaultMaxHeadingLength is the exclusive upper bound, in characters,
	// on a heading.
	DefaultMaxHeadingLength = 100

	// DefaultMinBodyMargin is how many characters longer than the heading
	// the remaining verse must be.
	DefaultMinBodyMargin = 10

	// DefaultMinHeadingWords is the fewest words a heading may have.
	DefaultMinHeadingWords = 2
)

// Method names the rule that detected a heading.
type Method int

const (
	MethodNone Method = iota
	MethodKnownPrefix
	MethodPunctuation
	MethodCapitalRun
)

func (m Method) String() string {
	switch m {
	case MethodKnownPrefix:
		return "known-prefix"
	case MethodPunctuation:
		return "punctuation"
	case MethodCapitalRun:
		return "capital-run"
	default:
		return "none"
	}
}

// Density selects how the punctuation rule measures lowercase content.
type Density string

const (
	// DensitySentence counts only the letters of words that break title
	// case, and rejects spans opening with a sentence word ("Then", "Go").
	DensitySentence Density = "sentence"

	// DensityLowercase counts every ASCII lowercase letter in the span.
	// "Title Here. " scores 7 and "He wept. " scores 5.
	DensityLowercase Density = "lowercase"
)

// Valid reports whether d names a known density measure.
func (d Density) Valid() bool {
	return d == DensitySentence || d == DensityLowercase
}

// Options tunes the detector.
type Options struct {
	// Density picks the lowercase measure (default DensitySentence).
	// Unknown values select DensitySentence.
	Density Density

	// LowercaseThreshold: a candidate is heading-like only when its
	// lowercase measure is below this. Under DensitySentence the measure is
	// the letters of words that are neither title-cased nor short joining
	// words ("of", "the"), with all-caps words such as "LORD" counted in
	// full. The default depends on Density.
	LowercaseThreshold int

	// MaxHeadingLength bounds the heading length in characters (exclusive).
	MaxHeadingLength int

	// MinBodyMargin: the trimmed remainder must be longer than the heading
	// by more than this many characters.
	MinBodyMargin int

	// MinHeadingWords is the fewest words a punctuation-terminated heading
	// may contain. A capital run always has at least this many.
	MinHeadingWords int

	// KnownPrefixes are literal dataset artifacts removed before the
	// heuristics run.
	KnownPrefixes []string
}

// DefaultOptions returns the tuned defaults.
func DefaultOptions() Options {
	return Options{
		Density:            DensitySentence,
		LowercaseThreshold: DefaultLowercaseThreshold,
		MaxHeadingLength:   DefaultMaxHeadingLength,
		MinBodyMargin:      DefaultMinBodyMargin,
		MinHeadingWords:    DefaultMinHeadingWords,
	}
}

// OptionsFromConfig converts the strip section of the config file.
func OptionsFromConfig(cfg types.StripConfig) Options {
	return Options{
		Density:            Density(cfg.Density),
		LowercaseThreshold: cfg.LowercaseThreshold,
		MaxHeadingLength:   cfg.MaxHeadingLength,
		MinBodyMargin:      cfg.MinBodyMargin,
		MinHeadingWords:    cfg.MinHeadingWords,
		KnownPrefixes:      cfg.KnownPrefixes,
	}
}

// Result describes one detection.
type Result struct {
	// Heading is the removed span, empty when Method is MethodNone.
	Heading string

	// Text is the verse text after removal, or the input unchanged.
	Text string

	Method Method
}

// Stripped reports whether a heading was removed.
func (r Result) Stripped() bool {
	return r.Method != MethodNone
}

// Stripper detects and removes leading headings. It holds no mutable
// state and is safe for concurrent use.
type Stripper struct {
	opts Options
}

// New returns a Stripper. Non-positive numeric options take their defaults.
func New(opts Options) *Stripper {
	if !opts.Density.Valid() {
		opts.Density = DensitySentence
	}
	if opts.LowercaseThreshold <= 0 {
		opts.LowercaseThreshold = DefaultLowercaseThreshold
		if opts.Density == DensityLowercase {
			opts.LowercaseThreshold = DefaultRawLowercaseThreshold
		}
	}
	if opts.MaxHeadingLength <= 0 {
		opts.MaxHeadingLength = DefaultMaxHeadingLength
	}
	if opts.MinBodyMargin <= 0 {
		opts.MinBodyMargin = DefaultMinBodyMargin
	}
	if opts.MinHeadingWords <= 0 {
		opts.MinHeadingWords = DefaultMinHeadingWords
	}
	return &Stripper{opts: opts}
}

var std = New(DefaultOptions())

// Strip removes a leading heading from text using the default options.
func Strip(text string) string {
	return std.Strip(text)
}

// Detect classifies text using the default options.
func Detect(text string) Result {
	return std.Detect(text)
}

// Strip returns text with its leading heading removed and surrounding
// whitespace trimmed, or text unchanged when no heading is found.
func (s *Stripper) Strip(text string) string {
	return s.Detect(text).Text
}

// StripVerse applies Strip to the verse text and leaves every other field
// untouched.
func (s *Stripper) StripVerse(v types.Verse) types.Verse {
	v.Text = s.Strip(v.Text)
	return v
}

// Detect classifies the leading span of text. Known prefixes are removed
// first. Then the punctuation rule runs, with the capital-run rule as the
// fallback when it finds no candidate or rejects the one it found. A
// heuristic match is dropped when the remainder would match again, so
// Strip(Strip(x)) == Strip(x).
func (s *Stripper) Detect(text string) Result {
	if text == "" {
		return Result{Text: text}
	}

	prefix, rest := s.knownPrefix(text)

	r := s.detectHeading(rest)
	if r.Stripped() && s.detectHeading(r.Text).Stripped() {
		r = Result{Text: rest}
	}

	switch {
	case prefix == "":
		return r
	case r.Stripped():
		r.Heading = prefix + r.Heading
		return r
	}
	return Result{Heading: prefix, Text: rest, Method: MethodKnownPrefix}
}

// knownPrefix removes the first configured prefix that leaves a non-empty
// verse. When none applies, rest is text unchanged.
func (s *Stripper) knownPrefix(text string) (prefix, rest string) {
	for _, p := range s.opts.KnownPrefixes {
		if p == "" || !strings.HasPrefix(text, p) {
			continue
		}
		if body := strings.TrimSpace(text[len(p):]); body != "" {
			return p, body
		}
	}
	return "", text
}

// detectHeading applies the punctuation and capital-run rules once.
func (s *Stripper) detectHeading(text string) Result {
	if span, ok := punctuationSpan(text); ok && s.headingLike(span) && s.fits(span, text[len(span):]) {
		return Result{Heading: span, Text: strings.TrimSpace(text[len(span):]), Method: MethodPunctuation}
	}

	if span, ok := capitalRunSpan(text, s.opts.MinHeadingWords); ok && s.fits(span, text[len(span):]) {
		return Result{Heading: span, Text: strings.TrimSpace(text[len(span):]), Method: MethodCapitalRun}
	}

	return Result{Text: text}
}

// punctuationSpan returns the prefix of text up to and including the first
// terminal mark and the single whitespace character after it.
func punctuationSpan(text string) (string, bool) {
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			r, size := utf8.DecodeRuneInString(text[i+1:])
			if size > 0 && unicode.IsSpace(r) {
				return text[:i+1+size], true
			}
		}
	}
	return "", false
}

// runWord matches one title-cased word and the whitespace after it. At least
// one lowercase letter is required, so "A" or "LORD" end a run.
var runWord = regexp.MustCompile("^[A-Z][a-z'`]+\\s")

// capitalRunSpan finds a run of at least minWords title-cased words that
// stops at a capitalized word the run cannot absorb ("A", "LORD").
// A run followed by a lowercase word is verse text ("Then King David
// went...") and is never split.
func capitalRunSpan(text string, minWords int) (string, bool) {
	words, pos := 0, 0
	for {
		loc := runWord.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		words++
		pos += loc[1]
	}

	if words >= minWords && pos < len(text) && isUpperASCII(text[pos]) {
		return text[:pos], true
	}
	return "", false
}

func (s *Stripper) headingLike(span string) bool {
	if s.opts.Density == DensityLowercase {
		return lowercaseLetters(span) < s.opts.LowercaseThreshold
	}
	if countWords(span) < s.opts.MinHeadingWords || opensSentence(span) {
		return false
	}
	return sentenceLetters(span) < s.opts.LowercaseThreshold
}

// fits applies the length-ratio test and refuses to leave an empty verse.
func (s *Stripper) fits(span, rest string) bool {
	body := strings.TrimSpace(rest)
	if body == "" {
		return false
	}
	n := utf8.RuneCountInString(span)
	return n < s.opts.MaxHeadingLength && utf8.RuneCountInString(body) > n+s.opts.MinBodyMargin
}

// minorWords stay lowercase inside title-cased headings.
var minorWords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true,
	"but": true, "by": true, "for": true, "from": true, "in": true,
	"into": true, "nor": true, "of": true, "on": true, "or": true,
	"the": true, "to": true, "unto": true, "upon": true, "with": true,
}

// sentenceOpeners are capitalized words that begin verse sentences far more
// often than headings: conjunctions, narrative adverbs and imperatives.
var sentenceOpeners = map[string]bool{
	"And": true, "Behold": true, "Bless": true, "But": true, "Come": true,
	"For": true, "Give": true, "Go": true, "Hear": true, "Let": true,
	"Lo": true, "Now": true, "O": true, "Praise": true, "Rejoice": true,
	"Sing": true, "So": true, "Then": true, "Therefore": true, "Thus": true,
	"Yea": true,
}

func opensSentence(span string) bool {
	fields := strings.Fields(span)
	if len(fields) == 0 {
		return false
	}
	return sentenceOpeners[strings.TrimFunc(fields[0], notLetter)]
}

// lowercaseLetters counts the ASCII lowercase letters in span.
func lowercaseLetters(span string) int {
	n := 0
	for i := 0; i < len(span); i++ {
		if isLowerASCII(span[i]) {
			n++
		}
	}
	return n
}

// sentenceLetters counts the ASCII letters of words that do not fit a
// title-cased phrase.
func sentenceLetters(span string) int {
	n := 0
	for _, w := range strings.Fields(span) {
		w = strings.TrimFunc(w, notLetter)
		if w == "" || isTitleWord(w) || minorWords[w] {
			continue
		}
		for i := 0; i < len(w); i++ {
			if isLowerASCII(w[i]) || isUpperASCII(w[i]) {
				n++
			}
		}
	}
	return n
}

func countWords(span string) int {
	n := 0
	for _, w := range strings.Fields(span) {
		if strings.IndexFunc(w, unicode.IsLetter) >= 0 {
			n++
		}
	}
	return n
}

// isTitleWord reports whether w is a capital followed only by lowercase
// letters and apostrophes. A lone capital ("A", "I") qualifies.
func isTitleWord(w string) bool {
	if w == "" || !isUpperASCII(w[0]) {
		return false
	}
	for _, r := range w[1:] {
		if !(r >= 'a' && r <= 'z') && r != '\'' && r != '`' && r != '’' {
			return false
		}
	}
	return true
}

func notLetter(r rune) bool { return !unicode.IsLetter(r) }

func isUpperASCII(b byte) bool { return b >= 'A' && b <= 'Z' }

func isLowerASCII(b byte) bool { return b >= 'a' && b <= 'z' }
