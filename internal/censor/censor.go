// Package censor replaces forbidden words and phone-number-like sequences
// in submitted text before it is stored or displayed.
package censor

import (
	"log/slog"
	"regexp"
	"sync"
)

// Placeholder is the replacement string for forbidden words.
const Placeholder = "***"

// PhonePlaceholder is the replacement string for redacted phone sequences.
const PhonePlaceholder = "[номер скрыт]"

// phoneAfterTrigger matches a phone-like digit sequence following a contact
// trigger word. The first two groups (trigger + separator) are preserved.
var phoneAfterTrigger = regexp.MustCompile(
	`(?i)(звоните|звонить|телефон|тел\.?|номер|пишите)([\s:]*)(\+?\d[\d\s().-]{5,}\d)`)

// Filter performs case-insensitive word substitution and phone redaction.
// Word entries are treated as regular expression fragments; entries that
// fail to compile are skipped and logged, filtering continues with the rest.
// All methods are safe for concurrent use.
type Filter struct {
	mu       sync.RWMutex
	patterns []*regexp.Regexp
	logger   *slog.Logger

	source *wordFile
}

// New creates an empty Filter. Words are added via SetWords or AttachFile.
func New(logger *slog.Logger) *Filter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Filter{logger: logger}
}

// SetWords replaces the active word list. Each entry is compiled as a
// case-insensitive pattern; malformed entries are skipped and logged.
func (f *Filter) SetWords(words []string) {
	patterns := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		p, err := regexp.Compile("(?i)" + w)
		if err != nil {
			f.logger.Warn("censor: skipping malformed word pattern",
				"word", w,
				"error", err,
			)
			continue
		}
		patterns = append(patterns, p)
	}

	f.mu.Lock()
	f.patterns = patterns
	f.mu.Unlock()
}

// Censor replaces forbidden words with *** and phone sequences following
// trigger words with PhonePlaceholder. The second return value reports
// whether anything was replaced.
func (f *Filter) Censor(text string) (string, bool) {
	if text == "" {
		return text, false
	}

	f.maybeReload()

	f.mu.RLock()
	patterns := f.patterns
	f.mu.RUnlock()

	found := false
	for _, p := range patterns {
		if p.MatchString(text) {
			text = p.ReplaceAllString(text, Placeholder)
			found = true
		}
	}

	if phoneAfterTrigger.MatchString(text) {
		text = phoneAfterTrigger.ReplaceAllString(text, "${1}${2}"+PhonePlaceholder)
		found = true
	}

	return text, found
}
