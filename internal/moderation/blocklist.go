package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"unicode"

	"github.com/abadojack/whatlanggo"
	goahocorasick "github.com/anknown/ahocorasick"
)

// Blocklist is the in-process classifier: an Aho-Corasick automaton built
// from a normalized word list. Leet speak and interleaved punctuation are
// folded away before matching, so "b.4.d.w.o.r.d" still hits "badword".
type Blocklist struct {
	matcher *goahocorasick.Machine
	log     *slog.Logger
}

func NewBlocklist(words []string, log *slog.Logger) (*Blocklist, error) {
	if len(words) == 0 {
		return &Blocklist{log: log}, nil
	}

	patterns := make([][]rune, len(words))
	for i, w := range words {
		patterns[i] = normalizeRunes([]rune(w))
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Blocklist{matcher: m, log: log}, nil
}

func (b *Blocklist) Classify(_ context.Context, text string) (Verdict, error) {
	if b.matcher == nil {
		return allowed, nil
	}

	norm := normalizeRunes([]rune(text))
	if len(norm) == 0 {
		return allowed, nil
	}

	terms := b.matcher.MultiPatternSearch(norm, true)
	if len(terms) == 0 {
		return allowed, nil
	}

	word := string(terms[0].Word)
	info := whatlanggo.Detect(text)
	b.log.Info("message blocked",
		"term", word,
		"lang", info.Lang.Iso6391())

	return Verdict{Allowed: false, Reason: fmt.Sprintf("prohibited term %q", word)}, nil
}

// normalizeRunes lowercases, maps common leet substitutions back to
// letters and drops punctuation, spacing and symbols.
func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
