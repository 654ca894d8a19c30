package schemaguard

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// specialTokenClass names the JSON terminal characters the registry
// scans the vocabulary for.
type specialTokenClass byte

const (
	classQuote      specialTokenClass = '"'
	classBackslash  specialTokenClass = '\\'
	classColon      specialTokenClass = ':'
	classComma      specialTokenClass = ','
	classBraceOpen  specialTokenClass = '{'
	classBraceClose specialTokenClass = '}'
	classBrackOpen  specialTokenClass = '['
	classBrackClose specialTokenClass = ']'

	// classMinus and classBoolTrue/classBoolFalse/classNull cover the
	// non-bracket/non-quote value-starter prefixes of §4.6's
	// obj.expect_value soft policy: '-' opens a negative number, and
	// 't'/'f'/'n' open true/false/null.
	classMinus     specialTokenClass = '-'
	classBoolTrue  specialTokenClass = 't'
	classBoolFalse specialTokenClass = 'f'
	classNull      specialTokenClass = 'n'

	// classDigit has no single-byte literal: it aggregates all ten digit
	// prefixes '0'-'9' under one class, built by a dedicated pass in
	// build() rather than the single-character scan below. 0x00 is safe
	// as a sentinel since no real token decodes to a NUL byte.
	classDigit specialTokenClass = 0x00
)

var allSpecialTokenClasses = []specialTokenClass{
	classQuote, classBackslash, classColon, classComma,
	classBraceOpen, classBraceClose, classBrackOpen, classBrackClose,
	classMinus, classBoolTrue, classBoolFalse, classNull,
}

// tokenSet is an exact/contains pair of token ids for one terminal class.
type tokenSet struct {
	Exact    []int32
	Contains []int32
}

// SpecialTokenRegistry discovers, for each JSON terminal character, the
// token ids that decode exactly to it or merely contain it. Built lazily
// per tokenizer fingerprint and cached process-wide.
type SpecialTokenRegistry struct {
	mu     sync.RWMutex
	byFP   map[string]map[specialTokenClass]tokenSet
	logger *slog.Logger
}

// NewSpecialTokenRegistry creates an empty registry. A nil logger
// defaults to slog.Default().
func NewSpecialTokenRegistry(logger *slog.Logger) *SpecialTokenRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpecialTokenRegistry{
		byFP:   make(map[string]map[specialTokenClass]tokenSet),
		logger: logger,
	}
}

// Get returns the exact/contains token sets for class under tok,
// building and caching them on first use for tok's fingerprint.
func (r *SpecialTokenRegistry) Get(tok TokenizerAdapter, class specialTokenClass) tokenSet {
	fp := tok.Fingerprint()

	r.mu.RLock()
	classes, ok := r.byFP[fp]
	if ok {
		set, ok := classes[class]
		r.mu.RUnlock()
		if ok {
			return set
		}
	} else {
		r.mu.RUnlock()
	}

	built := r.build(tok)

	r.mu.Lock()
	r.byFP[fp] = built
	r.mu.Unlock()

	r.logger.Debug("special token registry built", "fingerprint", fp, "vocab_size", tok.VocabSize())
	return built[class]
}

// build scans the whole vocabulary once, classifying every token id
// against every terminal class in a single pass.
func (r *SpecialTokenRegistry) build(tok TokenizerAdapter) map[specialTokenClass]tokenSet {
	sets := make(map[specialTokenClass]*tokenSet, len(allSpecialTokenClasses)+1)
	for _, c := range allSpecialTokenClasses {
		sets[c] = &tokenSet{}
	}
	sets[classDigit] = &tokenSet{}

	vocab := tok.VocabSize()
	for id := 0; id < vocab; id++ {
		piece := tok.DecodeOne(int32(id))
		if piece == "" {
			continue
		}
		for _, c := range allSpecialTokenClasses {
			ch := string(byte(c))
			set := sets[c]
			if piece == ch {
				set.Exact = append(set.Exact, int32(id))
				set.Contains = append(set.Contains, int32(id))
			} else if strings.Contains(piece, ch) {
				set.Contains = append(set.Contains, int32(id))
			}
		}
		if len(piece) == 1 && piece[0] >= '0' && piece[0] <= '9' {
			sets[classDigit].Exact = append(sets[classDigit].Exact, int32(id))
			sets[classDigit].Contains = append(sets[classDigit].Contains, int32(id))
		} else if strings.ContainsAny(piece, "0123456789") {
			sets[classDigit].Contains = append(sets[classDigit].Contains, int32(id))
		}
	}

	out := make(map[specialTokenClass]tokenSet, len(sets))
	for c, s := range sets {
		out[c] = *s
	}
	return out
}

// ClosingQuoteTokens returns the token ids admissible to close a key
// string: exact `"` tokens when the tokenizer has any, else the top-K
// highest-scoring tokens (by the current step's logits) whose decoded
// text contains `"`. topK defaults to 30 per spec when <= 0.
func (r *SpecialTokenRegistry) ClosingQuoteTokens(tok TokenizerAdapter, logits []float32, topK int) []int32 {
	if topK <= 0 {
		topK = 30
	}

	quotes := r.Get(tok, classQuote)
	if len(quotes.Exact) > 0 {
		return quotes.Exact
	}

	candidates := quotes.Contains
	if len(candidates) == 0 || logits == nil {
		return candidates
	}

	sorted := make([]int32, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		return logits[sorted[i]] > logits[sorted[j]]
	})
	if len(sorted) > topK {
		sorted = sorted[:topK]
	}
	return sorted
}
