package tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokentrie/schemaguard"
)

// noExactQuoteTokenizer is a minimal TokenizerAdapter whose vocabulary has
// no piece decoding to exactly `"`, only pieces that contain one alongside
// other characters, exercising the registry's dynamic top-K fallback.
type noExactQuoteTokenizer struct {
	pieces []string
}

func (t *noExactQuoteTokenizer) Encode(text string, bodyEncoding bool) []int32 { return nil }
func (t *noExactQuoteTokenizer) DecodeOne(id int32) string {
	if id < 0 || int(id) >= len(t.pieces) {
		return ""
	}
	return t.pieces[id]
}
func (t *noExactQuoteTokenizer) Decode(ids []int32) string { return "" }
func (t *noExactQuoteTokenizer) VocabSize() int            { return len(t.pieces) }
func (t *noExactQuoteTokenizer) EOSTokenID() (int32, bool) { return 0, false }
func (t *noExactQuoteTokenizer) Fingerprint() string       { return "no-exact-quote-fixture" }

// Scenario 5: for a tokenizer with no token decoding exactly to `"`, at
// every key-terminal step the allow-set must include at least one of the
// top-30 highest-scoring tokens whose decoded text contains `"`.
func TestScenario_MissingQuoteTokenFallsBackToDynamicTopK(t *testing.T) {
	tok := &noExactQuoteTokenizer{pieces: []string{"name", `end"`, `stop"`, "filler", "other"}}
	reg := schemaguard.NewSpecialTokenRegistry(nil)

	logits := make([]float32, tok.VocabSize())
	for i := range logits {
		logits[i] = float32(i)
	}

	tokens := reg.ClosingQuoteTokens(tok, logits, 30)
	require.NotEmpty(t, tokens)

	for _, id := range tokens {
		assert.True(t, containsQuote(tok.DecodeOne(id)), "fallback token %q must contain a quote", tok.DecodeOne(id))
	}
}

func containsQuote(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			return true
		}
	}
	return false
}
