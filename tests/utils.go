package tests

import (
	"testing"

	"github.com/tokentrie/schemaguard"
	"github.com/tokentrie/schemaguard/pkg/vocabtok"
)

// driveToCompletion runs a fresh processor for (schema, vocabulary) across
// every token of text and returns it for inspection. It mirrors a sampler
// loop that always samples the token the test script dictates.
func driveToCompletion(t *testing.T, schema *schemaguard.SchemaNode, vocab []string, text string) (*schemaguard.LogitProcessor, *vocabtok.Tokenizer) {
	t.Helper()

	tok := vocabtok.New(vocab, true)
	proc := schemaguard.NewLogitProcessor(schema, tok, nil, nil, nil, nil)
	if err := proc.OnPrompt(nil); err != nil {
		return proc, tok
	}

	for _, id := range tok.Encode(text, false) {
		logits := make([]float32, tok.VocabSize())
		proc.ProcessLogits(logits)
		proc.OnSampledToken(id)
		if proc.Err() != nil {
			break
		}
	}
	return proc, tok
}

// feedText drives proc through every token of text against an
// already-running generation (post-OnPrompt), stopping early if the
// processor records an error. Used to inspect mask state partway through a
// document rather than only after full completion.
func feedText(proc *schemaguard.LogitProcessor, tok *vocabtok.Tokenizer, text string) {
	for _, id := range tok.Encode(text, false) {
		logits := make([]float32, tok.VocabSize())
		proc.ProcessLogits(logits)
		proc.OnSampledToken(id)
		if proc.Err() != nil {
			return
		}
	}
}

// allowedTokenSet re-derives the hard allow-set (if any) the processor
// would currently apply, by looking for -Inf-masked positions in a
// neutral all-zero logit vector.
func allowedTokenSet(proc *schemaguard.LogitProcessor, vocabSize int) map[int32]bool {
	logits := make([]float32, vocabSize)
	out := proc.ProcessLogits(logits)
	allowed := make(map[int32]bool)
	for id, v := range out {
		if v == 0 {
			allowed[int32(id)] = true
		}
	}
	return allowed
}
