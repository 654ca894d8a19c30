package schemaguard

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokentrie/schemaguard/pkg/vocabtok"
)

// replay drives a LogitProcessor through the tokenization of text and
// returns the processor for inspection.
func replay(t *testing.T, schema *SchemaNode, pieces []string, text string) (*LogitProcessor, *vocabtok.Tokenizer) {
	t.Helper()
	tok := vocabtok.New(pieces, true)
	proc := NewLogitProcessor(schema, tok, nil, nil, nil, nil)
	require.NoError(t, proc.OnPrompt(nil))

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

func TestLogitProcessor_FlatSchemaAllRequired(t *testing.T) {
	schema := Obj(
		Prop("name", Str()),
		Prop("age", Int()),
		Prop("email", Str()),
		Req("name", "age", "email"),
	)
	text := `{"name":"Ada","age":36,"email":"ada@example.com"}`
	proc, _ := replay(t, schema, []string{"name", "age", "email"}, text)

	require.Nil(t, proc.Err())
	result := Validate(text, schema)
	assert.True(t, result.Valid)
}

func TestLogitProcessor_NestedObjectRevertsToOuterTrieAfterClose(t *testing.T) {
	user := Obj(Prop("firstName", Str()), Prop("lastName", Str()))
	schema := Obj(Prop("user", user), Prop("timestamp", Str()))
	text := `{"user":{"firstName":"Ada","lastName":"Lovelace"},"timestamp":"now"}`

	proc, _ := replay(t, schema, []string{"user", "firstName", "lastName", "timestamp"}, text)
	require.Nil(t, proc.Err())

	result := Validate(text, schema)
	assert.True(t, result.Valid)
}

func TestLogitProcessor_ArrayOfObjects(t *testing.T) {
	item := Obj(Prop("id", Int()), Prop("name", Str()))
	schema := Obj(Prop("items", Arr(item)))
	text := `{"items":[{"id":1,"name":"a"},{"id":2,"name":"b"}]}`

	proc, _ := replay(t, schema, []string{"items", "id", "name"}, text)
	require.Nil(t, proc.Err())

	result := Validate(text, schema)
	assert.True(t, result.Valid)
}

func TestLogitProcessor_OffTrieTokenSurfacesInvalidTokenSelected(t *testing.T) {
	schema := Obj(Prop("name", Str()))
	tok := vocabtok.New([]string{"name", "bogus"}, false)
	proc := NewLogitProcessor(schema, tok, nil, nil, nil, nil)
	require.NoError(t, proc.OnPrompt(nil))

	// Manually drive: open object, open key quote, then feed a token that
	// is off-trie mid-key to trigger invalid_token_selected, which is the
	// sibling fatal condition to no_valid_tokens for a dead-end path.
	feedToken := func(piece string) {
		ids := tok.Encode(piece, false)
		for _, id := range ids {
			logits := make([]float32, tok.VocabSize())
			proc.ProcessLogits(logits)
			proc.OnSampledToken(id)
		}
	}

	feedToken(`{"`)
	feedToken("bogus")

	require.NotNil(t, proc.Err())
	assert.ErrorIs(t, proc.Err().Kind, ErrInvalidTokenSelected)
}

func TestLogitProcessor_SafetyConstrainedLogitsAfterError(t *testing.T) {
	schema := Obj(Prop("name", Str()))
	tok := vocabtok.New([]string{"name", "bogus"}, true)
	proc := NewLogitProcessor(schema, tok, nil, nil, nil, nil)
	require.NoError(t, proc.OnPrompt(nil))

	for _, id := range tok.Encode(`{"`, false) {
		logits := make([]float32, tok.VocabSize())
		proc.ProcessLogits(logits)
		proc.OnSampledToken(id)
	}
	for _, id := range tok.Encode("bogus", false) {
		logits := make([]float32, tok.VocabSize())
		proc.ProcessLogits(logits)
		proc.OnSampledToken(id)
	}
	require.NotNil(t, proc.Err())

	logits := make([]float32, tok.VocabSize())
	for i := range logits {
		logits[i] = 10
	}
	out := proc.ProcessLogits(logits)

	eos, ok := tok.EOSTokenID()
	require.True(t, ok)
	assert.Greater(t, out[eos], float32(10))
	for i, v := range out {
		if int32(i) != eos {
			assert.False(t, math.IsInf(float64(v), -1))
		}
	}
}

func TestLogitProcessor_EmptyConstraintsSurfacedAtPrompt(t *testing.T) {
	schema := NewObject(map[string]*SchemaNode{})
	tok := vocabtok.New(nil, false)
	proc := NewLogitProcessor(schema, tok, nil, nil, nil, nil)

	err := proc.OnPrompt(nil)
	require.Error(t, err)
	assert.ErrorIs(t, proc.Err().Kind, ErrEmptyConstraints)
}
