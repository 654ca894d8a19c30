package tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokentrie/schemaguard"
	"github.com/tokentrie/schemaguard/pkg/vocabtok"
)

// Scenario 1: flat schema, all required. The generated output must parse
// as a JSON object whose key set is exactly {name, age, email}.
func TestScenario_FlatSchemaAllRequired(t *testing.T) {
	schema := schemaguard.Obj(
		schemaguard.Prop("name", schemaguard.Str()),
		schemaguard.Prop("age", schemaguard.Int()),
		schemaguard.Prop("email", schemaguard.Str()),
		schemaguard.Req("name", "age", "email"),
	)
	text := `{"name":"Grace","age":34,"email":"grace@example.com"}`

	proc, _ := driveToCompletion(t, schema, []string{"name", "age", "email"}, text)
	require.Nil(t, proc.Err())

	result := schemaguard.Validate(text, schema)
	require.True(t, result.Valid)
}

// Scenario 1 (strengthened): the guarantee that the key set is exactly
// {name, age, email} is not just a property of the hand-built replay above —
// the mask itself must never offer `}` before every required key has been
// emitted, and must never offer an already-emitted key a second time.
func TestScenario_FlatSchemaRequiredKeysGateEarlyCloseAndDuplicates(t *testing.T) {
	schema := schemaguard.Obj(
		schemaguard.Prop("name", schemaguard.Str()),
		schemaguard.Prop("age", schemaguard.Int()),
		schemaguard.Prop("email", schemaguard.Str()),
		schemaguard.Req("name", "age", "email"),
	)
	tok := vocabtok.New([]string{"name", "age", "email", "34"}, true)
	proc := schemaguard.NewLogitProcessor(schema, tok, nil, nil, nil, nil)
	require.NoError(t, proc.OnPrompt(nil))

	closeID := tok.Encode("}", true)[0]
	nameID := tok.Encode("name", true)[0]
	ageID := tok.Encode("age", true)[0]

	feedText(proc, tok, `{`)
	require.Nil(t, proc.Err())
	allowed := allowedTokenSet(proc, tok.VocabSize())
	assert.False(t, allowed[closeID], "`}` must not be offered before any required key is emitted")

	feedText(proc, tok, `"name":"x",`)
	require.Nil(t, proc.Err())
	allowed = allowedTokenSet(proc, tok.VocabSize())
	assert.False(t, allowed[nameID], "an already-emitted key must not be offered again")
	assert.False(t, allowed[closeID], "`}` must not be offered while required keys remain outstanding")

	feedText(proc, tok, `"age":34,`)
	require.Nil(t, proc.Err())
	allowed = allowedTokenSet(proc, tok.VocabSize())
	assert.False(t, allowed[nameID], "name must stay excluded after the second key")
	assert.False(t, allowed[ageID], "age must not be offered again once emitted")
	assert.False(t, allowed[closeID], "`}` must not be offered with email still outstanding")

	feedText(proc, tok, `"email":"y"`)
	require.Nil(t, proc.Err())
	allowed = allowedTokenSet(proc, tok.VocabSize())
	assert.True(t, allowed[closeID], "`}` must be offered once every required key has been emitted")

	feedText(proc, tok, `}`)
	require.Nil(t, proc.Err())
}
