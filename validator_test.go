package schemaguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_FlatObjectWithinKeyClosure(t *testing.T) {
	schema := Obj(Prop("name", Str()), Prop("age", Int()))
	result := Validate(`{"name":"Ada","age":36}`, schema)
	assert.True(t, result.Valid)
}

func TestValidate_RejectsUndeclaredKey(t *testing.T) {
	schema := Obj(Prop("name", Str()))
	result := Validate(`{"name":"Ada","extra":true}`, schema)
	require.False(t, result.Valid)
	assert.ErrorIs(t, result.Err.Kind, ErrSchemaViolation)
	assert.Contains(t, result.Err.Detail, "extra")
}

func TestValidate_RecursesIntoNestedObject(t *testing.T) {
	user := Obj(Prop("firstName", Str()))
	schema := Obj(Prop("user", user))

	result := Validate(`{"user":{"firstName":"Ada","lastName":"Lovelace"}}`, schema)
	require.False(t, result.Valid)
	assert.Contains(t, result.Err.Detail, "lastName")
}

func TestValidate_RecursesIntoArrayElements(t *testing.T) {
	item := Obj(Prop("id", Int()))
	schema := Obj(Prop("items", Arr(item)))

	result := Validate(`{"items":[{"id":1},{"id":2,"bogus":true}]}`, schema)
	require.False(t, result.Valid)
	assert.Contains(t, result.Err.Detail, "bogus")
}

func TestValidate_UnknownFrameSkipsKeyClosure(t *testing.T) {
	schema := Obj(Prop("payload", Any()))
	result := Validate(`{"payload":{"anything":true,"goes":"here"}}`, schema)
	assert.True(t, result.Valid)
}

func TestValidate_InvalidJSONFails(t *testing.T) {
	schema := Obj(Prop("name", Str()))
	result := Validate(`{"name":`, schema)
	require.False(t, result.Valid)
	assert.ErrorIs(t, result.Err.Kind, ErrSchemaViolation)
}
