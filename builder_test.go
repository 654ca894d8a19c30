package schemaguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilder_ObjArrStr(t *testing.T) {
	node := Obj(
		Prop("name", Str()),
		Prop("age", Int()),
		Prop("tags", Arr(Str())),
		Req("name", "age"),
	)

	assert.Equal(t, KindObject, node.Kind)
	assert.True(t, node.IsRequired("name"))
	assert.True(t, node.IsRequired("age"))
	assert.False(t, node.IsRequired("tags"))

	tags, ok := node.Child("tags")
	assert.True(t, ok)
	assert.Equal(t, KindArray, tags.Kind)
	assert.Equal(t, KindString, tags.Element().Kind)
}

func TestBuilder_Leaves(t *testing.T) {
	assert.Equal(t, KindString, Str().Kind)
	assert.Equal(t, KindInteger, Int().Kind)
	assert.Equal(t, KindNumber, Num().Kind)
	assert.Equal(t, KindBoolean, Bool().Kind)
	assert.Equal(t, KindNull, Null().Kind)
	assert.Equal(t, KindAny, Any().Kind)
}
