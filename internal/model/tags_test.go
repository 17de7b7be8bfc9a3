package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "single", raw: "errands", want: []string{"errands"}},
		{name: "comma separated with spaces", raw: "work, home ,ideas", want: []string{"work", "home", "ideas"}},
		{name: "empty entries dropped", raw: ",a,, ,b,", want: []string{"a", "b"}},
		{name: "duplicates removed", raw: "a,b,a", want: []string{"a", "b"}},
		{name: "case sensitive", raw: "Work,work", want: []string{"Work", "work"}},
		{name: "empty", raw: "", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTags(tt.raw))
		})
	}
}

func TestNote_MarshalJSON(t *testing.T) {
	note := Note{ID: "n1", UserID: "u1", Title: "Grocery List", Tags: []string{"errands", "home"}}

	data, err := json.Marshal(note)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "n1", decoded["_id"])
	assert.Equal(t, "u1", decoded["user"])
	assert.Equal(t, "errands, home", decoded["tag"])
	assert.Equal(t, []any{"errands", "home"}, decoded["tags"])
	assert.Equal(t, []any{}, decoded["todoItems"])
}

func TestUser_PasswordHashNotSerialized(t *testing.T) {
	data, err := json.Marshal(User{ID: "u1", Email: "a@b.co", PasswordHash: "secret-hash"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret-hash")
}
