package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleArgs struct {
	A string `json:"a" description:"Field A"`
	B *int   `json:"b" description:"Optional pointer field"`
	C int    `json:"c,omitempty" description:"Omit empty field"`
}

func TestCreate(t *testing.T) {
	s := Create(sampleArgs{})
	props, ok := s["properties"].(map[string]any)
	assert.True(t, ok)
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")
	assert.Contains(t, props, "c")

	aProp := props["a"].(map[string]any)
	assert.Equal(t, "string", aProp["type"])
	assert.Equal(t, "Field A", aProp["description"])

	req, _ := s["required"].([]string)
	assert.ElementsMatch(t, []string{"a"}, req)
}

func TestValidate(t *testing.T) {
	s := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "integer"},
			"y": map[string]any{"type": "string"},
		},
		// []any mirrors a JSON-decoded schema shape.
		"required": []any{"x"},
	}

	assert.NoError(t, Validate(map[string]any{"x": 5}, s))

	// JSON numbers arrive as float64; integral values pass.
	assert.NoError(t, Validate(map[string]any{"x": float64(5)}, s))
	assert.Error(t, Validate(map[string]any{"x": 5.5}, s))

	err := Validate(map[string]any{}, s)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "x", vErr.Field)

	err = Validate(map[string]any{"x": "not-int"}, s)
	assert.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Message, "expected type integer")

	// Extra fields are allowed.
	assert.NoError(t, Validate(map[string]any{"x": 1, "extra": true}, s))
}
