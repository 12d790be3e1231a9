package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "hello", FormatValue("hello"))
	assert.Equal(t, "true", FormatValue(true))
	assert.Equal(t, "{\n  \"level\": 50\n}", FormatValue(map[string]any{"level": 50}))
	assert.Equal(t, "[\n  \"a\",\n  \"b\"\n]", FormatValue([]string{"a", "b"}))
}
