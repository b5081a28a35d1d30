package widget

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendLines(t *testing.T) {
	lines := appendLines(nil, "first\n", 3)
	assert.Equal(t, []string{"first"}, lines)

	lines = appendLines(lines, "", 3)
	assert.Equal(t, []string{"first"}, lines)

	lines = appendLines(lines, "second\nthird\nfourth\n", 3)
	assert.Equal(t, []string{"second", "third", "fourth"}, lines)
}

func TestAppendLinesBounded(t *testing.T) {
	var lines []string
	for i := 0; i < 10*debugMaxLines; i++ {
		lines = appendLines(lines, fmt.Sprintf("line %d\n", i), debugMaxLines)
	}

	assert.Len(t, lines, debugMaxLines)
	assert.Equal(t, fmt.Sprintf("line %d", 10*debugMaxLines-1), lines[len(lines)-1])
	assert.Equal(t, fmt.Sprintf("line %d", 9*debugMaxLines), lines[0])
}
