package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanReply(t *testing.T) {
	assert.Equal(t, "a\nb", CleanReply("a\n\n\nb\n\n"))
	assert.Equal(t, "a\nb\nc", CleanReply("\n a\nb\n\nc "))
	assert.Equal(t, "", CleanReply("\n\n"))
}
