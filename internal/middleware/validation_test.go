package middleware

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/eva-wellness/eva/pkg/logger"
)

func nopLogger() *logger.Logger {
	return logger.NewNop()
}

func TestValidateMessageContent(t *testing.T) {
	assert.NoError(t, ValidateMessageContent("hello"))
	assert.Error(t, ValidateMessageContent(""))
	assert.Error(t, ValidateMessageContent("  \n\t"))
	assert.Error(t, ValidateMessageContent(strings.Repeat("a", MaxMessageBytes+1)))
	assert.Error(t, ValidateMessageContent("bad \xff utf8"))
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID(uuid.NewString()))
	assert.Error(t, ValidateID("not-a-uuid"))
}
