package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	logger, err := New(Config{Level: "debug", Development: true})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewOrNop(t *testing.T) {
	assert.NotNil(t, NewOrNop(Config{Level: "loud"}))
	assert.NotNil(t, NewOrNop(DefaultConfig()))
}
