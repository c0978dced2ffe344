package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewBuildsConsoleLoggerByDefault(t *testing.T) {
	logger, err := New(Config{Level: "info"})
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestNewBuildsJSONLogger(t *testing.T) {
	logger, err := New(Config{Level: "debug", JSON: true})
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestNewRejectsInvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "not-a-level"})
	require.Error(t, err)
}
