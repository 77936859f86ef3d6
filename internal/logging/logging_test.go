package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ServiceFieldOnEveryEntry(t *testing.T) {
	logger := New("crypto-tracker")

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithField("coin_id", "bitcoin").Info("added to watchlist")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "crypto-tracker", entry["service"])
	assert.Equal(t, "bitcoin", entry["coin_id"])
}

func TestNew_LevelFromEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	assert.Equal(t, logrus.DebugLevel, New("test").GetLevel())

	t.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, logrus.WarnLevel, New("test").GetLevel())

	t.Setenv("LOG_LEVEL", "")
	assert.Equal(t, logrus.InfoLevel, New("test").GetLevel())
}
