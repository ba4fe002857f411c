package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"events-social-network/logging"
)

func TestConfigure_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logrus.New()
	require.NoError(t, logging.Configure(log, "debug", "json", &buf))

	log.WithField("request_id", "r1").Debug("request excluded")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request excluded", entry["msg"])
	assert.Equal(t, "r1", entry["request_id"])
	assert.Equal(t, "debug", entry["level"])
}

func TestConfigure_LevelFilters(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logrus.New()
	require.NoError(t, logging.Configure(log, "warn", "text", &buf))

	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestConfigure_Invalid(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	assert.Error(t, logging.Configure(logrus.New(), "loud", "text", &buf))
	assert.Error(t, logging.Configure(logrus.New(), "info", "xml", &buf))
}
