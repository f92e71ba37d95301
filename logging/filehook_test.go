package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileHookWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	hook, err := NewLogrusFileHook(path, logrus.InfoLevel)
	require.NoError(t, err)
	defer hook.Close()

	log := logrus.New()
	log.Out = io.Discard
	log.Level = logrus.DebugLevel
	log.Hooks.Add(hook)

	log.WithField("module", "test").Info("first")
	log.Debug("skipped")
	log.Warn("second")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, jsoniter.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "first", entry["msg"])
	assert.Equal(t, "test", entry["module"])
	assert.Equal(t, "info", entry["level"])
}
