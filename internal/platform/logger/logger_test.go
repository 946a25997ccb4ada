package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVs_RedactsSecrets(t *testing.T) {
	got := sanitizeKVs([]interface{}{"mysql_dsn", "root:root@tcp(db)/x", "batch_id", "b-1", "dangling"})
	assert.Equal(t, []interface{}{"mysql_dsn", "[REDACTED]", "batch_id", "b-1", "dangling"}, got)
}

func TestLogger_WithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("service", "SerialService").Info("batch generated", "quantity", 3, "password", "hunter2")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "SerialService", fields["service"])
		assert.Equal(t, int64(3), fields["quantity"])
		assert.Equal(t, "[REDACTED]", fields["password"])
	}
}

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"dev", "prod"} {
		l, err := New(mode)
		assert.NoError(t, err)
		assert.NotNil(t, l)
	}
}
