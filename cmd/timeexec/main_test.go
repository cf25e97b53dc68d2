package main

import (
	"bytes"
	"testing"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	te "github.com/kpn-digital/timeexecution"
	"github.com/kpn-digital/timeexecution/backends/prometheus"
	"github.com/kpn-digital/timeexecution/internal/setup"
	"github.com/kpn-digital/timeexecution/log"
)

func TestParseNumber(t *testing.T) {
	value, ok := parseNumber("42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), value)

	value, ok = parseNumber("0.42")
	assert.True(t, ok)
	assert.Equal(t, 0.42, value)

	_, ok = parseNumber("fast")
	assert.False(t, ok)
}

func TestParseFields(t *testing.T) {
	fields, err := parseFields([]string{"core=3", "load=0.5", "cached=true", "env=prod", "note=a=b"})
	require.NoError(t, err)

	assert.Equal(t, te.Fields{
		"core":   int64(3),
		"load":   0.5,
		"cached": true,
		"env":    "prod",
		"note":   "a=b",
	}, fields)
}

func TestParseFieldsRejectsMalformed(t *testing.T) {
	_, err := parseFields([]string{"novalue"})
	assert.Error(t, err)

	_, err = parseFields([]string{"=x"})
	assert.Error(t, err)

	_, err = parseFields([]string{"value=1"})
	assert.Error(t, err)
}

func TestWarnUnexported(t *testing.T) {
	registry := promclient.NewRegistry()
	unserved := &setup.Pipeline{Registry: registry}
	served := &setup.Pipeline{
		Registry: registry,
		Exporter: prometheus.NewExporter("127.0.0.1:0", "/metrics", registry, registry, log.NewNopLogger()),
	}

	var buf bytes.Buffer
	warnUnexported(&setup.Pipeline{}, "write", log.NewWriterLogger(log.Warn, &buf))
	assert.Empty(t, buf.String())

	buf.Reset()
	warnUnexported(served, "exec", log.NewWriterLogger(log.Warn, &buf))
	assert.Contains(t, buf.String(), "only exported by the load command; discarding them: command=exec")

	buf.Reset()
	warnUnexported(unserved, "load", log.NewWriterLogger(log.Warn, &buf))
	assert.Contains(t, buf.String(), "prometheus backend has no listening address")

	buf.Reset()
	warnUnexported(served, "load", log.NewWriterLogger(log.Warn, &buf))
	assert.Empty(t, buf.String())
}
