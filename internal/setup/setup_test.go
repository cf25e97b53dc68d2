package setup

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	te "github.com/kpn-digital/timeexecution"
	"github.com/kpn-digital/timeexecution/internal/meta"
	"github.com/kpn-digital/timeexecution/log"
)

func parse(t *testing.T, data string) *meta.Config {
	cfg, err := meta.Parse([]byte(data))
	require.NoError(t, err)

	return cfg
}

func TestBuildPipeline(t *testing.T) {
	listener, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	cfg := parse(t, `
application:
  hostname: web-1
backends:
  log:
    level: info
  statsd:
    addr: `+listener.LocalAddr().String()+`
  prometheus:
    namespace: app
  async:
    queue_size: 8
hooks:
  static:
    env: prod
  status: true
`)

	var buf bytes.Buffer
	p, err := Build(context.Background(), cfg, log.NewWriterLogger(log.Info, &buf))
	require.NoError(t, err)

	assert.Len(t, p.Config.Backends(), 3)
	assert.Len(t, p.Config.Hooks(), 2)
	assert.Equal(t, "web-1", p.Config.Hostname())
	assert.NotNil(t, p.Registry)
	assert.Nil(t, p.Exporter)
	assert.Equal(t, "pipeline: backends=3 hooks=2", p.String())

	greeting, err := te.Wrap(func() (string, error) {
		return "World", nil
	}, te.WithConfig(p.Config), te.WithName("pkg.hello"))()
	require.NoError(t, err)
	assert.Equal(t, "World", greeting)

	count, err := testutil.GatherAndCount(p.Registry, "app_writes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Close(ctx))

	// The statsd line went through the queue before Close returned.
	packet := make([]byte, 512)
	require.NoError(t, listener.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := listener.ReadFrom(packet)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(packet[:n]), "pkg.hello,"))

	assert.Contains(t, buf.String(), "metric: pkg.hello env=prod hostname=web-1 status=ok value=")
}

func TestBuildAllBackends(t *testing.T) {
	cfg := parse(t, `
backends:
  prometheus:
    addr: 127.0.0.1:0
  otel:
    endpoint: 127.0.0.1:4318
    insecure: true
  influxdb:
    url: http://127.0.0.1:8086
    bucket: metrics
  elasticsearch:
    addrs: [http://127.0.0.1:9200]
    index: metrics
hooks:
  error_fields: true
  http_status: true
`)

	p, err := Build(context.Background(), cfg, log.NewNopLogger())
	require.NoError(t, err)

	assert.Len(t, p.Config.Backends(), 4)
	assert.Len(t, p.Config.Hooks(), 2)
	assert.NotNil(t, p.Exporter)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = p.Close(ctx)
}

func TestBuildWithoutBackends(t *testing.T) {
	p, err := Build(context.Background(), parse(t, ""), log.NewNopLogger())
	require.NoError(t, err)

	assert.Empty(t, p.Config.Backends())
	assert.Empty(t, p.Config.Hooks())
	assert.NoError(t, p.Close(context.Background()))
}

func TestBuildRejectsInvalidSentryDSN(t *testing.T) {
	_, err := Build(context.Background(), parse(t, "application: {sentry_dsn: not-a-dsn}"), log.NewNopLogger())
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	NewLogger("json", log.Info, &buf).Info("hello %s", "json")
	assert.Contains(t, buf.String(), `"message":"hello json"`)

	buf.Reset()
	NewLogger("console", log.Info, &buf).Info("hello %s", "console")
	assert.Contains(t, buf.String(), "INFO\thello console")
}
