package statsd

import (
	"context"
	"net"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	te "github.com/kpn-digital/timeexecution"
)

// listen opens a loopback UDP socket standing in for a statsd server.
func listen(t *testing.T) net.PacketConn {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

// receive reads count statsd lines from conn.
func receive(t *testing.T, conn net.PacketConn, count int) []string {
	buf := make([]byte, 1024)
	lines := make([]string, 0, count)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for len(lines) < count {
		n, _, err := conn.ReadFrom(buf)
		require.NoError(t, err)
		lines = append(lines, string(buf[:n]))
	}

	return lines
}

func TestBackendWritesTimingAndFieldGauges(t *testing.T) {
	conn := listen(t)
	client, err := NewClient(conn.LocalAddr().String(), "app", map[string]string{"env": "test"}, 0)
	require.NoError(t, err)

	b := New(client)
	defer b.Close()

	err = b.Write(context.Background(), "pkg.hello", te.Fields{
		"value":    int64(3),
		"hostname": "h",
		"cached":   true,
		"size":     1.5,
	})
	assert.NoError(t, err)

	lines := receive(t, conn, 2)
	sort.Strings(lines)
	assert.Equal(t, []string{
		"app.pkg.hello,cached=true,env=test,hostname=h:3|ms",
		"app.pkg.hello.size,cached=true,env=test,hostname=h:1.5|g",
	}, lines)
}

func TestBackendWritesFloatValueAsGauge(t *testing.T) {
	conn := listen(t)
	client, err := NewClient(conn.LocalAddr().String(), "", nil, 1)
	require.NoError(t, err)

	b := New(client)
	defer b.Close()

	assert.NoError(t, b.Write(context.Background(), "cpu.load.1m", te.Fields{"value": 0.42}))
	assert.Equal(t, []string{"cpu.load.1m:0.42|g"}, receive(t, conn, 1))
}

func TestBackendRejectsNonNumericValue(t *testing.T) {
	conn := listen(t)
	client, err := NewClient(conn.LocalAddr().String(), "", nil, 1)
	require.NoError(t, err)

	b := New(client)
	defer b.Close()

	assert.Error(t, b.Write(context.Background(), "a", te.Fields{"value": "slow"}))
}

func TestFormatMetric(t *testing.T) {
	c := &Client{defaultTags: map[string]string{"host": "a", "env": "prod"}}

	assert.Equal(t, "a%3Ab", (&Client{}).formatMetric("a:b", nil))
	assert.Equal(t, "m,env=prod,host=b", c.formatMetric("m", map[string]string{"host": "b"}))
}
