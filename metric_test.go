package timeexecution_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	te "github.com/kpn-digital/timeexecution"
)

func TestNewMetricOrdering(t *testing.T) {
	m := te.NewMetric("cpu.load.1m", te.Fields{"value": 0.42, "core": 3, "name": "ignored"})

	assert.Equal(t, []string{"name", "core", "value"}, m.Keys())
	assert.Equal(t, "cpu.load.1m", m.Name())
	assert.Equal(t, "name=cpu.load.1m core=3 value=0.42", m.String())
}

func TestMetricSetKeepsPosition(t *testing.T) {
	var m te.Metric
	m.Set("name", "a")
	m.Set("value", 1)
	m.Set("name", "b")

	assert.Equal(t, []string{"name", "value"}, m.Keys())
	assert.Equal(t, "b", m.Name())
}

func TestMetricMerge(t *testing.T) {
	m := te.BuildMetric("a", 3*time.Millisecond, "host")
	m.Merge(te.Fields{"zeta": 1, "alpha": 2, "value": 7})

	assert.Equal(t, []string{"name", "value", "hostname", "alpha", "zeta"}, m.Keys())

	value, ok := m.Value()
	assert.True(t, ok)
	assert.Equal(t, 7, value)
}

func TestMetricDelete(t *testing.T) {
	m := te.NewMetric("a", te.Fields{"value": 1, "extra": true})
	m.Delete("extra")
	m.Delete("missing")

	assert.Equal(t, []string{"name", "value"}, m.Keys())
	assert.Equal(t, 2, m.Len())

	_, ok := m.Get("extra")
	assert.False(t, ok)
}

func TestMetricCloneIsIndependent(t *testing.T) {
	m := te.NewMetric("a", te.Fields{"value": 1})
	clone := m.Clone()
	clone.Set("value", 2)
	clone.Set("extra", true)

	value, _ := m.Value()
	assert.Equal(t, 1, value)
	assert.Equal(t, 2, m.Len())
}

func TestMetricPayload(t *testing.T) {
	m := te.NewMetric("a", te.Fields{"value": 1, "hostname": "h"})

	assert.Equal(t, te.Fields{"value": 1, "hostname": "h"}, m.Payload())
	assert.Equal(t, te.Fields{"name": "a", "value": 1, "hostname": "h"}, m.Fields())
}

func TestMetricValidate(t *testing.T) {
	valid := te.NewMetric("a", te.Fields{"value": 1.5})
	assert.NoError(t, valid.Validate())

	var empty te.Metric
	assert.ErrorIs(t, empty.Validate(), te.ErrInvalidMetric)

	noName := te.NewMetric("", te.Fields{"value": 1})
	assert.ErrorIs(t, noName.Validate(), te.ErrInvalidMetric)

	noValue := te.NewMetric("a", te.Fields{"other": 1})
	assert.ErrorIs(t, noValue.Validate(), te.ErrInvalidMetric)

	textValue := te.NewMetric("a", te.Fields{"value": "fast"})
	assert.ErrorIs(t, textValue.Validate(), te.ErrInvalidMetric)

	var badName te.Metric
	badName.Set("name", 12)
	badName.Set("value", 1)
	assert.ErrorIs(t, badName.Validate(), te.ErrInvalidMetric)
}

func TestBuildMetric(t *testing.T) {
	m := te.BuildMetric("pkg.hello", 1999*time.Microsecond, "host-1")

	assert.Equal(t, []string{"name", "value", "hostname"}, m.Keys())
	assert.Equal(t, te.Fields{"name": "pkg.hello", "value": int64(1), "hostname": "host-1"}, m.Fields())
}

func TestMilliseconds(t *testing.T) {
	assert.Equal(t, int64(0), te.Milliseconds(999*time.Microsecond))
	assert.Equal(t, int64(1), te.Milliseconds(time.Millisecond))
	assert.Equal(t, int64(1500), te.Milliseconds(1500*time.Millisecond+999*time.Microsecond))
}

func TestNumericConversions(t *testing.T) {
	f, ok := te.ToFloat64(uint64(1 << 63))
	assert.True(t, ok)
	assert.Equal(t, float64(1<<63), f)

	f, ok = te.ToFloat64(1500 * time.Microsecond)
	assert.True(t, ok)
	assert.Equal(t, 1.5, f)

	_, ok = te.ToInt64(uint64(1 << 63))
	assert.False(t, ok)

	i, ok := te.ToInt64(int16(-4))
	assert.True(t, ok)
	assert.Equal(t, int64(-4), i)

	assert.True(t, te.IsNumeric(float32(1)))
	assert.False(t, te.IsNumeric("1"))
	assert.False(t, te.IsNumeric(nil))
	assert.False(t, te.IsNumeric(true))
}
