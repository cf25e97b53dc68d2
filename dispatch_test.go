package timeexecution_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	te "github.com/kpn-digital/timeexecution"
	"github.com/kpn-digital/timeexecution/backends/memory"
)

func TestDispatchGivesEachBackendItsOwnPayload(t *testing.T) {
	mutating := te.BackendFunc(func(ctx context.Context, name string, fields te.Fields) error {
		fields["value"] = -1
		fields["injected"] = true
		return nil
	})
	backend := memory.New()
	config, _ := newTestConfig([]te.Backend{mutating, backend}, nil)

	metric := te.NewMetric("a", te.Fields{"value": 1})
	assert.NoError(t, te.NewDispatcher(config).Dispatch(context.Background(), metric))

	record, ok := backend.Last()
	require.True(t, ok)
	assert.Equal(t, te.Fields{"value": 1}, record.Fields)

	value, _ := metric.Value()
	assert.Equal(t, 1, value)
}

func TestDispatchRefusesInvalidMetric(t *testing.T) {
	backend := memory.New()
	config, reporter := newTestConfig([]te.Backend{backend}, nil)

	err := config.Dispatch(context.Background(), te.NewMetric("a", te.Fields{"value": "slow"}))
	assert.ErrorIs(t, err, te.ErrInvalidMetric)
	assert.Equal(t, 0, backend.Len())

	reports := reporter.all()
	require.Len(t, reports, 1)
	assert.ErrorIs(t, reports[0].err, te.ErrInvalidMetric)
}

func TestDispatchRecoversPanickingBackend(t *testing.T) {
	panicking := te.BackendFunc(func(ctx context.Context, name string, fields te.Fields) error {
		panic("backend exploded")
	})
	backend := memory.New()
	config, reporter := newTestConfig([]te.Backend{panicking, nil, backend}, nil)

	assert.NoError(t, config.WriteMetric(context.Background(), "a", te.Fields{"value": 1}))
	assert.Equal(t, 1, backend.Len())

	reports := reporter.all()
	require.Len(t, reports, 2)

	var panicErr *te.PanicError
	require.ErrorAs(t, reports[0].err, &panicErr)
	assert.Equal(t, "backend exploded", panicErr.Value)
	assert.Equal(t, "dispatch", reports[0].tags["stage"])
}

func TestDispatchTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	blocking := te.BackendFunc(func(ctx context.Context, name string, fields te.Fields) error {
		<-release
		return nil
	})
	backend := memory.New()
	config, reporter := newTestConfig([]te.Backend{blocking, backend}, nil, te.WithDispatchTimeout(20*time.Millisecond))

	start := time.Now()
	assert.NoError(t, config.WriteMetric(context.Background(), "a", te.Fields{"value": 1}))
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 1, backend.Len())

	reports := reporter.all()
	require.Len(t, reports, 1)
	assert.ErrorIs(t, reports[0].err, context.DeadlineExceeded)
}

func TestDispatchReportsBackendError(t *testing.T) {
	unavailable := errors.New("unavailable")
	broken := memory.New()
	broken.FailWith(unavailable)
	config, reporter := newTestConfig([]te.Backend{broken}, nil)

	assert.NoError(t, config.WriteMetric(context.Background(), "a", te.Fields{"value": 1}))

	reports := reporter.all()
	require.Len(t, reports, 1)
	assert.ErrorIs(t, reports[0].err, unavailable)
	assert.Equal(t, "memory", reports[0].tags["backend"])
	assert.Equal(t, "a", reports[0].tags["metric"])
	assert.EqualError(t, reports[0].err, "dispatch: error writing metric: backend=memory metric=a err=unavailable")
}
