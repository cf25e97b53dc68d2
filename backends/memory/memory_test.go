package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	te "github.com/kpn-digital/timeexecution"
)

func TestBackendRecordsInOrder(t *testing.T) {
	b := New()

	assert.NoError(t, b.Write(context.Background(), "a", te.Fields{"value": 1}))
	assert.NoError(t, b.Write(context.Background(), "b", te.Fields{"value": 2}))

	records := b.Records()
	assert.Len(t, records, 2)
	assert.Equal(t, "a", records[0].Name)
	assert.Equal(t, "b", records[1].Name)
	assert.Equal(t, 2, records[1].Fields["value"])

	last, ok := b.Last()
	assert.True(t, ok)
	assert.Equal(t, "b", last.Name)
}

func TestBackendFailWith(t *testing.T) {
	b := New()
	boom := errors.New("boom")

	b.FailWith(boom)
	assert.Equal(t, boom, b.Write(context.Background(), "a", te.Fields{"value": 1}))
	assert.Equal(t, 0, b.Len())

	b.FailWith(nil)
	assert.NoError(t, b.Write(context.Background(), "a", te.Fields{"value": 1}))
	assert.Equal(t, 1, b.Len())
}

func TestBackendReset(t *testing.T) {
	b := New()
	assert.NoError(t, b.Write(context.Background(), "a", te.Fields{"value": 1}))

	b.Reset()

	_, ok := b.Last()
	assert.False(t, ok)
	assert.Equal(t, 0, b.Len())
}
