// Package memory provides a backend keeping metrics in process memory. It is meant for tests and
// for inspecting what an application emits.
package memory

import (
	"context"
	"sync"

	te "github.com/kpn-digital/timeexecution"
)

// Record is a single metric as received by the backend.
type Record struct {
	Name   string
	Fields te.Fields
}

// Backend stores every written metric in order.
type Backend struct {
	records []Record
	err     error
	mutex   sync.Mutex
}

// New creates an empty memory backend.
func New() *Backend {
	return &Backend{}
}

// Write appends the metric to the recorded list, or fails with the error set by FailWith.
func (b *Backend) Write(ctx context.Context, name string, fields te.Fields) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.err != nil {
		return b.err
	}

	b.records = append(b.records, Record{Name: name, Fields: fields})

	return nil
}

// FailWith makes every subsequent write fail with err. A nil error restores normal operation.
func (b *Backend) FailWith(err error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.err = err
}

// Records returns the metrics written so far, oldest first.
func (b *Backend) Records() []Record {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return append([]Record(nil), b.records...)
}

// Last returns the most recently written metric.
func (b *Backend) Last() (Record, bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if len(b.records) == 0 {
		return Record{}, false
	}

	return b.records[len(b.records)-1], true
}

// Len returns the number of metrics written so far.
func (b *Backend) Len() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return len(b.records)
}

// Reset discards every recorded metric.
func (b *Backend) Reset() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.records = nil
}

func (b *Backend) String() string {
	return "memory"
}
