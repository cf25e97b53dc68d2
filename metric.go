package timeexecution

import (
	"fmt"
	"sort"
	"strings"
)

// Names of the fields every timed metric starts out with.
const (
	NameField     = "name"
	ValueField    = "value"
	HostnameField = "hostname"
)

// Fields is a set of named metric values. Hooks return Fields to change a metric, and backends
// receive the metric payload as Fields.
type Fields map[string]interface{}

// Clone returns a shallow copy of the fields.
func (f Fields) Clone() Fields {
	clone := make(Fields, len(f))
	for key, value := range f {
		clone[key] = value
	}

	return clone
}

// SortedKeys returns the field names in lexical order.
func (f Fields) SortedKeys() []string {
	keys := make([]string, 0, len(f))
	for key := range f {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}

// Metric is an insertion-ordered record of field values describing one observed event. The zero
// value is an empty metric ready to use.
type Metric struct {
	keys   []string
	values map[string]interface{}
}

// NewMetric creates a metric holding name followed by fields in lexical key order. A name key
// inside fields is ignored; the name argument is authoritative.
func NewMetric(name string, fields Fields) Metric {
	var m Metric
	m.Set(NameField, name)

	for _, key := range fields.SortedKeys() {
		if key == NameField {
			continue
		}
		m.Set(key, fields[key])
	}

	return m
}

// Set assigns a field. New fields are appended; existing fields keep their position.
func (m *Metric) Set(key string, value interface{}) {
	if m.values == nil {
		m.values = make(map[string]interface{})
	}

	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get reads a field.
func (m Metric) Get(key string) (interface{}, bool) {
	value, ok := m.values[key]
	return value, ok
}

// Delete removes a field, if present.
func (m *Metric) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}

	delete(m.values, key)
	for idx, existing := range m.keys {
		if existing == key {
			m.keys = append(m.keys[:idx:idx], m.keys[idx+1:]...)
			break
		}
	}
}

// Merge applies fields on top of the metric. Keys already present are overwritten in place; new
// keys are appended in lexical order.
func (m *Metric) Merge(fields Fields) {
	for _, key := range fields.SortedKeys() {
		m.Set(key, fields[key])
	}
}

// Keys returns the field names in insertion order.
func (m Metric) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)

	return keys
}

// Len returns the number of fields.
func (m Metric) Len() int {
	return len(m.keys)
}

// Name returns the series name, or the empty string if it is absent or not a string.
func (m Metric) Name() string {
	name, _ := m.values[NameField].(string)
	return name
}

// Value returns the value field.
func (m Metric) Value() (interface{}, bool) {
	return m.Get(ValueField)
}

// Clone returns an independent copy of the metric.
func (m Metric) Clone() Metric {
	clone := Metric{
		keys:   make([]string, len(m.keys)),
		values: make(map[string]interface{}, len(m.values)),
	}
	copy(clone.keys, m.keys)
	for key, value := range m.values {
		clone.values[key] = value
	}

	return clone
}

// Fields returns every field, including the name.
func (m Metric) Fields() Fields {
	fields := make(Fields, len(m.values))
	for key, value := range m.values {
		fields[key] = value
	}

	return fields
}

// Payload returns every field except the name. This is what backends receive.
func (m Metric) Payload() Fields {
	payload := m.Fields()
	delete(payload, NameField)

	return payload
}

// Validate checks the metric can be dispatched: name must be a non-empty string and value must be
// present and numeric.
func (m Metric) Validate() error {
	name, ok := m.values[NameField]
	if !ok {
		return fmt.Errorf("%w: missing %s field", ErrInvalidMetric, NameField)
	}

	if s, isString := name.(string); !isString || s == "" {
		return fmt.Errorf("%w: %s must be a non-empty string: %s=%v", ErrInvalidMetric, NameField, NameField, name)
	}

	value, ok := m.values[ValueField]
	if !ok {
		return fmt.Errorf("%w: missing %s field: name=%s", ErrInvalidMetric, ValueField, m.Name())
	}

	if !IsNumeric(value) {
		return fmt.Errorf("%w: %s must be numeric: name=%s %s=%v", ErrInvalidMetric, ValueField, m.Name(), ValueField, value)
	}

	return nil
}

// String renders the metric as space-separated key=value pairs in insertion order.
func (m Metric) String() string {
	pairs := make([]string, 0, len(m.keys))
	for _, key := range m.keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", key, m.values[key]))
	}

	return strings.Join(pairs, " ")
}
