package timeexecution

import (
	"reflect"
	"runtime"
	"strings"
	"time"
)

// unknownName is used for timed calls whose function cannot be resolved to a symbol.
const unknownName = "unknown"

// BuildMetric assembles the base metric of a timed call: its name, its elapsed time in whole
// milliseconds (truncated), and the host it ran on.
func BuildMetric(name string, elapsed time.Duration, hostname string) Metric {
	var m Metric
	m.Set(NameField, name)
	m.Set(ValueField, Milliseconds(elapsed))
	m.Set(HostnameField, hostname)

	return m
}

// FuncName derives the qualified name of a function from its runtime symbol. The directory part of
// the import path is dropped, so a function hello in github.com/acme/app/greet is named
// "greet.hello". Method values lose their "-fm" suffix and generic type arguments collapse to
// "[...]". Anonymous functions keep the runtime naming, like "greet.Handler.func1".
func FuncName(fn interface{}) string {
	if fn == nil {
		return unknownName
	}

	value := reflect.ValueOf(fn)
	if value.Kind() != reflect.Func || value.IsNil() {
		return unknownName
	}

	f := runtime.FuncForPC(value.Pointer())
	if f == nil {
		return unknownName
	}

	return qualifiedName(f.Name())
}

// qualifiedName trims a runtime symbol name down to package.function form.
func qualifiedName(symbol string) string {
	symbol = strings.TrimSuffix(symbol, "-fm")

	// Type arguments may themselves contain slashes, so cut them out before looking at the
	// import path.
	if open := strings.Index(symbol, "["); open >= 0 {
		if end := strings.LastIndex(symbol, "]"); end > open {
			symbol = symbol[:open] + "[...]" + symbol[end+1:]
		}
	}

	if slash := strings.LastIndex(symbol, "/"); slash >= 0 {
		symbol = symbol[slash+1:]
	}

	if symbol == "" {
		return unknownName
	}

	return symbol
}
