//go:build tools

// Package tools pins the versions of the development tools run through go:generate and CI.
package tools

import (
	_ "golang.org/x/lint/golint"
	_ "golang.org/x/tools/cmd/stringer"
)
