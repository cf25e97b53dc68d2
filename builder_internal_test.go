package timeexecution

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualifiedName(t *testing.T) {
	assert.Equal(t, "main.main", qualifiedName("main.main"))
	assert.Equal(t, "greet.hello", qualifiedName("github.com/acme/app/greet.hello"))
	assert.Equal(t, "greet.(*Server).Handle", qualifiedName("github.com/acme/app/greet.(*Server).Handle-fm"))
	assert.Equal(t, "greet.Map[...]", qualifiedName("github.com/acme/app/greet.Map[go.shape.*github.com/acme/app/model.User]"))
	assert.Equal(t, "unknown", qualifiedName(""))
}
