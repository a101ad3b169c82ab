package idgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithPrefix(t *testing.T) {
	prev := NewFunc
	defer func() { NewFunc = prev }()
	NewFunc = func() string { return "fixed" }

	assert.Equal(t, "fixed", New())
	assert.Equal(t, "timer-fixed", NewWithPrefix("timer"))
	assert.Equal(t, "fixed", NewWithPrefix(""))

	NewFunc = prev
	id := NewWithPrefix("mail")
	assert.True(t, strings.HasPrefix(id, "mail-"))
	assert.NotEqual(t, id, NewWithPrefix("mail"))
}
