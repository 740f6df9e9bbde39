package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombine(t *testing.T) {
	assert.NoError(t, Combine(nil, nil))

	first := errors.New("first")
	err := Combine(nil, first, errors.New("second"))
	assert.ErrorIs(t, err, first)
	assert.Contains(t, err.Error(), "second")
}

func TestNewError(t *testing.T) {
	assert.Equal(t, "port 0 invalid\n", NewError("port", 0, "invalid").Error())
	assert.Equal(t, "port 0", NewErrorf("port %d", 0).Error())
}

func TestRecover(t *testing.T) {
	assert.NotPanics(t, func() {
		defer Recover("worker")
		panic("boom")
	})
}
