package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0., Clamp(-1., 0, 1))
	assert.Equal(t, 1., Clamp(2., 0, 1))
	assert.Equal(t, 5, Clamp(5, 0, 10))
	assert.Equal(t, 3, Max(3, 2))
	assert.Equal(t, 2, Min(3, 2))
}
