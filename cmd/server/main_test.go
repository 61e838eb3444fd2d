package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShutdownGraceCoversBothPasses(t *testing.T) {
	assert.Equal(t, 2*time.Minute+5*time.Second, shutdownGrace(time.Minute))
	assert.Equal(t, 5*time.Second, shutdownGrace(0))
}
