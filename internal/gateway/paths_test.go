package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopedPath(t *testing.T) {
	assert.Equal(t, "tenant1/config", ScopedPath("tenant1", "/config"))
	assert.Equal(t, "tenant1/config", ScopedPath("tenant1", "config"))
	assert.Equal(t, "tenant1/features", ScopedPath("tenant1", "/features"))
	assert.Equal(t, "tenant1", ScopedPath("tenant1", ""))
	assert.Equal(t, "tenant1", ScopedPath("tenant1", "/"))
}
