package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_EmptyAddrDisables(t *testing.T) {
	c := New("", "", 0)
	assert.Nil(t, c)
	assert.False(t, c.Enabled())
}

func TestClient_DisabledIsSafe(t *testing.T) {
	var c *Client
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "user:1", []byte("x"), time.Minute))

	data, err := c.Get(ctx, "user:1")
	assert.NoError(t, err)
	assert.Nil(t, data)

	n, err := c.Incr(ctx, "rl:1", time.Minute)
	assert.NoError(t, err)
	assert.Zero(t, n)

	assert.NoError(t, c.Delete(ctx, "user:1"))
	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}

func TestClient_UnreachableFailsSafe(t *testing.T) {
	// Nothing listens on this port; every call degrades to a miss.
	c := New("127.0.0.1:1", "", 0)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	assert.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	data, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, data)
	assert.Error(t, c.Ping(ctx))
}
