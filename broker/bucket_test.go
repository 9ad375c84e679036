package broker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenBucketBurstThenDrop(t *testing.T) {
	b := newTokenBucket(1, 3)
	require.True(t, b.take())
	require.True(t, b.take())
	require.True(t, b.take())
	require.False(t, b.take())
}

func TestTokenBucketRefillsOverTime(t *testing.T) {
	b := newTokenBucket(1000, 1)
	require.True(t, b.take())
	require.False(t, b.take())
	time.Sleep(5 * time.Millisecond)
	require.True(t, b.take())
}
