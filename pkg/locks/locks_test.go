package locks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLockExcludesSameKey(t *testing.T) {
	locker := NewMemory()

	release, ok, err := locker.TryLock(context.Background(), "user-1")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.TryLock(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, ok)

	release()

	release2, ok, err := locker.TryLock(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, ok)
	release2()
}

func TestMemoryLockIndependentKeys(t *testing.T) {
	locker := NewMemory()

	r1, ok, err := locker.TryLock(context.Background(), "user-1")
	require.NoError(t, err)
	require.True(t, ok)
	defer r1()

	r2, ok, err := locker.TryLock(context.Background(), "user-2")
	require.NoError(t, err)
	assert.True(t, ok)
	r2()
}
