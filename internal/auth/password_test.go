package auth_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/isdelr/splinter-be/internal/auth"
)

func TestBcryptDigest_Hash(t *testing.T) {
	digest := auth.NewBcryptDigest(bcrypt.MinCost)

	t.Run("produces bcrypt digest", func(t *testing.T) {
		hash, err := digest.Hash("longpassword")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$2a$"))
		assert.Len(t, hash, 60)
	})

	t.Run("same secret produces different digests (salt)", func(t *testing.T) {
		h1, err := digest.Hash("samepassword")
		require.NoError(t, err)
		h2, err := digest.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, h1, h2)
	})

	t.Run("out of range cost falls back to default", func(t *testing.T) {
		hash, err := auth.NewBcryptDigest(99).Hash("longpassword")
		require.NoError(t, err)
		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, bcrypt.DefaultCost, cost)
	})
}

func TestBcryptDigest_Verify(t *testing.T) {
	digest := auth.NewBcryptDigest(bcrypt.MinCost)
	hash, err := digest.Hash("correctpassword")
	require.NoError(t, err)

	assert.True(t, digest.Verify("correctpassword", hash))
	assert.False(t, digest.Verify("wrongpassword", hash))
	assert.False(t, digest.Verify("", hash))

	t.Run("malformed digests never match", func(t *testing.T) {
		for _, bad := range []string{"", "not-a-hash", "$2a$10$short", "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA"} {
			assert.NotPanics(t, func() {
				assert.False(t, digest.Verify("correctpassword", bad))
			})
		}
	})

	t.Run("digests from other costs verify", func(t *testing.T) {
		other, err := auth.NewBcryptDigest(bcrypt.MinCost + 1).Hash("correctpassword")
		require.NoError(t, err)
		assert.True(t, digest.Verify("correctpassword", other))
	})
}

func TestBcryptDigest_Concurrent(t *testing.T) {
	digest := auth.NewBcryptDigest(bcrypt.MinCost)
	hash, err := digest.Hash("sharedpassword")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, digest.Verify("sharedpassword", hash))
		}()
	}
	wg.Wait()
}
