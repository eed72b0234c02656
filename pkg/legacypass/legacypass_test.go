package legacypass_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authbridge/pkg/legacypass"
)

func TestTransformIsDeterministic(t *testing.T) {
	t.Parallel()

	a := legacypass.Transform("s3cret")
	b := legacypass.Transform("s3cret")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, legacypass.Transform("other"))
	assert.NotEqual(t, "s3cret", a, "transform must not be identity")
}

func TestHashAndVerify(t *testing.T) {
	t.Parallel()

	transformed := legacypass.Transform("s3cret")

	hash, err := legacypass.Hash(transformed, bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, legacypass.Verify(transformed, hash))
	assert.False(t, legacypass.Verify(legacypass.Transform("wrong"), hash))
	assert.False(t, legacypass.Verify(transformed, "not-a-bcrypt-hash"))
}
