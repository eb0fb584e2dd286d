package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eva-wellness/eva/internal/model"
)

func TestRegistryCreateAndGet(t *testing.T) {
	r := NewRegistry()

	sess := r.Create("")
	got, err := r.Get(sess.ID(), "")

	require.NoError(t, err)
	assert.Same(t, sess, got)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("missing", "")

	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRegistryOwnerIsolation(t *testing.T) {
	r := NewRegistry()
	sess := r.Create("alice")

	_, err := r.Get(sess.ID(), "bob")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = r.Get(sess.ID(), "")
	assert.ErrorIs(t, err, model.ErrNotFound)

	got, err := r.Get(sess.ID(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Owner())
}

func TestRegistryUnownedSessionOpenToAll(t *testing.T) {
	r := NewRegistry()
	sess := r.Create("")

	_, err := r.Get(sess.ID(), "anyone")

	assert.NoError(t, err)
}
