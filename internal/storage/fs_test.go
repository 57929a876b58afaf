package storage

import (
	"errors"
	"io"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStoreRoundTrip(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	key, err := s.Put("archetypes/archetypes.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "archetypes/archetypes.txt", key)

	rc, err := s.Get(key)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestFSStoreMissingAndBadKeys(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Get("missing.txt")
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	_, err = s.Put("", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrBadKey)

	// traversal is clamped to the base directory
	_, err = s.Put("../../escape.txt", strings.NewReader("x"))
	require.NoError(t, err)
	rc, err := s.Get("escape.txt")
	require.NoError(t, err)
	rc.Close()
}
