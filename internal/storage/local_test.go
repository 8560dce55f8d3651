package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	t.Parallel()

	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	body := `{"cells": []}`
	require.NoError(t, s.Save(ctx, "abc.ipynb", strings.NewReader(body), int64(len(body))))

	rc, err := s.Open(ctx, "abc.ipynb")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, body, string(got))

	require.NoError(t, s.Delete(ctx, "abc.ipynb"))
	_, err = s.Open(ctx, "abc.ipynb")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting again is a no-op
	assert.NoError(t, s.Delete(ctx, "abc.ipynb"))
}

func TestLocalStorage_ShortWrite(t *testing.T) {
	t.Parallel()

	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	err = s.Save(context.Background(), "short.ipynb", strings.NewReader("abc"), 10)
	assert.Error(t, err)

	_, err = s.Open(context.Background(), "short.ipynb")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorage_RejectsUnsafeKeys(t *testing.T) {
	t.Parallel()

	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape.ipynb", "nested/file.ipynb", `win\file.ipynb`} {
		err := s.Save(context.Background(), key, strings.NewReader("x"), 1)
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}
