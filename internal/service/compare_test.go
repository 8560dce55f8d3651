package service

import (
	"context"
	"testing"

	"github.com/RishiKendai/plagiarism-control/internal/notebook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	t.Parallel()

	files := newMemFiles()
	store := newLocalStore(t)
	uploads := NewUploadService(files, store, 10)
	svc := NewCompareService(files, notebook.NewExtractor(store))
	ctx := context.Background()

	a, err := uploads.Upload(ctx, upload("Lab - ann.ipynb", notebookJSON(t, "x = 1", "print(x)")))
	require.NoError(t, err)
	b, err := uploads.Upload(ctx, upload("Lab - ben.ipynb", notebookJSON(t, "y = 2")))
	require.NoError(t, err)

	resp, err := svc.Compare(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", resp.FileA.StudentName)
	assert.Equal(t, "x = 1\n\nprint(x)", resp.FileA.Code)
	assert.Equal(t, "ben", resp.FileB.StudentID)
	assert.Equal(t, "y = 2", resp.FileB.Code)

	_, err = svc.Compare(ctx, a.ID, "missing")
	assert.ErrorIs(t, err, ErrFileNotFound)
}
