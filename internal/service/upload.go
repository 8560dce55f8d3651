package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/RishiKendai/plagiarism-control/internal/identity"
	"github.com/RishiKendai/plagiarism-control/internal/metrics"
	"github.com/RishiKendai/plagiarism-control/internal/models"
	"github.com/RishiKendai/plagiarism-control/internal/notebook"
	"github.com/RishiKendai/plagiarism-control/internal/repository"
	"github.com/RishiKendai/plagiarism-control/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	notebookExt = ".ipynb"

	// MaxNotebookBytes bounds the size of a single uploaded notebook
	MaxNotebookBytes = 32 << 20
)

// UploadInput is one notebook handed in through the API or the stream
type UploadInput struct {
	Filename    string
	StudentName string
	StudentID   string
	Data        io.Reader
	// Source labels where the notebook came from, e.g. "api" or "stream"
	Source string
}

type UploadService struct {
	files    FileStore
	store    storage.Storage
	maxFiles int
}

func NewUploadService(files FileStore, store storage.Storage, maxFiles int) *UploadService {
	return &UploadService{
		files:    files,
		store:    store,
		maxFiles: maxFiles,
	}
}

// Upload validates and stores a notebook. Missing student details are
// inferred from the file name.
func (s *UploadService) Upload(ctx context.Context, in UploadInput) (*models.FileMetadata, error) {
	if !strings.EqualFold(filepath.Ext(in.Filename), notebookExt) {
		return nil, ErrInvalidFile
	}

	count, err := s.files.CountFiles(ctx)
	if err != nil {
		return nil, err
	}
	if int(count) >= s.maxFiles {
		return nil, fmt.Errorf("%w (%d)", ErrTooManyFiles, s.maxFiles)
	}

	data, err := io.ReadAll(io.LimitReader(in.Data, MaxNotebookBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > MaxNotebookBytes {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrInvalidNotebook, MaxNotebookBytes)
	}
	if _, err := notebook.Extract(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNotebook, err)
	}

	name, id := strings.TrimSpace(in.StudentName), strings.TrimSpace(in.StudentID)
	if name == "" || id == "" {
		inferredName, inferredID := identity.FromFilename(filepath.Base(in.Filename))
		if name == "" {
			name = inferredName
		}
		if id == "" {
			id = inferredID
		}
	}

	fileID := uuid.New().String()
	file := &models.FileMetadata{
		ID:              fileID,
		StudentName:     name,
		StudentID:       id,
		Filename:        filepath.Base(in.Filename),
		StorageKey:      fileID + notebookExt,
		Size:            int64(len(data)),
		UploadTimestamp: time.Now().UTC(),
		UploadOrder:     int(count) + 1,
	}

	if err := s.store.Save(ctx, file.StorageKey, bytes.NewReader(data), file.Size); err != nil {
		return nil, fmt.Errorf("failed to store notebook: %w", err)
	}

	if err := s.files.InsertFile(ctx, file); err != nil {
		if derr := s.store.Delete(ctx, file.StorageKey); derr != nil {
			log.Warn().Err(derr).Str("key", file.StorageKey).Msg("Failed to remove orphaned notebook")
		}
		return nil, err
	}

	source := in.Source
	if source == "" {
		source = "api"
	}
	metrics.FilesUploaded.WithLabelValues(source).Inc()

	log.Info().
		Str("fileId", file.ID).
		Str("studentId", file.StudentID).
		Str("filename", file.Filename).
		Int("uploadOrder", file.UploadOrder).
		Msg("Notebook stored")

	return file, nil
}

// BulkUpload stores every input independently and reports per-file outcomes
func (s *UploadService) BulkUpload(ctx context.Context, inputs []UploadInput) *models.BulkUploadResponse {
	resp := &models.BulkUploadResponse{Items: make([]models.BulkUploadItem, 0, len(inputs))}

	for _, in := range inputs {
		item := models.BulkUploadItem{Filename: in.Filename}

		file, err := s.Upload(ctx, in)
		if err != nil {
			item.Error = err.Error()
			resp.Failed++
			log.Warn().Err(err).Str("filename", in.Filename).Msg("Bulk upload item rejected")
		} else {
			item.FileID = file.ID
			item.StudentName = file.StudentName
			item.StudentID = file.StudentID
			resp.Uploaded++
		}
		resp.Items = append(resp.Items, item)
	}

	return resp
}

func (s *UploadService) List(ctx context.Context) ([]*models.FileMetadata, error) {
	return s.files.ListFiles(ctx)
}

// Delete removes metadata first; a blob left behind is only logged
func (s *UploadService) Delete(ctx context.Context, id string) error {
	file, err := s.files.GetFile(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrFileNotFound
	}
	if err != nil {
		return err
	}

	if err := s.files.DeleteFile(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrFileNotFound
		}
		return err
	}

	if err := s.store.Delete(ctx, file.StorageKey); err != nil {
		log.Warn().Err(err).Str("fileId", id).Str("key", file.StorageKey).Msg("Failed to delete notebook blob")
	}

	log.Info().Str("fileId", id).Msg("Notebook deleted")
	return nil
}
