package stream

import (
	"bytes"
	"context"
	"errors"

	"github.com/RishiKendai/plagiarism-control/internal/models"
	"github.com/RishiKendai/plagiarism-control/internal/service"
	"github.com/rs/zerolog/log"
)

type Uploader interface {
	Upload(ctx context.Context, in service.UploadInput) (*models.FileMetadata, error)
}

// UploadIngester stores stream submissions through the upload service.
// Validation failures are permanent; storage failures are retried.
type UploadIngester struct {
	uploads Uploader
}

func NewUploadIngester(uploads Uploader) *UploadIngester {
	return &UploadIngester{uploads: uploads}
}

func (i *UploadIngester) Ingest(ctx context.Context, sub *Submission) error {
	file, err := i.uploads.Upload(ctx, service.UploadInput{
		Filename:    sub.Filename,
		StudentName: sub.StudentName,
		StudentID:   sub.StudentID,
		Data:        bytes.NewReader(sub.Notebook),
		Source:      "stream",
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidFile) ||
			errors.Is(err, service.ErrInvalidNotebook) ||
			errors.Is(err, service.ErrTooManyFiles) {
			return Permanent(err)
		}
		return err
	}

	log.Info().
		Str("message_id", sub.MessageID).
		Str("fileId", file.ID).
		Msg("Ingested notebook from stream")
	return nil
}
