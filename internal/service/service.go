// Package service holds the application use cases behind the HTTP API and
// the ingestion stream.
package service

import (
	"context"
	"errors"

	"github.com/RishiKendai/plagiarism-control/internal/models"
)

var (
	ErrInvalidFile     = errors.New("only .ipynb files are allowed")
	ErrInvalidNotebook = errors.New("file is not a valid notebook")
	ErrTooManyFiles    = errors.New("maximum number of files reached")
	ErrFileNotFound    = errors.New("file not found")
	ErrNotEnoughFiles  = errors.New("need at least 2 files to analyze")
	ErrAnalysisTimeout = errors.New("analysis timed out")
	ErrUsernameTaken   = errors.New("username already exists")
)

// FileStore persists notebook metadata
type FileStore interface {
	InsertFile(ctx context.Context, file *models.FileMetadata) error
	ListFiles(ctx context.Context) ([]*models.FileMetadata, error)
	GetFile(ctx context.Context, id string) (*models.FileMetadata, error)
	DeleteFile(ctx context.Context, id string) error
	CountFiles(ctx context.Context) (int64, error)
}

// RunStore persists analysis runs
type RunStore interface {
	InsertRun(ctx context.Context, run *models.AnalysisRun) error
	GetLatestRun(ctx context.Context) (*models.AnalysisRun, error)
}

// AdminStore persists operator accounts
type AdminStore interface {
	InsertAdmin(ctx context.Context, admin *models.Admin) error
	GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error)
}

// StatusRecorder tracks the step of the running analysis
type StatusRecorder interface {
	Update(ctx context.Context, step models.Step) error
	Get(ctx context.Context) (models.Step, error)
}
