package service

import (
	"context"
	"errors"

	"github.com/RishiKendai/plagiarism-control/internal/models"
	"github.com/RishiKendai/plagiarism-control/internal/plagiarism"
	"github.com/RishiKendai/plagiarism-control/internal/repository"
)

type CompareService struct {
	files  FileStore
	loader plagiarism.CodeLoader
}

func NewCompareService(files FileStore, loader plagiarism.CodeLoader) *CompareService {
	return &CompareService{files: files, loader: loader}
}

// Compare returns the raw extracted code of two notebooks side by side
func (s *CompareService) Compare(ctx context.Context, fileAID, fileBID string) (*models.CompareResponse, error) {
	a, err := s.side(ctx, fileAID)
	if err != nil {
		return nil, err
	}
	b, err := s.side(ctx, fileBID)
	if err != nil {
		return nil, err
	}
	return &models.CompareResponse{FileA: a, FileB: b}, nil
}

func (s *CompareService) side(ctx context.Context, id string) (models.CompareSide, error) {
	file, err := s.files.GetFile(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return models.CompareSide{}, ErrFileNotFound
	}
	if err != nil {
		return models.CompareSide{}, err
	}

	return models.CompareSide{
		StudentName: file.StudentName,
		StudentID:   file.StudentID,
		Code:        s.loader.Code(ctx, file.StorageKey),
	}, nil
}
