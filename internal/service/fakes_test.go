package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/RishiKendai/plagiarism-control/internal/models"
	"github.com/RishiKendai/plagiarism-control/internal/repository"
	"github.com/RishiKendai/plagiarism-control/internal/storage"
	"github.com/stretchr/testify/require"
)

type memFiles struct {
	mu    sync.Mutex
	files map[string]*models.FileMetadata
}

func newMemFiles() *memFiles {
	return &memFiles{files: make(map[string]*models.FileMetadata)}
}

func (m *memFiles) InsertFile(_ context.Context, file *models.FileMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *file
	m.files[file.ID] = &cp
	return nil
}

func (m *memFiles) ListFiles(_ context.Context) ([]*models.FileMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.FileMetadata, 0, len(m.files))
	for _, f := range m.files {
		cp := *f
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadOrder < out[j].UploadOrder })
	return out, nil
}

func (m *memFiles) GetFile(_ context.Context, id string) (*models.FileMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *memFiles) DeleteFile(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.files, id)
	return nil
}

func (m *memFiles) CountFiles(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.files)), nil
}

type memRuns struct {
	mu   sync.Mutex
	runs []*models.AnalysisRun
}

func (m *memRuns) InsertRun(_ context.Context, run *models.AnalysisRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *memRuns) GetLatestRun(_ context.Context) (*models.AnalysisRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.runs) == 0 {
		return nil, nil
	}
	return m.runs[len(m.runs)-1], nil
}

type memAdmins struct {
	mu     sync.Mutex
	admins map[string]*models.Admin
}

func newMemAdmins() *memAdmins {
	return &memAdmins{admins: make(map[string]*models.Admin)}
}

func (m *memAdmins) InsertAdmin(_ context.Context, admin *models.Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.admins[admin.Username]; ok {
		return repository.ErrDuplicate
	}
	m.admins[admin.Username] = admin
	return nil
}

func (m *memAdmins) GetAdminByUsername(_ context.Context, username string) (*models.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.admins[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

type memStatus struct {
	mu    sync.Mutex
	steps []models.Step
}

func (m *memStatus) Update(_ context.Context, step models.Step) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, step)
	return nil
}

func (m *memStatus) Get(_ context.Context) (models.Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.steps) == 0 {
		return models.StepIdle, nil
	}
	return m.steps[len(m.steps)-1], nil
}

func (m *memStatus) recorded() []models.Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Step(nil), m.steps...)
}

// notebookJSON builds an nbformat 4 document with one code cell per source
func notebookJSON(t *testing.T, sources ...string) string {
	t.Helper()

	cells := []map[string]any{{"cell_type": "markdown", "source": "# Title"}}
	for _, src := range sources {
		cells = append(cells, map[string]any{"cell_type": "code", "source": src, "outputs": []any{}})
	}
	data, err := json.Marshal(map[string]any{"cells": cells, "nbformat": 4, "nbformat_minor": 5})
	require.NoError(t, err)
	return string(data)
}

func newLocalStore(t *testing.T) *storage.LocalStorage {
	t.Helper()

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return store
}

func upload(name, body string) UploadInput {
	return UploadInput{Filename: name, Data: strings.NewReader(body)}
}
