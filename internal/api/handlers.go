package api

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/RishiKendai/plagiarism-control/internal/auth"
	"github.com/RishiKendai/plagiarism-control/internal/models"
	"github.com/RishiKendai/plagiarism-control/internal/plagiarism"
	"github.com/RishiKendai/plagiarism-control/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Uploader interface {
	Upload(ctx context.Context, in service.UploadInput) (*models.FileMetadata, error)
	BulkUpload(ctx context.Context, inputs []service.UploadInput) *models.BulkUploadResponse
	List(ctx context.Context) ([]*models.FileMetadata, error)
	Delete(ctx context.Context, id string) error
}

type Analyzer interface {
	Analyze(ctx context.Context, threshold *float64) (*models.AnalysisRun, error)
	Status(ctx context.Context) (models.Step, error)
	Latest(ctx context.Context) (*models.AnalysisRun, error)
}

type Comparer interface {
	Compare(ctx context.Context, fileAID, fileBID string) (*models.CompareResponse, error)
}

type Accounts interface {
	Register(ctx context.Context, creds models.Credentials) error
	Login(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error)
}

// Handler holds dependencies for handlers
type Handler struct {
	uploads  Uploader
	analysis Analyzer
	compare  Comparer
	accounts Accounts
}

// NewHandler creates a new handler
func NewHandler(uploads Uploader, analysis Analyzer, compare Comparer, accounts Accounts) *Handler {
	return &Handler{
		uploads:  uploads,
		analysis: analysis,
		compare:  compare,
		accounts: accounts,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "PlagiarismControl API",
		"status":  "running",
	})
}

func (h *Handler) Register(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	if err := h.accounts.Register(c.Request.Context(), creds); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Admin registered successfully"})
}

func (h *Handler) Login(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	token, err := h.accounts.Login(c.Request.Context(), creds)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, token)
}

func (h *Handler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "file is required",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	studentName := c.PostForm("student_name")
	studentID := c.PostForm("student_id")
	if studentName == "" || studentID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "student_name and student_id are required",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	file, err := header.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer file.Close()

	meta, err := h.uploads.Upload(c.Request.Context(), service.UploadInput{
		Filename:    header.Filename,
		StudentName: studentName,
		StudentID:   studentID,
		Data:        file,
		Source:      "api",
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.UploadResponse{
		Message: "File uploaded successfully",
		FileID:  meta.ID,
	})
}

func (h *Handler) BulkUpload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "files are required",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	headers := form.File["files"]
	inputs := make([]service.UploadInput, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	failed := []models.BulkUploadItem{}
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			log.Warn().Err(err).Str("filename", header.Filename).Msg("Failed to open uploaded file")
			failed = append(failed, models.BulkUploadItem{Filename: header.Filename, Error: "failed to read file"})
			continue
		}
		opened = append(opened, f)
		inputs = append(inputs, service.UploadInput{
			Filename: header.Filename,
			Data:     f,
			Source:   "api",
		})
	}

	resp := h.uploads.BulkUpload(c.Request.Context(), inputs)
	resp.Items = append(resp.Items, failed...)
	resp.Failed += len(failed)

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListFiles(c *gin.Context) {
	files, err := h.uploads.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, files)
}

func (h *Handler) DeleteFile(c *gin.Context) {
	if err := h.uploads.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}

func (h *Handler) Analyze(c *gin.Context) {
	var req models.AnalyzeRequest
	// chunked requests report ContentLength -1 even when empty
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "Invalid request body",
				Code:  "INVALID_REQUEST",
			})
			return
		}
	}

	run, err := h.analysis.Analyze(c.Request.Context(), req.Threshold)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, run)
}

func (h *Handler) AnalysisStatus(c *gin.Context) {
	step, err := h.analysis.Status(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{Step: step})
}

func (h *Handler) LatestResults(c *gin.Context) {
	run, err := h.analysis.Latest(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, run)
}

func (h *Handler) Compare(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "fileA_id and fileB_id are required",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	resp, err := h.compare.Compare(c.Request.Context(), req.FileAID, req.FileBID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// writeError maps service errors onto the standard error response
func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"
	message := err.Error()

	switch {
	case errors.Is(err, service.ErrInvalidFile), errors.Is(err, service.ErrInvalidNotebook):
		status, code = http.StatusBadRequest, "INVALID_FILE"
	case errors.Is(err, service.ErrTooManyFiles):
		status, code = http.StatusBadRequest, "TOO_MANY_FILES"
	case errors.Is(err, service.ErrNotEnoughFiles):
		status, code = http.StatusBadRequest, "NOT_ENOUGH_FILES"
	case errors.Is(err, plagiarism.ErrInvalidThreshold):
		status, code = http.StatusBadRequest, "INVALID_THRESHOLD"
	case errors.Is(err, service.ErrUsernameTaken):
		status, code = http.StatusBadRequest, "USERNAME_TAKEN"
	case errors.Is(err, service.ErrFileNotFound):
		status, code = http.StatusNotFound, "FILE_NOT_FOUND"
	case errors.Is(err, auth.ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, "INVALID_CREDENTIALS"
	case errors.Is(err, service.ErrAnalysisTimeout):
		status, code = http.StatusGatewayTimeout, "ANALYSIS_TIMEOUT"
	case errors.Is(err, context.Canceled):
		status, code = http.StatusRequestTimeout, "REQUEST_CANCELLED"
		message = "Request cancelled"
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		message = "Internal server error"
	}

	c.JSON(status, ErrorResponse{Error: message, Code: code})
}
