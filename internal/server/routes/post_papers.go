package routes

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/alaris-labs/papergraph/internal/queue"
	"github.com/alaris-labs/papergraph/pkg/logger"
)

const uploadPrefix = "papers/uploads"

var allowedExtensions = map[string]bool{
	".pdf": true,
	".txt": true,
	".md":  true,
}

type ingestResponse struct {
	Message       string `json:"message"`
	FileKey       string `json:"file_key,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// UploadPaperHandler stores a paper from multipart/form-data and queues it
// for ingestion.
func UploadPaperHandler(c echo.Context) error {
	a := app(c)
	if a.Uploads == nil || a.Queue == nil {
		return c.JSON(http.StatusServiceUnavailable, ingestResponse{Message: "Uploads are not configured"})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ingestResponse{Message: "Invalid request body"})
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return c.JSON(http.StatusBadRequest, ingestResponse{Message: "Unsupported file type " + ext})
	}

	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ingestResponse{Message: "Invalid request body"})
	}
	defer src.Close()

	ctx := c.Request().Context()
	key, err := a.Uploads.PutFile(ctx, uploadPrefix, file.Filename, src)
	if err != nil {
		logger.Error("[Server] Failed to upload file", "file", file.Filename, "err", err)
		return c.JSON(http.StatusInternalServerError, ingestResponse{Message: "Internal server error"})
	}

	return enqueueIngest(c, key, file.Filename)
}

// IngestPaperHandler queues an already uploaded object for ingestion.
func IngestPaperHandler(c echo.Context) error {
	type ingestBody struct {
		FileKey  string `json:"file_key" validate:"required"`
		FileName string `json:"file_name"`
	}

	if app(c).Queue == nil {
		return c.JSON(http.StatusServiceUnavailable, ingestResponse{Message: "Ingestion is not configured"})
	}

	data := new(ingestBody)
	if err := bindAndValidate(c, data); err != nil {
		return err
	}
	return enqueueIngest(c, data.FileKey, data.FileName)
}

func enqueueIngest(c echo.Context, key, name string) error {
	msg, err := queue.NewIngestMsg(key, name)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ingestResponse{Message: "Internal server error"})
	}
	body, err := msg.Encode()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ingestResponse{Message: "Invalid request body"})
	}

	if err := queue.PublishFIFO(c.Request().Context(), app(c).Queue, queue.IngestQueue, body, msg.CorrelationID); err != nil {
		logger.Error("[Server] Failed to publish ingest message", "file", key, "err", err)
		return c.JSON(http.StatusInternalServerError, ingestResponse{Message: "Internal server error"})
	}

	logger.Info("[Server] Paper queued for ingestion", "file", key, "correlation_id", msg.CorrelationID)
	return c.JSON(http.StatusAccepted, ingestResponse{
		Message:       "Paper queued for ingestion",
		FileKey:       key,
		CorrelationID: msg.CorrelationID,
	})
}
