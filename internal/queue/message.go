package queue

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// IngestMsg asks a worker to ingest one uploaded paper.
type IngestMsg struct {
	FileKey       string `json:"file_key" validate:"required"`
	FileName      string `json:"file_name,omitempty"`
	CorrelationID string `json:"correlation_id" validate:"required"`
}

// NewIngestMsg creates a message with a fresh correlation id.
func NewIngestMsg(fileKey, fileName string) (IngestMsg, error) {
	id, err := gonanoid.New()
	if err != nil {
		return IngestMsg{}, err
	}
	return IngestMsg{FileKey: fileKey, FileName: fileName, CorrelationID: id}, nil
}

func (m IngestMsg) Encode() ([]byte, error) {
	if err := validate.Struct(m); err != nil {
		return nil, fmt.Errorf("invalid ingest message: %w", err)
	}
	return json.Marshal(m)
}

func DecodeIngestMsg(body []byte) (IngestMsg, error) {
	var m IngestMsg
	if err := json.Unmarshal(body, &m); err != nil {
		return IngestMsg{}, fmt.Errorf("failed to decode ingest message: %w", err)
	}
	if err := validate.Struct(m); err != nil {
		return IngestMsg{}, fmt.Errorf("invalid ingest message: %w", err)
	}
	return m, nil
}
