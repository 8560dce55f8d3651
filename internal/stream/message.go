package stream

import (
	"fmt"
	"strings"
)

// StreamMessage is a raw entry read from the ingestion stream
type StreamMessage struct {
	ID     string
	Fields map[string]string
}

// Submission is a notebook pushed by an external system
type Submission struct {
	MessageID   string
	StudentName string
	StudentID   string
	Filename    string
	Notebook    []byte
}

// ParseSubmission validates the stream fields. filename and notebook are
// required; student details may be inferred later from the file name.
func ParseSubmission(msg *StreamMessage) (*Submission, error) {
	filename := strings.TrimSpace(msg.Fields["filename"])
	if filename == "" {
		return nil, fmt.Errorf("message %s: missing field filename", msg.ID)
	}

	nb := msg.Fields["notebook"]
	if strings.TrimSpace(nb) == "" {
		return nil, fmt.Errorf("message %s: missing field notebook", msg.ID)
	}

	return &Submission{
		MessageID:   msg.ID,
		StudentName: strings.TrimSpace(msg.Fields["student_name"]),
		StudentID:   strings.TrimSpace(msg.Fields["student_id"]),
		Filename:    filename,
		Notebook:    []byte(nb),
	}, nil
}
