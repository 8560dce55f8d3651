package models

import "time"

// FileMetadata represents an uploaded notebook stored in MongoDB
type FileMetadata struct {
	ID              string    `bson:"id" json:"id"`
	StudentName     string    `bson:"student_name" json:"student_name"`
	StudentID       string    `bson:"student_id" json:"student_id"`
	Filename        string    `bson:"filename" json:"filename"`
	StorageKey      string    `bson:"storage_key" json:"-"`
	Size            int64     `bson:"size" json:"size"`
	UploadTimestamp time.Time `bson:"upload_timestamp" json:"upload_timestamp"`
	UploadOrder     int       `bson:"upload_order" json:"upload_order"`
}

// SubmissionRef describes one submission handed to the detector.
// Location is resolved by a notebook loader (storage key or file path).
type SubmissionRef struct {
	FileID      string
	StudentName string
	StudentID   string
	Location    string
	UploadOrder int
}

// Ref converts stored metadata into a detector descriptor
func (f *FileMetadata) Ref() SubmissionRef {
	return SubmissionRef{
		FileID:      f.ID,
		StudentName: f.StudentName,
		StudentID:   f.StudentID,
		Location:    f.StorageKey,
		UploadOrder: f.UploadOrder,
	}
}

// UploadResponse is returned for a single stored notebook
type UploadResponse struct {
	Message string `json:"message"`
	FileID  string `json:"file_id"`
}

// BulkUploadItem reports the outcome of one file in a bulk upload
type BulkUploadItem struct {
	Filename    string `json:"filename"`
	FileID      string `json:"file_id,omitempty"`
	StudentName string `json:"student_name,omitempty"`
	StudentID   string `json:"student_id,omitempty"`
	Error       string `json:"error,omitempty"`
}

// BulkUploadResponse summarises a bulk upload
type BulkUploadResponse struct {
	Uploaded int              `json:"uploaded"`
	Failed   int              `json:"failed"`
	Items    []BulkUploadItem `json:"items"`
}
