package models

import (
	"time"
)

type Step string

const (
	StepIdle        Step = "idle"
	StepInitiated   Step = "initiated"
	StepExtracting  Step = "extracting"
	StepVectorizing Step = "vectorizing"
	StepCompleted   Step = "completed"
	StepFailed      Step = "failed"
)

// LineMatch is one piece of line-level evidence between two submissions.
// Line numbers are 1-based positions in the normalized code.
type LineMatch struct {
	LineA      int     `bson:"lineA" json:"lineA"`
	LineB      int     `bson:"lineB" json:"lineB"`
	Code       string  `bson:"code" json:"code"`
	Similarity float64 `bson:"similarity" json:"similarity"`
}

// PairResult represents a flagged pair of submissions
type PairResult struct {
	StudentA      string      `bson:"studentA" json:"studentA"`
	StudentAID    string      `bson:"studentA_id" json:"studentA_id"`
	FileAID       string      `bson:"fileA_id" json:"fileA_id"`
	StudentB      string      `bson:"studentB" json:"studentB"`
	StudentBID    string      `bson:"studentB_id" json:"studentB_id"`
	FileBID       string      `bson:"fileB_id" json:"fileB_id"`
	Similarity    float64     `bson:"similarity" json:"similarity"` // 0..100
	Duplicate     bool        `bson:"duplicate" json:"duplicate"`
	Risk          string      `bson:"risk" json:"risk"` // clean, suspicious, highly suspicious, near copy
	MatchingLines []LineMatch `bson:"matching_lines" json:"matching_lines"`
	TotalMatches  int         `bson:"total_matches" json:"total_matches"`
}

// StudentSummary aggregates the flagged pairs a student takes part in
type StudentSummary struct {
	StudentName string   `bson:"student_name" json:"student_name"`
	StudentID   string   `bson:"student_id" json:"student_id"`
	FileID      string   `bson:"file_id" json:"file_id"`
	Score       float64  `bson:"score" json:"score"` // 0..100
	Risk        string   `bson:"risk" json:"risk"`
	Peers       []string `bson:"peers" json:"peers"` // peer file ids
}

// AnalysisRun represents one persisted analysis invocation
type AnalysisRun struct {
	ID                string           `bson:"id" json:"id"`
	AnalysisTimestamp time.Time        `bson:"analysis_timestamp" json:"analysis_timestamp"`
	Threshold         float64          `bson:"threshold" json:"threshold"`
	Results           []PairResult     `bson:"results" json:"results"`
	Students          []StudentSummary `bson:"students" json:"students"`
	TotalFiles        int              `bson:"total_files" json:"total_files"`
	TotalMatches      int              `bson:"total_matches" json:"total_matches"`
}

// AnalyzeRequest represents a request to analyze all uploaded notebooks
type AnalyzeRequest struct {
	Threshold *float64 `json:"threshold"`
}

// StatusResponse reports the step of the current analysis run
type StatusResponse struct {
	Step Step `json:"step"`
}

// CompareRequest asks for the raw code of two uploaded notebooks
type CompareRequest struct {
	FileAID string `json:"fileA_id" binding:"required"`
	FileBID string `json:"fileB_id" binding:"required"`
}

type CompareSide struct {
	StudentName string `json:"student_name"`
	StudentID   string `json:"student_id"`
	Code        string `json:"code"`
}

type CompareResponse struct {
	FileA CompareSide `json:"fileA"`
	FileB CompareSide `json:"fileB"`
}
