package scoresheetdto

import "time"

type MoveView struct {
	MoveNumber int
	Side       string
	Notation   string
	Normalized string
	Status     string
	Message    string
}

type GameStats struct {
	TotalMoves  int
	Valid       int
	Warnings    int
	Errors      int
	Repaired    int
	ECOCode     string
	ECOTitle    string
	FinalFEN    string
	MergeIssues int
}

type ScoresheetGame struct {
	ID          int64
	UploadUUID  string
	Pages       int
	PGN         string
	Result      string
	Metadata    GameMetadata
	Stats       GameStats
	Moves       []MoveView
	Warnings    []string
	IsValid     bool
	ProcessedAt time.Time
}

type MergeSummary struct {
	Warnings     []string
	HasGap       bool
	GapSize      int
	HasOverlap   bool
	OverlapMoves int
	IsValid      bool
}
