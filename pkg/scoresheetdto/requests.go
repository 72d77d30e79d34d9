package scoresheetdto

type RequestMeta struct {
	RequestID string
	Owner     string
}

type PageImage struct {
	Data        []byte
	ContentType string
}

type GameMetadata struct {
	White string
	Black string
	Date  string
	Round string
}

type UploadRequest struct {
	Meta     RequestMeta
	Page     PageImage
	Metadata GameMetadata
	Result   string
}

type DualUploadRequest struct {
	Meta     RequestMeta
	Page1    PageImage
	Page2    PageImage
	Metadata GameMetadata
	Result   string
}

type ContinuationRequest struct {
	Meta       RequestMeta
	UploadUUID string
	Page       PageImage
	Result     string
}

type HistoryRequest struct {
	Meta  RequestMeta
	Limit int
}

type GameRequest struct {
	Meta   RequestMeta
	GameID int64
}

type ProcessResponse struct {
	Game    *ScoresheetGame
	Merge   *MergeSummary
	Summary string
	Preview []byte
}

type HistoryResponse struct {
	Games []*ScoresheetGame
}

type GameResponse struct {
	Game *ScoresheetGame
}
