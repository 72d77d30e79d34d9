package scoresheetdto

const (
	CodeNoMoveData       = "no_move_data"
	CodeExtractionFailed = "extraction_failed"
	CodeUploadNotFound   = "upload_not_found"
	CodeInvalidRequest   = "invalid_request"
	CodeInternal         = "internal"
)

type DomainError struct {
	Code      string
	Message   string
	Retryable bool
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "scoresheet service error"
}
