package models

import (
	"errors"
	"strings"
)

// ErrorCode is the fixed taxonomy surfaced to callers.
type ErrorCode string

const (
	CodeUpload                ErrorCode = "UPLOAD_ERROR"
	CodePDFRender             ErrorCode = "PDF_RENDER_ERROR"
	CodeDocExtract            ErrorCode = "DOC_EXTRACT_ERROR"
	CodeDocsFetch             ErrorCode = "DOCS_FETCH_ERROR"
	CodeModelInvalidJSON      ErrorCode = "MODEL_INVALID_JSON"
	CodeBudgetExceeded        ErrorCode = "BUDGET_EXCEEDED"
	CodeNotion                ErrorCode = "NOTION_ERROR"
	CodeTelegramPost          ErrorCode = "TELEGRAM_POST_ERROR"
	CodeTelegramDM            ErrorCode = "TELEGRAM_DM_ERROR"
	CodeDiagramROIUnstable    ErrorCode = "DIAGRAM_ROI_UNSTABLE"    // reserved
	CodeUsernameNotRegistered ErrorCode = "USERNAME_NOT_REGISTERED" // reserved
)

// knownCodes is ordered so that longer codes are tried first when matching messages.
var knownCodes = []ErrorCode{
	CodeUsernameNotRegistered,
	CodeDiagramROIUnstable,
	CodeModelInvalidJSON,
	CodeTelegramPost,
	CodeBudgetExceeded,
	CodeDocExtract,
	CodeTelegramDM,
	CodePDFRender,
	CodeDocsFetch,
	CodeNotion,
	CodeUpload,
}

// ErrNotConfigured is returned by collaborators whose credentials are absent.
var ErrNotConfigured = errors.New("not configured")

// AppError attaches a taxonomy code to an underlying failure.
type AppError struct {
	Code ErrorCode
	Err  error
}

func NewAppError(code ErrorCode, err error) *AppError {
	return &AppError{Code: code, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error { return e.Err }

// Is lets errors.Is match on the code alone, e.g. errors.Is(err, NewAppError(CodeBudgetExceeded, nil)).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	return ClassifyError(err) == code
}

// ClassifyError maps an error onto the taxonomy. Typed errors win, then a code
// token found in the message, and UPLOAD_ERROR for anything else.
func ClassifyError(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	msg := err.Error()
	for _, code := range knownCodes {
		if strings.Contains(msg, string(code)) {
			return code
		}
	}
	return CodeUpload
}
