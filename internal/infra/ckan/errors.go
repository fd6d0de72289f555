package ckan

import (
	"fmt"

	"sixmcp/internal/domain"
)

// ErrorKind classifies an upstream failure.
type ErrorKind string

const (
	KindStatus   ErrorKind = "status"
	KindNetwork  ErrorKind = "network"
	KindTimeout  ErrorKind = "timeout"
	KindCanceled ErrorKind = "canceled"
	KindDecode   ErrorKind = "decode"
	KindAPI      ErrorKind = "api"
)

const maxErrorBody = 4 << 10

// UpstreamError reports a failed call against the catalog API.
type UpstreamError struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Body       string
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case KindStatus:
		if e.Body != "" {
			return fmt.Sprintf("catalog %s: HTTP %d: %s", e.URL, e.StatusCode, e.Body)
		}
		return fmt.Sprintf("catalog %s: HTTP %d", e.URL, e.StatusCode)
	case KindAPI:
		return fmt.Sprintf("catalog %s: request unsuccessful: %s", e.URL, e.Message)
	default:
		if e.Err != nil {
			return fmt.Sprintf("catalog %s: %s: %v", e.URL, e.Kind, e.Err)
		}
		return fmt.Sprintf("catalog %s: %s", e.URL, e.Kind)
	}
}

func (e *UpstreamError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ErrorCode maps the failure onto the shared error taxonomy.
func (e *UpstreamError) ErrorCode() domain.ErrorCode {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case KindNetwork:
		return domain.CodeUnavailable
	case KindTimeout:
		return domain.CodeDeadlineExceeded
	case KindCanceled:
		return domain.CodeCanceled
	case KindStatus:
		if e.StatusCode == 404 {
			return domain.CodeNotFound
		}
		if e.StatusCode >= 500 {
			return domain.CodeUnavailable
		}
		return domain.CodeUpstream
	default:
		return domain.CodeUpstream
	}
}

func truncateBody(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
