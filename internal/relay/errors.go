package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type Kind string

const (
	KindTimeout    Kind = "timeout"
	KindCanceled   Kind = "canceled"
	KindConnection Kind = "connection"
	KindStatus     Kind = "status"
	KindDecode     Kind = "decode"
	KindRequest    Kind = "request"
)

// Failure is the one error type the relay returns. Its message is what the
// browser sees after the "Error: " prefix.
type Failure struct {
	Kind Kind
	// StatusCode is set for KindStatus.
	StatusCode int
	Err        error
	msg        string
}

func (f *Failure) Error() string {
	if f.msg != "" {
		return f.msg
	}
	if f.Err != nil {
		return string(f.Kind) + ": " + f.Err.Error()
	}
	return string(f.Kind)
}

func (f *Failure) Unwrap() error { return f.Err }

// IsFailure reports whether err is (or wraps) a *Failure of the given kind.
func IsFailure(err error, kind Kind) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == kind
}

func classify(err error, timeout time.Duration) *Failure {
	var (
		apiErr  *openai.APIError
		reqErr  *openai.RequestError
		urlErr  *url.Error
		synErr  *json.SyntaxError
		typeErr *json.UnmarshalTypeError
	)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Failure{Kind: KindTimeout, Err: err,
			msg: fmt.Sprintf("upstream did not answer within %s", timeout)}
	case errors.Is(err, context.Canceled):
		return &Failure{Kind: KindCanceled, Err: err, msg: "request canceled"}
	case errors.As(err, &apiErr):
		return &Failure{Kind: KindStatus, StatusCode: apiErr.HTTPStatusCode, Err: err,
			msg: fmt.Sprintf("upstream returned %s: %s", statusText(apiErr.HTTPStatusCode), apiErr.Message)}
	case errors.As(err, &reqErr):
		return &Failure{Kind: KindStatus, StatusCode: reqErr.HTTPStatusCode, Err: err,
			msg: fmt.Sprintf("upstream returned %s", statusText(reqErr.HTTPStatusCode))}
	case errors.As(err, &urlErr):
		if urlErr.Timeout() {
			return &Failure{Kind: KindTimeout, Err: err,
				msg: fmt.Sprintf("upstream did not answer within %s", timeout)}
		}
		return &Failure{Kind: KindConnection, Err: err,
			msg: fmt.Sprintf("cannot reach upstream: %v", urlErr.Err)}
	case errors.As(err, &synErr), errors.As(err, &typeErr),
		errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return &Failure{Kind: KindDecode, Err: err,
			msg: fmt.Sprintf("invalid upstream response: %v", err)}
	default:
		return &Failure{Kind: KindRequest, Err: err}
	}
}

func statusText(code int) string {
	if text := http.StatusText(code); text != "" {
		return fmt.Sprintf("%d %s", code, text)
	}
	return fmt.Sprintf("status %d", code)
}
