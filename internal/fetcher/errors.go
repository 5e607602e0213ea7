package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

var (
	ErrNotFound  = errors.New("fetcher: resource not found")
	ErrForbidden = errors.New("fetcher: access forbidden")
	ErrParse     = errors.New("fetcher: payload could not be parsed")
)

// ErrorKind 错误分类，仅用于日志和诊断
type ErrorKind string

const (
	KindNotFound  ErrorKind = "not-found"
	KindForbidden ErrorKind = "forbidden"
	KindTimeout   ErrorKind = "timeout"
	KindDNS       ErrorKind = "dns"
	KindParse     ErrorKind = "parse"
	KindGeneric   ErrorKind = "generic"
)

// StatusError 非 2xx 响应
type StatusError struct {
	URL      string
	Code     int
	Location string
}

func (e *StatusError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("%s: status %d redirect to %s", e.URL, e.Code, e.Location)
	}
	return fmt.Sprintf("%s: status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusNotFound, http.StatusGone:
		return ErrNotFound
	case http.StatusForbidden:
		return ErrForbidden
	}
	return nil
}

// FetchError 某个来源的最终失败，包含尝试过的全部 URL
type FetchError struct {
	SourceID string
	Kind     ErrorKind
	URLs     []string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s) [%s] (%s): %v",
		e.SourceID, e.Attempts, strings.Join(e.URLs, ", "), e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Classify 对传输错误分类
func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindDNS
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindGeneric
}

func retryable(kind ErrorKind) bool {
	return kind != KindNotFound && kind != KindParse
}
