package reliability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime/debug"
	"strings"
	"syscall"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorKind is the canonical classification of a failure.
type ErrorKind string

const (
	KindTimeout        ErrorKind = "timeout"
	KindNetwork        ErrorKind = "network_error"
	KindUpstreamClient ErrorKind = "upstream_client_error"
	KindUpstreamServer ErrorKind = "upstream_server_error"
	KindValidation     ErrorKind = "validation_error"
	KindUnknown        ErrorKind = "unknown"
)

// Classification is the result of mapping a raw failure onto the taxonomy.
type Classification struct {
	Kind      ErrorKind
	Retryable bool
	// StatusCode is the upstream HTTP status, 0 when not applicable.
	StatusCode int
}

// ErrValidation is the sentinel for input-validation failures. Callers signal
// validation problems by wrapping it (see NewValidationError); classification
// never infers validation from free-text messages.
var ErrValidation = errors.New("validation failed")

// NewValidationError builds a typed validation failure.
func NewValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// UpstreamError represents a non-2xx response from a third-party service.
// Tool implementations construct it at the HTTP boundary so classification
// can work from the status code instead of message text.
type UpstreamError struct {
	StatusCode int
	Body       string
}

// NewUpstreamError creates an UpstreamError for the given response.
func NewUpstreamError(statusCode int, body string) *UpstreamError {
	return &UpstreamError{StatusCode: statusCode, Body: body}
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned http %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned http %d: %s", e.StatusCode, e.Body)
}

// panicError carries a recovered panic and its stack across the attempt
// boundary so the failure report can retain a trace excerpt.
type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic during operation: %v", e.value)
}

// Classify maps a raw failure into the canonical taxonomy. It is pure,
// deterministic, and total: every error (including nil) yields exactly one
// classification. Rule order follows first-match-wins:
// deadline/cancellation, connectivity, upstream 4xx, upstream 5xx,
// typed validation, unknown.
func Classify(err error) Classification {
	if err == nil {
		return Classification{Kind: KindUnknown, Retryable: false}
	}

	// Deadline and cancellation signals.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Classification{Kind: KindTimeout, Retryable: true}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Classification{Kind: KindTimeout, Retryable: true}
	}

	// gRPC status codes, for tools backed by gRPC upstreams.
	if s, ok := status.FromError(err); ok && s.Code() != codes.OK {
		if cls, ok := classifyGRPCCode(s.Code()); ok {
			return cls
		}
	}

	// Low-level connectivity failures.
	if isConnectivityError(err) {
		return Classification{Kind: KindNetwork, Retryable: true}
	}

	// Upstream responses carrying an HTTP status.
	var up *UpstreamError
	if errors.As(err, &up) {
		switch {
		case up.StatusCode >= 500:
			return Classification{Kind: KindUpstreamServer, Retryable: true, StatusCode: up.StatusCode}
		case up.StatusCode >= 400:
			return Classification{Kind: KindUpstreamClient, Retryable: false, StatusCode: up.StatusCode}
		}
	}

	// Explicit, typed validation failures only.
	if errors.Is(err, ErrValidation) {
		return Classification{Kind: KindValidation, Retryable: false}
	}

	// Fail safe: never silently retry something unclassified.
	return Classification{Kind: KindUnknown, Retryable: false}
}

func classifyGRPCCode(c codes.Code) (Classification, bool) {
	switch c {
	case codes.DeadlineExceeded, codes.Canceled:
		return Classification{Kind: KindTimeout, Retryable: true}, true
	case codes.Unavailable:
		return Classification{Kind: KindNetwork, Retryable: true}, true
	case codes.Internal, codes.DataLoss, codes.Aborted:
		return Classification{Kind: KindUpstreamServer, Retryable: true}, true
	case codes.InvalidArgument, codes.NotFound, codes.AlreadyExists,
		codes.PermissionDenied, codes.Unauthenticated, codes.FailedPrecondition,
		codes.OutOfRange, codes.ResourceExhausted:
		return Classification{Kind: KindUpstreamClient, Retryable: false}, true
	}
	return Classification{}, false
}

func isConnectivityError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// FailureReport is the structured, safe-to-display description of a terminal
// failure. UserMessage never contains upstream bodies or stack traces.
type FailureReport struct {
	Kind             ErrorKind      `json:"kind"`
	UserMessage      string         `json:"user_message"`
	TechnicalMessage string         `json:"technical_message"`
	OperationName    string         `json:"operation_name"`
	Retryable        bool           `json:"retryable"`
	StatusCode       int            `json:"status_code,omitempty"`
	Details          map[string]any `json:"details,omitempty"`
}

// maxStackLines bounds the trace excerpt retained for unknown failures.
const maxStackLines = 5

var defaultUserMessages = map[ErrorKind]string{
	KindTimeout:        "The operation took too long to complete. Please try again.",
	KindNetwork:        "We couldn't reach the service. Please try again shortly.",
	KindUpstreamClient: "The request was rejected by the upstream service.",
	KindUpstreamServer: "The upstream service is having trouble right now. Please try again shortly.",
	KindValidation:     "Some of the provided input is invalid.",
	KindUnknown:        "Something went wrong. Please try again.",
}

// NewFailureReport builds a FailureReport from a raw failure. customMessage
// overrides the per-kind default user message when non-empty. Only
// unknown-kind reports retain a stack excerpt, and only under
// Details["stack_trace"].
func NewFailureReport(err error, operationName, customMessage string) *FailureReport {
	cls := Classify(err)

	userMessage := customMessage
	if userMessage == "" {
		userMessage = defaultUserMessages[cls.Kind]
	}

	technical := ""
	if err != nil {
		technical = err.Error()
	}

	report := &FailureReport{
		Kind:             cls.Kind,
		UserMessage:      userMessage,
		TechnicalMessage: technical,
		OperationName:    operationName,
		Retryable:        cls.Retryable,
		StatusCode:       cls.StatusCode,
	}

	if cls.Kind == KindUnknown && err != nil {
		report.Details = map[string]any{
			"stack_trace": stackExcerpt(err),
		}
	}

	return report
}

func stackExcerpt(err error) string {
	var pe *panicError
	stack := ""
	if errors.As(err, &pe) {
		stack = string(pe.stack)
	} else {
		stack = string(debug.Stack())
	}
	lines := strings.Split(strings.TrimSpace(stack), "\n")
	if len(lines) > maxStackLines {
		lines = lines[:maxStackLines]
	}
	return strings.Join(lines, "\n")
}
