package reliability

// Result is the discriminated outcome of one invocation: either a value or a
// FailureReport, never both. Execute always returns one; raw errors do not
// cross that boundary.
type Result[T any] struct {
	value  T
	report *FailureReport
}

// Ok wraps a successful value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err wraps a terminal failure.
func Err[T any](report *FailureReport) Result[T] {
	return Result[T]{report: report}
}

// OK reports whether the invocation produced a value.
func (r Result[T]) OK() bool {
	return r.report == nil
}

// Value returns the successful value. It is the zero value when !OK().
func (r Result[T]) Value() T {
	return r.value
}

// Report returns the failure report, nil on success.
func (r Result[T]) Report() *FailureReport {
	return r.report
}
