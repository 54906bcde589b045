package kv

import "fmt"

// Code is the stable result code of every storage operation.
type Code int

const (
	Success Code = iota
	NoMoreRows
	ConcurrentModification
	ExistingTable
	NonexistingTable
	InvalidRowOrQuery
	UnknownError
)

var codeNames = [...]string{
	Success:                "SUCCESS",
	NoMoreRows:             "NO_MORE_ROWS",
	ConcurrentModification: "CONCURRENT_MODIFICATION",
	ExistingTable:          "EXISTING_TABLE",
	NonexistingTable:       "NONEXISTING_TABLE",
	InvalidRowOrQuery:      "INVALID_ROW_OR_QUERY",
	UnknownError:           "UNKNOWN_ERROR",
}

func (c Code) String() string {
	if c >= 0 && int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("CODE(%d)", int(c))
}

// ParseCode maps an upper-case code name back to its Code.
func ParseCode(s string) (Code, error) {
	for i, name := range codeNames {
		if name == s {
			return Code(i), nil
		}
	}
	return UnknownError, fmt.Errorf("unknown result code %q", s)
}

// Result is the outcome delivered to every callback.
//
// NoMoreRows is the normal end of an iteration, not a failure.
// Result implements error so failures can be wrapped and compared
// with errors.As.
type Result struct {
	Code    Code
	Message string
}

// OK is the successful result.
func OK() Result { return Result{Code: Success} }

// Fail builds a result with a formatted message.
func Fail(code Code, format string, args ...any) Result {
	return Result{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsSuccess reports whether the code is Success.
func (r Result) IsSuccess() bool { return r.Code == Success }

// Error implements error.
func (r Result) Error() string {
	if r.Message == "" {
		return r.Code.String()
	}
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

// Err returns nil on success and the result itself otherwise.
func (r Result) Err() error {
	if r.IsSuccess() {
		return nil
	}
	return r
}
