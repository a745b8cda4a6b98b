package rest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/aqasim81/supamigrate/internal/tracker"
)

// ErrUnexpectedResponse indicates a 2xx response whose body could not be decoded.
var ErrUnexpectedResponse = errors.New("unexpected PostgREST response")

// PostgREST's own codes for objects missing from its schema cache.
const (
	codeTableNotInCache    = "PGRST205"
	codeFunctionNotInCache = "PGRST202"
)

// APIError is a non-2xx response from PostgREST.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details string
	Hint    string
}

func (e *APIError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "postgrest: status %d", e.Status)

	if e.Code != "" {
		fmt.Fprintf(&b, " code %s", e.Code)
	}

	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	if e.Details != "" {
		fmt.Fprintf(&b, " (%s)", e.Details)
	}

	return b.String()
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	if !gjson.ValidBytes(body) {
		apiErr.Message = strings.TrimSpace(string(body))

		return apiErr
	}

	fields := gjson.GetManyBytes(body, "code", "message", "details", "hint")
	apiErr.Code = fields[0].String()
	apiErr.Message = fields[1].String()
	apiErr.Details = fields[2].String()
	apiErr.Hint = fields[3].String()

	return apiErr
}

func classifyLedgerError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.Code == tracker.CodeUndefinedTable || apiErr.Code == codeTableNotInCache) {
		return fmt.Errorf("%w: %w", tracker.ErrLedgerMissing, err)
	}

	return err
}

// classifyFunctionError mirrors how loosely the hosted API reports a missing
// function: besides the SQLSTATE, any message naming a function or saying
// "does not exist" counts.
func classifyFunctionError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	if apiErr.Code == tracker.CodeUndefinedFunction ||
		apiErr.Code == codeFunctionNotInCache ||
		strings.Contains(apiErr.Message, "function") ||
		strings.Contains(apiErr.Message, "does not exist") {
		return fmt.Errorf("%w: %w", tracker.ErrExecFunctionMissing, err)
	}

	return err
}
