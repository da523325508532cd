package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// RemoteError is a non-2xx answer from the scoring service
type RemoteError struct {
	StatusCode int
	// Detail is the server's "detail" message, empty when the body carried none
	Detail string
}

func (e *RemoteError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("scoring service returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("scoring service returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// DetailOf returns the server-supplied detail carried by err, or "" if there is none
func DetailOf(err error) string {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Detail
	}
	return ""
}

// errorBody is the error envelope of the scoring service. Validation failures send
// detail as an array, which counts as no detail.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

func parseDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(eb.Detail, &detail); err != nil {
		return ""
	}
	return detail
}
