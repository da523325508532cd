// Package shared holds helpers used across packages that belong to no single layer.
//
// The testutil subpackage provides:
//
//	- captured slog handlers with assertions on records
//	- a fake scoring service built on httptest with canned results
//	- result fixtures matching the scoring service contract
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    server := testutil.NewScoringServer(t)
//	    server.Handle("POST /analyze-json", testutil.RespondJSON(http.StatusOK, testutil.ServicesResultJSON))
//	}
package shared
