// Package errors provides the console's HTTP error model.
//
// Failures on the console's HTTP surface are reported as RFC 7807 problem
// details rendered with chi/render. APIError carries a status, a stable error
// code and optional details; ErrorHandler maps any error to a ProblemDetails
// value, logs it with the request ID and writes it. AppError classifies startup
// and export failures that never reach a client.
package errors
