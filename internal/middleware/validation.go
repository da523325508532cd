package middleware

import (
	"mime"
	"net/http"
	"strings"

	apierrors "finhealth/internal/errors"
)

// BodyLimit caps request bodies at maxBytes. Reads beyond the limit fail with
// *http.MaxBytesError, which the error handler maps to 413.
func BodyLimit(maxBytes int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				problem := apierrors.NewProblemDetails(
					http.StatusRequestEntityTooLarge,
					apierrors.TypePayloadTooLarge,
					"Payload Too Large",
					"The request body exceeds the maximum allowed size",
					r.URL.Path,
				).
					WithExtension("limit", maxBytes).
					WithExtension("trace_id", GetRequestID(r.Context()))
				writeRendered(w, r, problem)
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContentTypeValidator ensures requests with a body use one of the given media types
func ContentTypeValidator(contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			// Bodyless action posts are allowed
			contentType := r.Header.Get("Content-Type")
			if contentType == "" && r.ContentLength <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			mediaType, _, err := mime.ParseMediaType(contentType)
			if err == nil {
				for _, allowed := range contentTypes {
					if strings.EqualFold(mediaType, allowed) {
						next.ServeHTTP(w, r)
						return
					}
				}
			}

			problem := apierrors.NewProblemDetails(
				http.StatusUnsupportedMediaType,
				apierrors.TypeValidation,
				"Unsupported Media Type",
				"Unsupported content type",
				r.URL.Path,
			).
				WithExtension("content_type", contentType).
				WithExtension("allowed", contentTypes).
				WithExtension("trace_id", GetRequestID(r.Context()))
			writeRendered(w, r, problem)
		})
	}
}
