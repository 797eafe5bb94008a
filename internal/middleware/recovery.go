package middleware

import (
	"errors"
	"log/slog"
	"net/http"
)

// Recover converts a panicking handler into a 500 response with a generic
// JSON error body. The panic value is logged, never returned to the client.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				log := logger
				if log == nil {
					log = LoggerFromContext(r.Context())
				}
				log.ErrorContext(r.Context(), "handler panicked",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Any("panic", rec),
				)

				if rw.written {
					return
				}
				rw.Header().Set("Content-Type", "application/json")
				rw.WriteHeader(http.StatusInternalServerError)
				_, _ = rw.Write([]byte(`{"error":"internal server error"}` + "\n"))
			}()

			next.ServeHTTP(rw, r)
		})
	}
}
