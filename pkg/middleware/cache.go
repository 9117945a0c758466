package middleware

import (
	"fmt"
	"net/http"
)

type cacheWriter struct {
	*statusRecorder
	value string
}

func (cw *cacheWriter) WriteHeader(code int) {
	if !cw.wroteHeader && code < http.StatusBadRequest {
		cw.Header().Set("Cache-Control", cw.value)
	}
	cw.statusRecorder.WriteHeader(code)
}

func (cw *cacheWriter) Write(b []byte) (int, error) {
	if !cw.wroteHeader {
		cw.WriteHeader(http.StatusOK)
	}
	return cw.statusRecorder.Write(b)
}

// CacheControl marks successful GET and HEAD responses as publicly cacheable
// for maxAge seconds. Error responses are left uncached.
func CacheControl(maxAge int) func(http.Handler) http.Handler {
	value := fmt.Sprintf("public, max-age=%d", maxAge)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(&cacheWriter{statusRecorder: newStatusRecorder(w), value: value}, r)
		})
	}
}

// NoStore marks responses as private and uncacheable.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
