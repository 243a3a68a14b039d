package providers

import (
	"net/http"
	"time"
)

// recorder keeps the first status sent; a handler that only writes a body
// answered 200.
type recorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *recorder) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *recorder) Write(b []byte) (int, error) {
	if !w.written {
		w.status = http.StatusOK
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}

func (w *recorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// MetricsMiddleware records request counts and latency per API route. Paths
// the router does not serve share the OtherRoute label, so requests for
// arbitrary URLs cannot grow the label set.
func MetricsMiddleware(metrics MetricsProviderInterface, router RouterProviderInterface, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &recorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := router.RouteLabel(r.URL.Path)
		metrics.IncRequestsTotal(route, rec.status)
		metrics.ObserveRequestDuration(route, time.Since(start))
	})
}
