package middlewares

import "net/http"

// WithNoStore agrega Cache-Control: no-store a la respuesta.
// Para /readyz y /metrics.
func WithNoStore() Middleware {
	return WithCacheControl("no-store")
}

// WithCacheControl agrega Cache-Control con la directiva indicada.
// El handler puede sobreescribirla antes de escribir el header.
func WithCacheControl(directive string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", directive)
			next.ServeHTTP(w, r)
		})
	}
}
