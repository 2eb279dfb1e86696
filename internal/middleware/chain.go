package middleware

import "net/http"

// Middleware wraps a handler with cross-cutting request behavior.
type Middleware func(http.Handler) http.Handler

// Chain wraps h so that the first middleware sees the request first.
// Nil entries are skipped, which lets callers pass optional layers inline.
//
//	handler := Chain(mux,
//	    RequestID,      // tags the request
//	    CORS,           // answers preflights before routing
//	    RequestLogging, // innermost, sees the matched route pattern
//	)
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] == nil {
			continue
		}
		h = middlewares[i](h)
	}
	return h
}
