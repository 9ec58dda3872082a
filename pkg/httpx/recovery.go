package httpx

import (
	"net/http"
	"runtime/debug"

	"github.com/aussiebroadwan/notesauth/pkg/slogx"
)

// Recovery turns a handler panic into a generic 500 and logs the stack.
// http.ErrAbortHandler is re-panicked so net/http can abort the response.
func Recovery() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				slogx.FromContext(r.Context()).Error("panic recovered",
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				ErrServerError.WriteError(w)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
