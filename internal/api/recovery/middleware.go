package recovery

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/musui/musui-server/internal/api/respond"
	"github.com/musui/musui-server/internal/metrics"
)

// Message is the body of the 500 written after a panic.
const Message = "Internal server error"

// tracker remembers whether the handler already started the response.
type tracker struct {
	http.ResponseWriter
	started bool
}

func (t *tracker) WriteHeader(code int) {
	t.started = true
	t.ResponseWriter.WriteHeader(code)
}

func (t *tracker) Write(b []byte) (int, error) {
	t.started = true
	return t.ResponseWriter.Write(b)
}

// Middleware turns a handler panic into a logged 500. A response that was
// already started is left as is; http.ErrAbortHandler is re-raised.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := &tracker{ResponseWriter: w}
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			metrics.Panics.Inc()

			logger := zerolog.Ctx(r.Context())
			if logger.GetLevel() == zerolog.Disabled {
				logger = &log.Logger
			}
			logger.Error().
				Interface("panic", rec).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Bool("response_started", tw.started).
				Bytes("stack", debug.Stack()).
				Msg("handler panicked")

			if !tw.started {
				respond.WriteError(w, http.StatusInternalServerError, Message)
			}
		}()
		next.ServeHTTP(tw, r)
	})
}
