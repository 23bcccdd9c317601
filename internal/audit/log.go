// Package audit writes the trail of committed state changes.
package audit

import (
	"context"
	"io"
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutoring_toolbox/internal/auth"
)

type ctxKey struct{}

// WithRequestID attaches the request identifier to the context for audit logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, requestID)
}

// requestIDFromContext prefers an explicit id and falls back to chi's.
func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return v
	}
	return middleware.GetReqID(ctx)
}

// Logger writes audit entries to a named zap logger. Entry ids are ULIDs
// stamped with the logger's clock, so they sort in commit order.
type Logger struct {
	log *zap.Logger
	now func() time.Time

	mu      sync.Mutex
	entropy io.Reader
}

type Option func(*Logger)

// WithClock stamps entry ids with now instead of time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}

func New(log *zap.Logger, opts ...Option) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Logger{
		log:     log.Named("audit"),
		now:     time.Now,
		entropy: ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Logger) nextID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(l.now()), l.entropy).String()
}

// Record logs event enriched with request and caller context and returns the entry id.
func (l *Logger) Record(ctx context.Context, event string, fields ...zap.Field) string {
	id := l.nextID()

	all := make([]zap.Field, 0, len(fields)+4)
	all = append(all, zap.String("audit_id", id), zap.String("event", event))
	if rid := requestIDFromContext(ctx); rid != "" {
		all = append(all, zap.String("request_id", rid))
	}
	if caller, ok := auth.CallerFromContext(ctx); ok {
		all = append(all, zap.Int64("actor_id", caller.ID))
	}
	all = append(all, fields...)

	l.log.Info("audit", all...)
	return id
}
