package http

import (
	"context"
	"fmt"
	"net"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const (
	rateLimitMessage   = "You're browsing the demos a bit too quickly. Please wait a moment and try again."
	requestIDHeader    = "X-Request-ID"
	sentryFlushTimeout = 2 * time.Second
)

func (s *Server) sentryMiddleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if s.sentry == nil {
			next(ctx)
			return
		}

		hub := s.sentry.Clone()
		scope := hub.Scope()
		scope.SetTag("http.method", ctx.Method())
		if op := ctx.Operation(); op != nil {
			scope.SetTag("http.route", op.Path)
			scope.SetTag("http.operation", op.OperationID)
		}

		ctx = huma.WithContext(ctx, sentry.SetHubOnContext(ctx.Context(), hub))
		defer hub.Flush(sentryFlushTimeout)

		next(ctx)
	}
}

func (s *Server) recoveryMiddleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", rec)
			}
			s.recordError(ctx.Context(), err, "panic recovered", requestFields(ctx))

			if hub := sentry.GetHubFromContext(ctx.Context()); hub != nil {
				hub.RecoverWithContext(ctx.Context(), rec)
				hub.Flush(sentryFlushTimeout)
			}

			s.writeError(ctx, stdhttp.StatusInternalServerError, errorFallbackMessage)
		}()

		next(ctx)
	}
}

// requestIDMiddleware keeps a caller-supplied UUID request ID so traces can be
// joined across a proxy, and mints one otherwise.
func (s *Server) requestIDMiddleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		reqID := strings.TrimSpace(ctx.Header(requestIDHeader))
		if _, err := uuid.Parse(reqID); err != nil {
			reqID = uuid.NewString()
		}

		goCtx := context.WithValue(ctx.Context(), requestIDContextKey, reqID)
		ctx = huma.WithContext(ctx, goCtx)
		ctx.SetHeader(requestIDHeader, reqID)

		if hub := sentry.GetHubFromContext(goCtx); hub != nil {
			hub.Scope().SetTag("request_id", reqID)
		}

		next(ctx)
	}
}

// demoMiddleware records which demo a slug-routed request is about, so the
// access log, error reports and Sentry events can be filtered per demo.
func (s *Server) demoMiddleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		slug := strings.TrimSpace(ctx.Param("slug"))
		if slug == "" {
			next(ctx)
			return
		}

		goCtx := context.WithValue(ctx.Context(), demoSlugContextKey, slug)
		ctx = huma.WithContext(ctx, goCtx)

		if hub := sentry.GetHubFromContext(goCtx); hub != nil {
			hub.Scope().SetTag("demo.slug", slug)
		}

		next(ctx)
	}
}

func (s *Server) rateLimitMiddleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if s.rateLimiter == nil || isHealthCheck(ctx.Operation()) {
			next(ctx)
			return
		}

		ip := clientIP(ctx)
		if s.rateLimiter.Allow(ip) {
			next(ctx)
			return
		}

		if s.logger != nil {
			s.logger.WithError(eris.New("rate limit exceeded")).
				WithFields(requestFields(ctx)).
				WithField("ip", ip).
				Warn("request rate limited")
		}

		ctx.SetHeader("Retry-After", "1")
		s.writeError(ctx, stdhttp.StatusTooManyRequests, rateLimitMessage)
	}
}

func (s *Server) loggingMiddleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if s.logger == nil {
			next(ctx)
			return
		}

		start := time.Now()
		next(ctx)

		status := ctx.Status()
		if status == 0 {
			status = stdhttp.StatusOK
		}

		entry := s.logger.WithFields(requestFields(ctx)).WithFields(logrus.Fields{
			"status":      status,
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000,
		})
		switch {
		case status >= stdhttp.StatusInternalServerError:
			entry.Error("request failed")
		case status == stdhttp.StatusNotFound && DemoSlugFromContext(ctx.Context()) != "":
			entry.Warn("demo not found")
		default:
			entry.Info("request completed")
		}
	}
}

// requestFields are the log fields shared by the access log, rate limiting and panics.
func requestFields(ctx huma.Context) logrus.Fields {
	fields := logrus.Fields{
		"method":      ctx.Method(),
		"path":        ctx.URL().Path,
		"remote_addr": ctx.RemoteAddr(),
	}
	if op := ctx.Operation(); op != nil {
		fields["route"] = op.Path
		fields["operation"] = op.OperationID
	}
	if requestID := RequestIDFromContext(ctx.Context()); requestID != "" {
		fields["request_id"] = requestID
	}
	if slug := DemoSlugFromContext(ctx.Context()); slug != "" {
		fields["demo_slug"] = slug
	}
	return fields
}

func isHealthCheck(op *huma.Operation) bool {
	return op != nil && op.OperationID == healthOperation
}

func clientIP(ctx huma.Context) string {
	if forwarded := strings.TrimSpace(ctx.Header("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if candidate := strings.TrimSpace(first); candidate != "" {
			return candidate
		}
	}

	if realIP := strings.TrimSpace(ctx.Header("X-Real-IP")); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(ctx.RemoteAddr())
	if err != nil {
		return strings.TrimSpace(ctx.RemoteAddr())
	}
	return host
}
