package gateway

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type loggingTransport struct {
	next http.RoundTripper
}

func newLoggingTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}

	return &loggingTransport{next: next}
}

func (l *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	startTime := time.Now()
	resp, err := l.next.RoundTrip(req)

	requestLogger := log.With().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("latency", time.Since(startTime).String()).
		Logger()

	if err != nil {
		requestLogger.Warn().Err(err).Msg("HTTP Request failed")
		return resp, err
	}

	code := resp.StatusCode

	switch {
	case code >= http.StatusBadRequest && code < http.StatusInternalServerError:
		requestLogger.Warn().Int("status", code).Msg("HTTP Request")
	case code >= http.StatusInternalServerError:
		requestLogger.Error().Int("status", code).Msg("HTTP Request")
	default:
		requestLogger.Debug().Int("status", code).Msg("HTTP Request")
	}

	return resp, nil
}
