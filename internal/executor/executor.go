// Package executor issues the single outbound HTTPS GET a query execution
// is allowed: one request, basic auth, hard deadline, JSON response.
package executor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opnlab/query-proxy/internal/apperr"
)

const DefaultTimeout = 30 * time.Second

// Request describes one proxied query. Parameters is the full request
// path including the query string and is used verbatim.
type Request struct {
	FQDN         string
	UserMail     string
	UserPassword string
	Parameters   string
	MimeType     string
	Timeout      time.Duration
}

// Result carries the decoded body plus the transport facts the trace log
// wants. On a parse failure Execute returns both a Result (Raw,
// StatusCode and Duration set, Value nil) and the error.
type Result struct {
	Value      interface{}
	Raw        []byte
	StatusCode int
	Duration   time.Duration
}

type Executor struct {
	httpClient *http.Client
	log        *logrus.Entry
}

type loggingTransport struct {
	log *logrus.Entry
}

func New(logger *logrus.Logger) *Executor {
	return &Executor{
		httpClient: &http.Client{
			Transport: &loggingTransport{log: logger.WithField("component", "upstream_transport")},
		},
		log: logger.WithField("component", "executor"),
	}
}

// Execute performs the GET against https://<fqdn><parameters> and returns
// the decoded JSON body. The per-call deadline is the only cancellation:
// on expiry the in-flight connection is aborted and a timeout error is
// returned, distinct from other transport failures. Credentials travel in
// the Authorization header only and are never logged.
func (e *Executor) Execute(ctx context.Context, q Request) (*Result, error) {
	timeout := q.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := "https://" + q.FQDN + q.Parameters

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransport, "build request", err)
	}
	req.SetBasicAuth(q.UserMail, q.UserPassword)
	if q.MimeType != "" {
		req.Header.Set("Accept", q.MimeType)
	} else {
		req.Header.Set("Accept", "application/json")
	}

	start := time.Now()
	log := e.log.WithFields(logrus.Fields{
		"fqdn":    q.FQDN,
		"timeout": timeout,
	})

	resp, err := e.httpClient.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			log.WithField("duration", time.Since(start)).Warn("Upstream request timed out")
			return nil, apperr.Wrap(apperr.KindTimeout, "upstream request timed out", err)
		}
		log.WithError(err).Error("Upstream request failed")
		return nil, apperr.Wrap(apperr.KindTransport, "upstream request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(ctx, err) {
			log.WithField("duration", time.Since(start)).Warn("Upstream response timed out")
			return nil, apperr.Wrap(apperr.KindTimeout, "upstream response timed out", err)
		}
		log.WithError(err).Error("Upstream response interrupted")
		return nil, apperr.Wrap(apperr.KindTransport, "upstream response interrupted", err)
	}

	res := &Result{
		Raw:        body,
		StatusCode: resp.StatusCode,
		Duration:   time.Since(start),
	}

	log.WithFields(logrus.Fields{
		"status_code": res.StatusCode,
		"bytes":       len(body),
		"duration":    res.Duration,
	}).Debug("Upstream request completed")

	if err := json.Unmarshal(body, &res.Value); err != nil {
		return res, &apperr.Error{
			Kind:    apperr.KindParse,
			Message: "upstream response is not valid JSON",
			Raw:     string(body),
			Err:     err,
		}
	}
	return res, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	log := t.log.WithFields(logrus.Fields{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		log.WithError(err).Debug("HTTP request failed")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"status_code": resp.StatusCode,
		"duration":    time.Since(start),
	}).Debug("HTTP request completed")
	return resp, nil
}
