package core

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	MaxAttempts       = 5
	NetworkRetryDelay = 5 * time.Second
)

// header the session token travels in
const authHeader = "authenticity_token"

// form fields that carry a token scoped to a single request, these win
// over the session token
var requestTokenFields = []string{"x-csrf-token", "authenticity_token"}

var meter = otel.Meter("ao3.lib.platforms.ao3.core")
var retryCounter, _ = meter.Int64Counter(
	"ao3.http.retries",
	metric.WithDescription("requests to the archive that were retried"),
)

type RequestOptions struct {
	Query  url.Values
	Form   url.Values
	Header map[string]string
	// return a 302 as is instead of following it
	NoRedirect bool
}

// Response is a fully read reply from the archive.
type Response struct {
	Status int
	Reason string
	Header http.Header
	// URL of the request that produced this response, after redirects
	URL  *url.URL
	body []byte
}

func newResponse(res *resty.Response) *Response {
	out := &Response{
		Status: res.StatusCode(),
		Reason: http.StatusText(res.StatusCode()),
		Header: res.Header(),
		body:   res.Body(),
	}
	if res.RawResponse != nil {
		_, reason, found := strings.Cut(res.RawResponse.Status, " ")
		if found && reason != "" {
			out.Reason = reason
		}
		if res.RawResponse.Request != nil {
			out.URL = res.RawResponse.Request.URL
		}
	}
	return out
}

func (r *Response) Text() string {
	return string(r.body)
}

func (r *Response) Bytes() []byte {
	return r.body
}

// Decode unmarshals a json body into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.body, v)
}

// Location is the redirect target of a 3xx response, resolved against
// the request url.
func (r *Response) Location() (*url.URL, bool) {
	loc := r.Header.Get("Location")
	if loc == "" {
		return nil, false
	}
	target, err := url.Parse(loc)
	if err != nil {
		return nil, false
	}
	if r.URL != nil {
		target = r.URL.ResolveReference(target)
	}
	return target, true
}

func successful(status int) bool {
	return (status >= 200 && status < 300) || status == http.StatusFound
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// parseRetryAfter accepts both the delay-seconds and http-date forms.
func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(value)
	if err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	at, err := http.ParseTime(value)
	if err != nil {
		return 0, false
	}
	return max(0, time.Until(at).Truncate(time.Second)), true
}

func isConnectionError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func (c *Client) newRequest(ctx context.Context, opts RequestOptions) *resty.Request {
	if opts.NoRedirect {
		ctx = withoutRedirects(ctx)
	}
	req := c.session().R().SetContext(ctx)
	if opts.Query != nil {
		req.SetQueryParamsFromValues(opts.Query)
	}
	if opts.Form != nil {
		req.SetFormDataFromValues(opts.Form)
	}
	for k, v := range opts.Header {
		req.SetHeader(k, v)
	}

	sessionToken := c.State.Token()
	if sessionToken != "" && req.Header.Get(authHeader) == "" {
		token := sessionToken
		for _, field := range requestTokenFields {
			if v := opts.Form.Get(field); v != "" {
				token = v
				break
			}
		}
		req.SetHeader(authHeader, token)
	}
	return req
}

// Do sends the request, retrying rate limits, transient server errors
// and dropped connections up to MaxAttempts times in total. A 2xx or a
// 302 is a success, any other status fails with *HTTPError.
func (c *Client) Do(ctx context.Context, route Route, opts RequestOptions) (*Response, error) {
	ctx, span := tracer.Start(ctx, "client:Do", trace.WithAttributes(
		attribute.String("method", route.Method),
		attribute.String("url", route.URL),
	))
	defer span.End()

	var last *Response
	var lastErr error
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		var delay time.Duration
		var reason string

		raw, err := c.newRequest(ctx, opts).Execute(route.Method, route.URL)
		if err != nil {
			if ctx.Err() != nil {
				span.RecordError(ctx.Err())
				span.SetStatus(codes.Error, "request cancelled")
				return nil, ctx.Err()
			}
			if !isConnectionError(err) {
				span.RecordError(err)
				span.SetStatus(codes.Error, "request failed")
				return nil, &HTTPError{URL: route.URL, Err: err}
			}
			last, lastErr = nil, err
			delay, reason = NetworkRetryDelay, "network"
			slog.WarnContext(ctx, "network error, retrying", "url", route.URL, "err", err, "delay", delay)
		} else {
			res := newResponse(raw)
			last, lastErr = res, nil

			switch {
			case successful(res.Status):
				span.SetAttributes(attribute.Int("attempts", attempt+1))
				return res, nil
			case res.Status == http.StatusTooManyRequests:
				retryAfter, ok := parseRetryAfter(res.Header.Get("Retry-After"))
				if !ok {
					httpErr := newHTTPError(res, "rate limited without a retry-after")
					span.SetStatus(codes.Error, httpErr.Error())
					return nil, httpErr
				}
				delay, reason = retryAfter+time.Second, "rate_limit"
				slog.WarnContext(ctx, "rate limited, sleeping", "url", route.URL, "delay", delay)
			case retryableStatus(res.Status):
				delay, reason = time.Duration(1+attempt*2)*time.Second, "server_error"
				slog.WarnContext(ctx, "server error, retrying", "url", route.URL, "status", res.Status, "delay", delay)
			default:
				httpErr := newHTTPError(res, "unhandled http error")
				slog.ErrorContext(ctx, "unhandled http error", "url", route.URL, "status", res.Status)
				span.SetStatus(codes.Error, httpErr.Error())
				return nil, httpErr
			}
		}

		if attempt == MaxAttempts-1 {
			break
		}
		retryCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
		span.AddEvent("retry", trace.WithAttributes(
			attribute.String("reason", reason),
			attribute.String("delay", delay.String()),
		))
		err = c.sleep(ctx, delay)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "retry sleep interrupted")
			return nil, err
		}
	}

	var httpErr *HTTPError
	if last != nil {
		httpErr = newHTTPError(last, "gave up after retrying")
	} else {
		httpErr = &HTTPError{URL: route.URL, Err: lastErr}
	}
	span.RecordError(httpErr)
	span.SetStatus(codes.Error, "retries exhausted")
	return nil, httpErr
}

// Text is Do but only returns the body.
func (c *Client) Text(ctx context.Context, route Route, opts RequestOptions) (string, error) {
	res, err := c.Do(ctx, route, opts)
	if err != nil {
		return "", err
	}
	return res.Text(), nil
}

// Stream opens the response body without buffering it. There is no
// retry, the caller must close the returned reader.
func (c *Client) Stream(ctx context.Context, route Route, opts RequestOptions) (io.ReadCloser, error) {
	ctx, span := tracer.Start(ctx, "client:Stream", trace.WithAttributes(
		attribute.String("url", route.URL),
	))
	defer span.End()

	raw, err := c.newRequest(ctx, opts).
		SetDoNotParseResponse(true).
		Execute(route.Method, route.URL)
	if raw != nil && raw.Request != nil {
		// response hooks are skipped for unparsed responses, so the
		// instrumented request span is closed here
		trace.SpanFromContext(raw.Request.Context()).End()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open stream")
		return nil, &HTTPError{URL: route.URL, Err: err}
	}

	body := raw.RawBody()
	if !successful(raw.StatusCode()) {
		if body != nil {
			body.Close()
		}
		httpErr := newHTTPError(newResponse(raw), "failed to open stream")
		span.SetStatus(codes.Error, httpErr.Error())
		return nil, httpErr
	}
	return body, nil
}
