// Package probe sends JSON requests to the management host that sits next
// to the Amari stack.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"time"

	"github.com/mobilenet/amaribridge/pkg/log"
)

// HTTPClient abstracts HTTP request execution. *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultTimeout bounds a probe when the target does not set one.
const DefaultTimeout = 5 * time.Second

// Target addresses one resource on the management host.
type Target struct {
	Host     string
	Port     int
	Resource string
	Method   string
	Query    url.Values
	Body     any
	Timeout  time.Duration
}

// URL returns http://<host>:<port><resource>?<query>.
func (t Target) URL() string {
	u := url.URL{
		Scheme:   "http",
		Host:     net.JoinHostPort(t.Host, strconv.Itoa(t.Port)),
		Path:     t.Resource,
		RawQuery: t.Query.Encode(),
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// Response is the outcome of a probe. Transport failures are reported with
// Status 500 and the error class as Reason.
type Response struct {
	Status int    `json:"status"`
	Reason string `json:"reason"`
	Body   any    `json:"response"`
}

// OK reports a 2xx status.
func (r Response) OK() bool {
	return r.Status/100 == 2
}

// Prober issues requests to management hosts.
type Prober struct {
	client HTTPClient
	logger log.Logger
}

// New creates a Prober. A nil client uses http.DefaultClient.
func New(client HTTPClient, logger log.Logger) *Prober {
	if client == nil {
		client = http.DefaultClient
	}
	return &Prober{client: client, logger: log.OrNoop(logger)}
}

// Do sends the request described by t. The returned error is non-nil only
// when the request could not be built or the body could not be decoded;
// transport failures and non-2xx answers are reported in the Response.
func (p *Prober) Do(ctx context.Context, t Target) (Response, error) {
	method := t.Method
	if method == "" {
		method = http.MethodGet
	}
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if method == http.MethodPost && t.Body != nil {
		b, err := json.Marshal(t.Body)
		if err != nil {
			return Response{}, fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	target := t.URL()
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	p.logger.Info("sending request", log.String("method", method), log.String("url", target))

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Error("request failed", log.String("url", target), log.Err(err))
		return Response{Status: http.StatusInternalServerError, Reason: errorClass(err)}, nil
	}
	defer resp.Body.Close()

	reason := http.StatusText(resp.StatusCode)
	if resp.StatusCode/100 != 2 {
		p.logger.Error("unexpected status", log.String("url", target), log.Int("status", resp.StatusCode))
		return Response{Status: resp.StatusCode, Reason: reason}, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{Status: http.StatusInternalServerError, Reason: errorClass(err)}, nil
	}
	var decoded any
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return Response{Status: resp.StatusCode, Reason: reason}, fmt.Errorf("decode response: %w", err)
		}
	}
	p.logger.Debug("request status", log.Int("status", resp.StatusCode))
	return Response{Status: resp.StatusCode, Reason: reason, Body: decoded}, nil
}

// Ping issues a GET on resource.
func (p *Prober) Ping(ctx context.Context, host string, port int, resource string) (Response, error) {
	return p.Do(ctx, Target{Host: host, Port: port, Resource: resource})
}

// errorClass names the failure the way an operator reads it: "Timeout",
// "ConnectError" or the concrete error type.
func errorClass(err error) string {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return "Timeout"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Timeout"
	}
	var oe *net.OpError
	if errors.As(err, &oe) {
		return "ConnectError"
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return reflect.TypeOf(ue.Err).String()
	}
	return reflect.TypeOf(err).String()
}
