package api

import (
	// Go Internal Packages
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"

	// External Packages
	"github.com/aws/aws-lambda-go/events"
)

// ProxyHandler serves API Gateway proxy events through an http.Handler.
type ProxyHandler func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

func NewProxyHandler(handler http.Handler) ProxyHandler {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		r, err := toHTTPRequest(ctx, req)
		if err != nil {
			return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: `{"error":"malformed request"}`}, nil
		}

		w := newResponseBuffer()
		handler.ServeHTTP(w, r)

		resp := events.APIGatewayProxyResponse{
			StatusCode:        w.status,
			Headers:           make(map[string]string, len(w.header)),
			MultiValueHeaders: map[string][]string(w.header),
			Body:              w.body.String(),
		}
		for k, v := range w.header {
			if len(v) > 0 {
				resp.Headers[k] = v[0]
			}
		}
		return resp, nil
	}
}

func toHTTPRequest(ctx context.Context, req events.APIGatewayProxyRequest) (*http.Request, error) {
	query := url.Values{}
	for k, vs := range req.MultiValueQueryStringParameters {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	for k, v := range req.QueryStringParameters {
		if _, ok := query[k]; !ok {
			query.Set(k, v)
		}
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return nil, err
		}
		body = decoded
	}

	u := url.URL{Path: req.Path, RawQuery: query.Encode()}
	method := req.HTTPMethod
	if method == "" {
		method = http.MethodGet
	}
	r, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, v := range req.Headers {
		r.Header.Set(k, v)
	}
	for k, vs := range req.MultiValueHeaders {
		r.Header.Del(k)
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}
	r.RemoteAddr = req.RequestContext.Identity.SourceIP
	r.Host = strings.TrimSpace(req.Headers["Host"])
	return r, nil
}

type responseBuffer struct {
	header      http.Header
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{header: http.Header{}, status: http.StatusOK}
}

func (b *responseBuffer) Header() http.Header { return b.header }

func (b *responseBuffer) WriteHeader(status int) {
	if b.wroteHeader {
		return
	}
	b.status = status
	b.wroteHeader = true
}

func (b *responseBuffer) Write(p []byte) (int, error) {
	b.wroteHeader = true
	return b.body.Write(p)
}
