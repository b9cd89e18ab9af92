// Package tools implements the concrete handlers the Tool Registry
// dispatches: an outbound REST caller, a broker publisher, a JSON
// transformer, a ticket opener, and a JMS router (spec §4.3).
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/execctx"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/secrets"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/serviceconfig"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/toolregistry"
)

// ErrHTTPError is the distinguished transport-failure kind call_rest raises;
// a 5xx status response is not an error here — the Critic decides (spec
// §4.3, §4.5).
var ErrHTTPError = errors.New("http_error")

// RESTCaller implements the call_rest tool: prefix-routed outbound HTTP
// requests with a 5-second timeout.
type RESTCaller struct {
	client   *http.Client
	services *serviceconfig.Document
	secrets  *secrets.Provider
}

// NewRESTCaller builds a RESTCaller routed by services and authenticated via
// provider.
func NewRESTCaller(services *serviceconfig.Document, provider *secrets.Provider) *RESTCaller {
	return &RESTCaller{
		client:   &http.Client{Timeout: 5 * time.Second},
		services: services,
		secrets:  provider,
	}
}

// Tool returns the registry entry for call_rest.
func (c *RESTCaller) Tool() toolregistry.Tool {
	return toolregistry.Tool{Name: "call_rest", Handler: c.Handle}
}

// Handle executes one call_rest invocation. params: {url, method, body?}.
func (c *RESTCaller) Handle(ctx context.Context, params toolregistry.Params, _ bool) (toolregistry.Result, error) {
	rawURL, _ := params["url"].(string)
	method, _ := params["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	targetURL, authHeader, err := c.resolveTarget(rawURL)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if body, ok := params["body"]; ok && body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: marshaling request body: %v", ErrHTTPError, err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, targetURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrHTTPError, err)
	}
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	if ec, ok := execctx.FromContext(ctx); ok {
		req.Header.Set("x-trace-id", ec.Event.TraceID)
		for name, value := range ec.Event.Headers {
			req.Header.Set(name, value)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTTPError, err)
	}
	defer resp.Body.Close()

	result := toolregistry.Result{"status": resp.StatusCode}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "application/json" {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: reading response body: %v", ErrHTTPError, err)
		}
		var decoded interface{}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, fmt.Errorf("%w: decoding json response: %v", ErrHTTPError, err)
		}
		result["json"] = decoded
	} else {
		result["json"] = nil
	}

	return result, nil
}

// resolveTarget routes rawURL to a base URL and auth header. Absolute URLs
// (scheme-prefixed) are used verbatim with no base and no auth; /crm/ and
// /wms/ prefixes map to the correspondingly named service.
func (c *RESTCaller) resolveTarget(rawURL string) (targetURL, authHeader string, err error) {
	if strings.Contains(rawURL, "://") {
		return rawURL, "", nil
	}

	svc, ok := c.lookupServiceByURL(rawURL)
	if !ok {
		return rawURL, "", nil
	}

	targetURL = strings.TrimRight(svc.BaseURL, "/") + rawURL
	if auth, ok := svc.ParsedAuth(); ok {
		authHeader, err = c.secrets.BuildAuthHeader(auth)
		if err != nil {
			return "", "", fmt.Errorf("resolving auth for %s: %w", rawURL, err)
		}
	}
	return targetURL, authHeader, nil
}

func (c *RESTCaller) lookupServiceByURL(rawURL string) (serviceconfig.Service, bool) {
	trimmed := strings.TrimPrefix(rawURL, "/")
	name, _, _ := strings.Cut(trimmed, "/")
	return c.services.Lookup(name)
}
