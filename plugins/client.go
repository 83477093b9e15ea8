package plugins

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/toolmesh/types"
)

// maxErrorBodyBytes bounds how much of a failing response body is kept
// in the error message.
const maxErrorBodyBytes = 4 << 10

// Client speaks the hook protocol to exactly one plugin endpoint.
// Transport failures come back as *types.Error carrying the plugin name
// and error code. It performs no retries; retry policy belongs to the
// Manager.
type Client struct {
	config   types.PluginConfig
	endpoint string
	http     *http.Client
	logger   *zap.Logger
}

// NewClient creates a client for one configured plugin.
func NewClient(config types.PluginConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		config:   config,
		endpoint: strings.TrimRight(config.URL, "/") + "/execute",
		http:     &http.Client{},
		logger:   logger.With(zap.String("plugin", config.Name)),
	}
}

// Name returns the configured plugin name.
func (c *Client) Name() string { return c.config.Name }

// URL returns the configured plugin base URL.
func (c *Client) URL() string { return c.config.URL }

// Describe queries the plugin for its name, version, and tools.
func (c *Client) Describe(ctx context.Context) (*types.DescribeResponse, error) {
	var resp types.DescribeResponse
	if err := c.post(ctx, &types.HookRequest{Hook: types.HookDescribe}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Invoke executes a tool on the plugin. Tool-level failure is returned
// as-is inside the response; only transport failure yields an error.
// An empty sessionID is replaced with a generated one.
func (c *Client) Invoke(ctx context.Context, tool string, args, state map[string]any, sessionID string) (*types.InvokeResponse, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if args == nil {
		args = map[string]any{}
	}
	if state == nil {
		state = map[string]any{}
	}

	req := &types.HookRequest{
		Hook:      types.HookInvoke,
		SessionID: sessionID,
		Payload:   &types.InvokePayload{Tool: tool, Args: args, State: state},
	}

	var resp types.InvokeResponse
	if err := c.post(ctx, req, &resp); err != nil {
		return nil, err
	}
	if resp.SessionID == "" {
		resp.SessionID = sessionID
	}
	return &resp, nil
}

// HealthCheck reports whether the plugin currently answers describe.
func (c *Client) HealthCheck(ctx context.Context) bool {
	_, err := c.Describe(ctx)
	return err == nil
}

// post sends one hook request and decodes the 2xx response body into out.
func (c *Client) post(ctx context.Context, req *types.HookRequest, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return c.wrap(types.ErrPluginUnreachable, "encode request", err)
	}

	timeout := c.config.EffectiveTimeout()
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return c.wrap(types.ErrPluginUnreachable, "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return c.wrap(types.ErrPluginTimeout,
				fmt.Sprintf("%s timed out after %dms", req.Hook, timeout.Milliseconds()), err)
		}
		return c.wrap(types.ErrPluginUnreachable, req.Hook+" request failed", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBodyBytes))
		return c.wrap(types.ErrPluginHTTPError,
			fmt.Sprintf("%s returned status %d: %s", req.Hook, httpResp.StatusCode, strings.TrimSpace(string(respBody))), nil).
			WithHTTPStatus(httpResp.StatusCode)
	}

	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return c.wrap(types.ErrPluginHTTPError, "decode "+req.Hook+" response", err)
	}
	return nil
}

func (c *Client) wrap(code types.ErrorCode, message string, cause error) *types.Error {
	return types.NewError(code, fmt.Sprintf("plugin %s (%s): %s", c.config.Name, c.config.URL, message)).
		WithPlugin(c.config.Name).
		WithCause(cause)
}

// Timeout returns the effective per-call timeout of the client.
func (c *Client) Timeout() time.Duration {
	return c.config.EffectiveTimeout()
}
