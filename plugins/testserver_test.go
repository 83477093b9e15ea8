package plugins

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/BaSui01/toolmesh/types"
)

// fakePlugin is an in-process plugin service speaking the hook protocol.
type fakePlugin struct {
	name    string
	version string
	tools   []types.ToolDefinition

	mu            sync.Mutex
	describeCalls int
	invokeCalls   int
	unhealthy     bool
	invokeFn      func(payload *types.InvokePayload, sessionID string) *types.InvokeResponse

	server *httptest.Server
}

func newFakePlugin(t *testing.T, name, version string, tools ...types.ToolDefinition) *fakePlugin {
	t.Helper()

	p := &fakePlugin{name: name, version: version, tools: tools}
	p.server = httptest.NewServer(http.HandlerFunc(p.handle))
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakePlugin) url() string { return p.server.URL }

func (p *fakePlugin) config() types.PluginConfig {
	return types.PluginConfig{Name: p.name, URL: p.server.URL}
}

func (p *fakePlugin) setUnhealthy(v bool) {
	p.mu.Lock()
	p.unhealthy = v
	p.mu.Unlock()
}

func (p *fakePlugin) counts() (describe, invoke int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.describeCalls, p.invokeCalls
}

func (p *fakePlugin) handle(w http.ResponseWriter, r *http.Request) {
	var req types.HookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	unhealthy := p.unhealthy
	invokeFn := p.invokeFn
	switch req.Hook {
	case types.HookDescribe:
		p.describeCalls++
	case types.HookInvoke:
		p.invokeCalls++
	}
	p.mu.Unlock()

	if unhealthy {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	switch req.Hook {
	case types.HookDescribe:
		writeJSON(w, types.DescribeResponse{Name: p.name, Version: p.version, Tools: p.tools})

	case types.HookInvoke:
		if invokeFn != nil {
			writeJSON(w, invokeFn(req.Payload, req.SessionID))
			return
		}
		// Default: echo the args back as the result.
		writeJSON(w, types.InvokeResponse{
			SessionID: req.SessionID,
			Success:   true,
			Result:    req.Payload.Args,
			State:     req.Payload.State,
		})

	default:
		http.Error(w, "unknown hook", http.StatusBadRequest)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// fastManagerConfig keeps discovery retries short enough for tests.
func fastManagerConfig() *ManagerConfig {
	return &ManagerConfig{
		QuickAttempts:      2,
		QuickRetryDelay:    10 * time.Millisecond,
		BackgroundInterval: 20 * time.Millisecond,
		BackgroundWindow:   5 * time.Second,
		ValidateArgs:       true,
	}
}
