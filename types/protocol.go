package types

// Hook names of the plugin execution endpoint. Every request posted to
// {pluginURL}/execute carries exactly one of these in its "hook" field.
const (
	HookDescribe = "describe"
	HookInvoke   = "invoke"
)

// HookRequest is the single request envelope of the plugin protocol,
// discriminated by Hook. Payload is only set for invoke requests.
type HookRequest struct {
	Hook      string         `json:"hook"`
	SessionID string         `json:"sessionId,omitempty"`
	Payload   *InvokePayload `json:"payload,omitempty"`
}

// InvokePayload carries the tool call of an invoke request.
type InvokePayload struct {
	Tool  string         `json:"tool"`
	Args  map[string]any `json:"args"`
	State map[string]any `json:"state"`
}

// DescribeResponse is the describe hook's response body.
type DescribeResponse struct {
	Name    string           `json:"name"`
	Version string           `json:"version"`
	Tools   []ToolDefinition `json:"tools"`
}

// InvokeError is the structured failure a plugin reports for a tool call.
type InvokeError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// InvokeResponse is the invoke hook's response body. Tool-level failure
// is still HTTP 200: Success is false and Error is populated.
type InvokeResponse struct {
	SessionID string         `json:"sessionId,omitempty"`
	Success   bool           `json:"success"`
	Result    any            `json:"result,omitempty"`
	Error     *InvokeError   `json:"error,omitempty"`
	State     map[string]any `json:"state,omitempty"`
}

// NewInvokeFailure builds a structured failure response in the same shape
// a plugin would return, for failures produced by the registry itself.
func NewInvokeFailure(sessionID string, code ErrorCode, message string) *InvokeResponse {
	return &InvokeResponse{
		SessionID: sessionID,
		Success:   false,
		Error:     &InvokeError{Code: string(code), Message: message},
	}
}
