package scheduling

import (
	"encoding/json"

	log "github.com/sirupsen/logrus"
)

// ToolCall is one normalized tool invocation from the voice platform.
type ToolCall struct {
	Id   string
	Args map[string]any
}

// ParseToolCalls extracts tool calls from a webhook body. The voice platform
// sends them in several shapes (top-level toolCalls, message.toolCalls,
// toolCallList) with args as an object, a JSON string, or nested under
// function.arguments; all variants are accepted.
func ParseToolCalls(body map[string]any) []ToolCall {
	raw := toolCallList(body)

	calls := make([]ToolCall, 0, len(raw))
	for _, item := range raw {
		tc, ok := item.(map[string]any)
		if !ok {
			continue
		}
		calls = append(calls, ToolCall{
			Id:   toolCallId(tc),
			Args: toolCallArgs(tc),
		})
	}
	return calls
}

func toolCallList(body map[string]any) []any {
	if list, ok := body["toolCalls"].([]any); ok && len(list) > 0 {
		return list
	}
	if message, ok := body["message"].(map[string]any); ok {
		if list, ok := message["toolCalls"].([]any); ok && len(list) > 0 {
			return list
		}
	}
	if list, ok := body["toolCallList"].([]any); ok {
		return list
	}
	return nil
}

func toolCallId(tc map[string]any) string {
	if id, ok := tc["id"].(string); ok && id != "" {
		return id
	}
	if id, ok := tc["toolCallId"].(string); ok && id != "" {
		return id
	}
	return "unknown"
}

func toolCallArgs(tc map[string]any) map[string]any {
	var raw any
	if v, ok := tc["args"]; ok {
		raw = v
	} else if v, ok := tc["parameters"]; ok {
		raw = v
	} else if fn, ok := tc["function"].(map[string]any); ok {
		raw = fn["arguments"]
	}

	switch args := raw.(type) {
	case map[string]any:
		return args
	case string:
		var parsed map[string]any
		if err := json.Unmarshal([]byte(args), &parsed); err != nil {
			log.Errorf("failed to parse tool call args %q: %v", args, err)
			return map[string]any{}
		}
		return parsed
	default:
		return map[string]any{}
	}
}
