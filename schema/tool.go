package schema

import "encoding/json"

// ToolInputSchemaProperties maps argument names to their JSON schema.
type ToolInputSchemaProperties map[string]map[string]interface{}

// ToolInputSchema describes the arguments object of a tool.
type ToolInputSchema struct {
	Type       string                    `json:"type"`
	Properties ToolInputSchemaProperties `json:"properties,omitempty"`
	Required   []string                  `json:"required,omitempty"`
}

// Tool is an immutable tool descriptor published by tools/list.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema ToolInputSchema `json:"inputSchema"`
}

type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

type CallToolParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type CallToolResult struct {
	Content []TextContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// NewTextResult wraps text into a single text content result.
func NewTextResult(text string) *CallToolResult {
	return &CallToolResult{Content: []TextContent{{Type: "text", Text: text}}}
}

// Text returns concatenated text content.
func (r *CallToolResult) Text() string {
	ret := ""
	for i, item := range r.Content {
		if i > 0 {
			ret += "\n"
		}
		ret += item.Text
	}
	return ret
}

// NewCallToolParams builds tools/call params from a typed argument struct.
func NewCallToolParams[T any](name string, args *T) (*CallToolParams, error) {
	result := &CallToolParams{Name: name, Arguments: map[string]interface{}{}}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(data, &result.Arguments); err != nil {
		return nil, err
	}
	return result, nil
}
