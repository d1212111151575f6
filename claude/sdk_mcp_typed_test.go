package claude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type EchoParams struct {
	Text string `json:"text" jsonschema:"required,description=Text to echo back"`
}

type AddParams struct {
	A float64 `json:"a" jsonschema:"required,description=First operand"`
	B float64 `json:"b" jsonschema:"required,description=Second operand"`
}

type OptionalParams struct {
	Name  string `json:"name" jsonschema:"required"`
	Count int    `json:"count,omitempty" jsonschema:"description=Repeat count"`
}

func TestTypedToolRegistry(t *testing.T) {
	registry := NewTypedToolRegistry()
	AddTool(registry, "echo", "Echo back the input text",
		func(ctx context.Context, params EchoParams) (string, error) {
			return "Echo: " + params.Text, nil
		})
	AddTool(registry, "add", "Add two numbers",
		func(ctx context.Context, params AddParams) (string, error) {
			return fmt.Sprintf("%g", params.A+params.B), nil
		})

	t.Run("tools list", func(t *testing.T) {
		tools := registry.Tools()
		require.Len(t, tools, 2)
		assert.Equal(t, "echo", tools[0].Name)
		assert.Equal(t, "Echo back the input text", tools[0].Description)
		assert.Equal(t, "add", tools[1].Name)
	})

	t.Run("schema generation", func(t *testing.T) {
		tools := registry.Tools()

		var schema map[string]interface{}
		require.NoError(t, json.Unmarshal(tools[0].InputSchema, &schema))
		assert.Equal(t, "object", schema["type"])

		props, ok := schema["properties"].(map[string]interface{})
		require.True(t, ok, "schema must have properties")
		text, ok := props["text"].(map[string]interface{})
		require.True(t, ok, "text property missing")
		assert.Equal(t, "string", text["type"])
		assert.Equal(t, "Text to echo back", text["description"])

		required, ok := schema["required"].([]interface{})
		require.True(t, ok, "required list missing")
		assert.Contains(t, required, "text")
	})

	t.Run("invoke", func(t *testing.T) {
		result, err := registry.HandleToolCall(context.Background(), "echo", json.RawMessage(`{"text":"hi"}`))
		require.NoError(t, err)
		require.Len(t, result.Content, 1)
		assert.False(t, result.IsError)
		assert.Equal(t, "Echo: hi", result.Content[0].Text)

		result, err = registry.HandleToolCall(context.Background(), "add", json.RawMessage(`{"a":1,"b":2}`))
		require.NoError(t, err)
		assert.Equal(t, "3", result.Content[0].Text)
	})

	t.Run("unknown tool", func(t *testing.T) {
		result, err := registry.HandleToolCall(context.Background(), "nope", json.RawMessage(`{}`))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, result.Content[0].Text, "Unknown tool")
	})

	t.Run("invalid arguments", func(t *testing.T) {
		_, err := registry.HandleToolCall(context.Background(), "echo", json.RawMessage(`{"text":`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid arguments")
	})
}

func TestTypedToolErrorInBand(t *testing.T) {
	registry := NewTypedToolRegistry()
	AddTool(registry, "fail", "Always fails",
		func(ctx context.Context, params EchoParams) (string, error) {
			return "", errors.New("backend unavailable")
		})

	result, err := registry.HandleToolCall(context.Background(), "fail", json.RawMessage(`{"text":"x"}`))
	require.NoError(t, err, "handler errors are returned in-band, not as call errors")
	assert.True(t, result.IsError)
	assert.Equal(t, "backend unavailable", result.Content[0].Text)
}

func TestTypedToolOptionalFields(t *testing.T) {
	registry := NewTypedToolRegistry()
	AddTool(registry, "repeat", "Repeat a name",
		func(ctx context.Context, params OptionalParams) (string, error) {
			count := params.Count
			if count == 0 {
				count = 1
			}
			out := ""
			for i := 0; i < count; i++ {
				out += params.Name
			}
			return out, nil
		})

	// Omitted optional field takes its zero value.
	result, err := registry.HandleToolCall(context.Background(), "repeat", json.RawMessage(`{"name":"ab"}`))
	require.NoError(t, err)
	assert.Equal(t, "ab", result.Content[0].Text)

	result, err = registry.HandleToolCall(context.Background(), "repeat", json.RawMessage(`{"name":"ab","count":3}`))
	require.NoError(t, err)
	assert.Equal(t, "ababab", result.Content[0].Text)

	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal(registry.Tools()[0].InputSchema, &schema))
	required, ok := schema["required"].([]interface{})
	require.True(t, ok)
	assert.Contains(t, required, "name")
	assert.NotContains(t, required, "count")
}
