package promptpoll

import (
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// RequestSpec is the chat-completion request shared read-only by every call of a batch.
type RequestSpec = openai.ChatCompletionRequest

const (
	DefaultModel       = "lmstudio-community/qwen2.5-7b-instruct"
	DefaultTimeout     = 100 * time.Second
	DefaultMaxParallel = 100

	filenameTemperature = 0.7
	filenameMaxTokens   = 10
)

// Settings: The immutable configuration built once at process start and handed to the Poller and payload builders.
type Settings struct {
	Model       string
	Timeout     time.Duration
	MaxParallel int
}

// DefaultSettings: Settings for a local LM Studio server.
func DefaultSettings() Settings {
	return Settings{
		Model:       DefaultModel,
		Timeout:     DefaultTimeout,
		MaxParallel: DefaultMaxParallel,
	}
}

// MainPayload: The request polled N times. The model is offered a single "response" tool carrying the answer text.
func (s Settings) MainPayload(prompt string) RequestSpec {
	return RequestSpec{
		Model: s.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Tools: []openai.Tool{
			{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name: "response",
					Parameters: jsonschema.Definition{
						Type: jsonschema.Object,
						Properties: map[string]jsonschema.Definition{
							"content": {
								Type:        jsonschema.String,
								Description: "A response based on the prompt.",
							},
						},
						Required: []string{"content"},
					},
				},
			},
		},
	}
}

// FilenamePayload: The single request asking the model to name the output file, constrained to a {"filename": string} object.
func (s Settings) FilenamePayload(prompt string) RequestSpec {
	return RequestSpec{
		Model: s.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a helpful assistant that generates concise, descriptive filenames based on user prompts.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Provide a filename for the following prompt: '%s'", prompt),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "filename_response",
				Strict: true,
				Schema: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"filename": {
							Type:        jsonschema.String,
							Description: "A concise filename under 50 characters, relevant to the prompt.",
						},
					},
					Required: []string{"filename"},
				},
			},
		},
		Temperature: filenameTemperature,
		MaxTokens:   filenameMaxTokens,
	}
}
