package promptpoll

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// NoResponse is recorded when a successful body carries no message content.
	NoResponse = "No response returned"
	// DefaultFilename is used whenever no usable filename can be extracted.
	DefaultFilename = "default_filename"
)

var ErrMalformedResponse = errors.New("invalid JSON in response")

var filenamePattern = regexp.MustCompile(`filename"\s*:\s*"([^"]+)`)

// rawFilenamePattern also matches the JSON-escaped form found inside a chat envelope's content string.
var rawFilenamePattern = regexp.MustCompile(`filename\\?"\s*:\s*\\?"([^"\\]+)`)

// ParseAnswer: Extracts choices[0].message.content from a completion body. Missing content is not an error and yields NoResponse.
func ParseAnswer(raw []byte) (string, error) {
	content, err := messageContent(raw)
	if err != nil {
		return "", err
	}
	if content == "" {
		return NoResponse, nil
	}
	return content, nil
}

// ParseFilename: Reads the "filename" field from the model's structured output.
// Truncated or near-valid JSON falls back to a pattern search; anything else yields DefaultFilename.
func ParseFilename(text string) string {
	var parsed struct {
		Filename *string `json:"filename"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err == nil {
		if parsed.Filename == nil {
			return DefaultFilename
		}
		return *parsed.Filename
	}

	if match := filenamePattern.FindStringSubmatch(text); match != nil {
		return match[1]
	}
	return DefaultFilename
}

// parseRawFilename searches an undecodable response body for the filename field.
func parseRawFilename(raw string) string {
	if match := rawFilenamePattern.FindStringSubmatch(raw); match != nil {
		return match[1]
	}
	return DefaultFilename
}

func messageContent(raw []byte) (string, error) {
	var resp openai.ChatCompletionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
