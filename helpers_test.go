package promptpoll_test

import (
	"context"
	"encoding/json"
)

type transportFunc func(ctx context.Context, body []byte) (int, []byte, error)

func (f transportFunc) Send(ctx context.Context, body []byte) (int, []byte, error) {
	return f(ctx, body)
}

func completionBody(content string) []byte {
	body, _ := json.Marshal(map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			},
		},
	})
	return body
}

func answering(content string) transportFunc {
	return func(ctx context.Context, body []byte) (int, []byte, error) {
		return 200, completionBody(content), nil
	}
}
