package promptpoll

import (
	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

// EstimateTokens: Approximate prompt tokens of spec's messages.
// Models tiktoken does not know (most local models) are counted with cl100k_base.
func EstimateTokens(spec RequestSpec) (int, error) {
	encoding, err := tiktoken.EncodingForModel(spec.Model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return 0, err
		}
	}

	total := 0
	for _, msg := range spec.Messages {
		total += len(encoding.Encode(msg.Role, nil, nil))
		total += len(encoding.Encode(msg.Content, nil, nil))
	}
	return total, nil
}
