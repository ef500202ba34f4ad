// Package tokens estimates the token footprint of a chat transcript so the
// history can be trimmed under a model's context budget.
package tokens

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sashabaranov/go-openai"
)

const fallbackEncoding = "cl100k_base"

// tokensPerMessage is the fixed per-message framing overhead of the chat
// format.
const tokensPerMessage = 3

// Count returns the approximate token count of messages for modelName.
// OpenRouter model ids are usually unknown to tiktoken, in which case the
// cl100k_base encoding is used as an estimate.
func Count(messages []openai.ChatCompletionMessage, modelName string) (int, error) {
	enc, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return 0, fmt.Errorf("failed to get %s encoding: %w", fallbackEncoding, err)
		}
	}

	count := 0
	for _, msg := range messages {
		count += tokensPerMessage
		count += len(enc.Encode(msg.Role, nil, nil))
		count += len(enc.Encode(msg.Content, nil, nil))
	}
	count += 3 // reply is primed with one assistant frame
	return count, nil
}
