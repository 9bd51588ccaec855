package llm

import (
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// ChatStream exposes one streamed completion as a sequence of text deltas.
type ChatStream struct {
	stream *openai.ChatCompletionStream
}

// Recv returns the next delta in arrival order. Chunks that carry no content
// yield an empty string; io.EOF marks the end of the stream.
func (s *ChatStream) Recv() (string, error) {
	response, err := s.stream.Recv()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		return "", newTransportError(receiveOperation, err)
	}
	if len(response.Choices) == 0 {
		return "", nil
	}
	return response.Choices[0].Delta.Content, nil
}

// Close releases the underlying connection. It is safe to call after the
// stream has been drained.
func (s *ChatStream) Close() error {
	return s.stream.Close()
}
