package cleaner

import "context"

// EchoModel is the offline backend used with USE_MOCK_LLM=true. It answers
// with the transcript section of the prompt and bills nothing.
type EchoModel struct{}

func (EchoModel) Complete(ctx context.Context, prompt string) (Completion, error) {
	if err := ctx.Err(); err != nil {
		return Completion{}, err
	}
	return Completion{Text: transcriptSection(prompt)}, nil
}
