package transcribe

// Exports for testing.

// NewTestOpenAITranscriber builds the OpenAI backend around a mock client.
func NewTestOpenAITranscriber(client audioClient, opts ...Option) *OpenAITranscriber {
	return newOpenAITranscriber(client, true, opts...)
}

// AudioClient exports audioClient for mocks.
type AudioClient = audioClient

// Function exports for unit testing internal logic.
var (
	ParseResponse       = parseResponse
	ErrorMessage        = errorMessage
	ClassifyOpenAIError = classifyOpenAIError
)
