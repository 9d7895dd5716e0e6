package genai

import "context"

// SystemPrompt frames every course-generation request regardless of provider.
const SystemPrompt = `You are an expert course creator. Generate a detailed course outline and content based on the user's prompt.
Structure it with clear sections, learning objectives, and key points.`

// Generator turns a course topic into generated text or fails. Both clients
// honour ctx for timeouts; there is no cancellation once a call completes.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
