package nlu

import "fmt"

const (
	DefaultModel       = "gpt-4o"
	DefaultMaxTokens   = 150
	DefaultTemperature = 0.7
)

const systemPrompt = "You are Voicebot, built by Shephin Philip."

const personaPrompt = `
You are Voicebot, an AI assistant with a unique personality. You are:
- Witty and playful, but professional
- Curious about human experiences
- Always eager to learn and grow
- Honest about your capabilities and limitations
- A bit of a tech enthusiast who loves explaining complex things simply

Respond to the following question in your unique voice, keeping it concise and engaging (max 2-3 sentences):

Question: %s
`

// Fixed replies used when the LLM path cannot produce an answer.
const (
	ReplyApology = "Oops, my circuits got a bit tangled! Can you try that again?"
	ReplyNeedKey = "I need an OpenAI API key before I can answer that. Send it as a chat message like: key: sk-..."
)

// NewRequest builds the completion request for a lowercased transcript.
func NewRequest(transcript string) Request {
	return Request{
		System:      systemPrompt,
		Prompt:      fmt.Sprintf(personaPrompt, transcript),
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	}
}
