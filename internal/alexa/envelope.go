// Package alexa holds the JSON contract with the voice platform: the inbound
// event envelope, the outbound response envelope, and slot extraction.
package alexa

// Request types the skill distinguishes.
const (
	TypeLaunchRequest       = "LaunchRequest"
	TypeIntentRequest       = "IntentRequest"
	TypeSessionEndedRequest = "SessionEndedRequest"
)

// Built-in intent names.
const (
	IntentHelp     = "AMAZON.HelpIntent"
	IntentCancel   = "AMAZON.CancelIntent"
	IntentStop     = "AMAZON.StopIntent"
	IntentFallback = "AMAZON.FallbackIntent"
)

type RequestEnvelope struct {
	Version string  `json:"version"`
	Session Session `json:"session"`
	Request Request `json:"request"`
}

type Session struct {
	New       bool   `json:"new"`
	SessionID string `json:"sessionId"`
}

type Request struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId"`
	Intent    Intent `json:"intent"`
}

type Intent struct {
	Name  string          `json:"name"`
	Slots map[string]Slot `json:"slots"`
}

type Slot struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type ResponseEnvelope struct {
	Version           string         `json:"version"`
	SessionAttributes map[string]any `json:"sessionAttributes"`
	Response          Response       `json:"response"`
}

type Response struct {
	OutputSpeech     *OutputSpeech `json:"outputSpeech,omitempty"`
	Reprompt         *Reprompt     `json:"reprompt,omitempty"`
	ShouldEndSession bool          `json:"shouldEndSession"`
}

type OutputSpeech struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Reprompt struct {
	OutputSpeech OutputSpeech `json:"outputSpeech"`
}

// Query extracts the question text from an intent request. The `query` slot
// is tried first; interaction models frequently misname it, so any filled
// slot is accepted as a fallback. The empty string means no slot was filled,
// which is an expected state, not an error.
func (e *RequestEnvelope) Query() string {
	if e.Request.Type != TypeIntentRequest {
		return ""
	}

	slots := e.Request.Intent.Slots
	for _, key := range []string{"query", "Query"} {
		if slot, ok := slots[key]; ok && slot.Value != "" {
			return slot.Value
		}
	}

	for _, slot := range slots {
		if slot.Value != "" {
			return slot.Value
		}
	}

	return ""
}

func plainText(text string) *OutputSpeech {
	return &OutputSpeech{Type: "PlainText", Text: text}
}

// Speak builds a plain-text response envelope.
func Speak(text string, endSession bool) *ResponseEnvelope {
	return &ResponseEnvelope{
		Version:           "1.0",
		SessionAttributes: map[string]any{},
		Response: Response{
			OutputSpeech:     plainText(text),
			ShouldEndSession: endSession,
		},
	}
}

// SpeakWithReprompt builds a response that keeps the session open and tells
// the platform what to say if the user stays silent.
func SpeakWithReprompt(text, reprompt string) *ResponseEnvelope {
	env := Speak(text, false)
	env.Response.Reprompt = &Reprompt{OutputSpeech: *plainText(reprompt)}
	return env
}

// Empty builds the silent acknowledgement used for SessionEndedRequest.
func Empty() *ResponseEnvelope {
	return &ResponseEnvelope{
		Version:           "1.0",
		SessionAttributes: map[string]any{},
		Response:          Response{ShouldEndSession: true},
	}
}
