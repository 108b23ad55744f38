package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"voice-search/internal/alexa"
	"voice-search/internal/domain"
	"voice-search/internal/infra"
	"voice-search/internal/speech"
	"voice-search/internal/telemetry"
)

// Spoken phrases. Failure phrases never carry internal detail.
const (
	greetingSpeech = "Hi, I'm your search assistant. Ask me something like: what's the latest about quantum computing?"
	helpSpeech     = "You can ask me about any topic. Try saying: tell me the latest about electric cars."
	fallbackSpeech = "I didn't quite catch that. Try asking: tell me the latest about electric cars."
	noSlotSpeech   = "I didn't get the topic. What would you like to know about?"
	queryReprompt  = "What would you like to know about?"
	goodbyeSpeech  = "Goodbye."

	noInfoSpeech    = "I couldn't find any information on that."
	troubleSpeech   = "Sorry, I'm having trouble answering questions right now. Please try again later."
	retrySpeech     = "I couldn't reach the search service just now. Please try again."
	retryReprompt   = "Would you like to try asking again?"
	unclearSpeech   = "I didn't get a clear answer to that one."
)

// Handler turns one voice event into exactly one response envelope. It holds
// no state between events.
type Handler struct {
	search        Searcher
	notifier      Notifier
	metrics       *telemetry.Metrics
	logger        *slog.Logger
	retryHeadroom time.Duration
}

func NewHandler(search Searcher, notifier Notifier, metrics *telemetry.Metrics, logger *slog.Logger, retryHeadroom time.Duration) *Handler {
	return &Handler{
		search:        search,
		notifier:      notifier,
		metrics:       metrics,
		logger:        logger,
		retryHeadroom: retryHeadroom,
	}
}

// Handle routes an event by request type and intent name. Every branch ends
// in a well-formed envelope; no failure below this layer reaches the user
// unmapped.
func (h *Handler) Handle(ctx context.Context, env *alexa.RequestEnvelope) *alexa.ResponseEnvelope {
	switch env.Request.Type {
	case alexa.TypeLaunchRequest:
		h.metrics.EventHandled("launch")
		return alexa.Speak(greetingSpeech, false)

	case alexa.TypeIntentRequest:
		return h.handleIntent(ctx, env)

	case alexa.TypeSessionEndedRequest:
		h.metrics.EventHandled("session_ended")
		return alexa.Empty()

	default:
		h.logger.Warn("unknown request type", "type", env.Request.Type)
		h.metrics.EventHandled("unknown_type")
		return alexa.Speak(goodbyeSpeech, true)
	}
}

func (h *Handler) handleIntent(ctx context.Context, env *alexa.RequestEnvelope) *alexa.ResponseEnvelope {
	switch env.Request.Intent.Name {
	case alexa.IntentHelp:
		h.metrics.EventHandled("help")
		return alexa.SpeakWithReprompt(helpSpeech, queryReprompt)

	case alexa.IntentCancel, alexa.IntentStop:
		h.metrics.EventHandled("stop")
		return alexa.Speak(goodbyeSpeech, true)

	case alexa.IntentFallback:
		h.metrics.EventHandled("fallback")
		return alexa.SpeakWithReprompt(fallbackSpeech, queryReprompt)
	}

	query := env.Query()
	if query == "" {
		h.logger.Info("intent without a filled slot", "intent", env.Request.Intent.Name)
		h.metrics.EventHandled("empty_slot")
		return alexa.SpeakWithReprompt(noSlotSpeech, queryReprompt)
	}

	h.logger.Info("asking", "query", query)

	var answer string
	err := infra.RetryOnce(ctx, h.retryHeadroom, retryable, func() error {
		var askErr error
		answer, askErr = h.search.Ask(ctx, query)
		return askErr
	})
	if err != nil {
		return h.speakFailure(ctx, err)
	}

	text := speech.Clean(answer)
	if text == "" {
		h.metrics.EventHandled("no_information")
		return alexa.Speak(noInfoSpeech, true)
	}

	h.metrics.EventHandled("answered")
	return alexa.Speak(text, true)
}

func retryable(err error) bool {
	var f *domain.Failure
	return errors.As(err, &f) && f.Retryable()
}

// speakFailure maps a failure kind to user-safe speech. Auth and unknown
// failures end the session; transient and network failures keep it open and
// invite a retry.
func (h *Handler) speakFailure(ctx context.Context, err error) *alexa.ResponseEnvelope {
	kind := domain.KindOf(err)
	h.logger.Error("search failed", "kind", kind, "error", err)
	h.metrics.EventHandled("failed_" + string(kind))

	switch kind {
	case domain.FailureTransient, domain.FailureNetwork:
		return alexa.SpeakWithReprompt(retrySpeech, retryReprompt)

	case domain.FailureMalformed:
		return alexa.Speak(unclearSpeech, true)

	case domain.FailureAuth:
		// A rejected credential needs an operator, not a retry.
		if notifyErr := h.notifier.Notify(ctx, fmt.Sprintf("search credential rejected: %v", err)); notifyErr != nil {
			h.logger.Error("notifying auth failure", "error", notifyErr)
		}
		return alexa.Speak(troubleSpeech, true)

	default:
		return alexa.Speak(troubleSpeech, true)
	}
}
