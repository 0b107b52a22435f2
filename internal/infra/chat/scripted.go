package chat

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/lfariabr/wedstack-sub000/internal/core/port"
)

// ScriptedResponder answers common wedding questions from a keyword table.
// It stands in for the real chatbot backend when none is configured, so the
// throttled chat endpoint stays exercisable end to end.
type ScriptedResponder struct {
	logger   *zap.Logger
	fallback string
	answers  []scriptedAnswer
}

type scriptedAnswer struct {
	keywords []string
	reply    string
}

// NewScriptedResponder builds a responder with the default answer table.
func NewScriptedResponder(log *zap.Logger) *ScriptedResponder {
	if log == nil {
		log = zap.NewNop()
	}

	return &ScriptedResponder{
		logger:   log,
		fallback: "I don't have an answer for that yet. Reach out to the couple directly and they'll help!",
		answers: []scriptedAnswer{
			{
				keywords: []string{"when", "date", "time", "hour"},
				reply:    "The ceremony starts at 4pm. Doors open half an hour before.",
			},
			{
				keywords: []string{"where", "venue", "address", "location"},
				reply:    "The celebration happens at the venue listed on your invitation. Check the location page for directions and parking.",
			},
			{
				keywords: []string{"dress", "wear", "attire", "outfit"},
				reply:    "Dress code is cocktail attire. Comfortable shoes recommended, there will be dancing.",
			},
			{
				keywords: []string{"gift", "registry", "present"},
				reply:    "Your presence is the best gift! If you'd like to give something, the gift page has the registry.",
			},
			{
				keywords: []string{"rsvp", "confirm", "attend"},
				reply:    "You can confirm or update your attendance on the RSVP page using the phone number from your invitation.",
			},
		},
	}
}

// Respond matches the message against the answer table.
func (r *ScriptedResponder) Respond(_ context.Context, userID, message string) (string, error) {
	normalized := strings.ToLower(message)

	for _, answer := range r.answers {
		for _, keyword := range answer.keywords {
			if strings.Contains(normalized, keyword) {
				return answer.reply, nil
			}
		}
	}

	r.logger.Debug("no scripted answer matched",
		zap.String("user_id", userID),
		zap.Int("message_length", len(message)),
	)

	return r.fallback, nil
}

var _ port.ChatResponder = (*ScriptedResponder)(nil)
