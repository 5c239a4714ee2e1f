// Package assistant contains the language-model side of the guest chatbot:
// prompt assembly, the Gemini client, and classification of generated
// replies into answered / unanswered buckets.
package assistant

import "strings"

// Reason codes attached to escalation rows and classification results.
const (
	ReasonAnswered        = "answered successfully"
	ReasonPropertyHandoff = "property-related, needs manager follow-up"
	ReasonOffTopic        = "outside guidebook scope"
	ReasonNotInGuide      = "not covered by guide content"
)

// Classification is the verdict on one assistant reply.
type Classification struct {
	Answered        bool
	Reason          string
	PropertyRelated bool
}

// Marker groups, checked in order; the first group with a hit wins. The
// system prompt instructs the model to emit these phrases verbatim, so a
// paraphrased refusal falls through and counts as answered.
var (
	propertyHandoffMarkers = []string{
		"i'll pass this to the property manager",
		"pass your question to the property manager",
		"the property manager will follow up",
		"forward this to the property manager",
		"i will need to check with the property manager",
	}
	offTopicMarkers = []string{
		"outside the scope of this guidebook",
		"outside the scope of this guide",
		"i can only help with questions about this property",
	}
	cannotAnswerMarkers = []string{
		"i don't know",
		"i do not know",
		"not mentioned in the guide",
		"not mentioned",
		"the guide doesn't cover",
		"the guide does not cover",
	}
)

// Classify inspects a generated reply for fixed marker phrases and decides
// whether the question was answered, and if not, whether it was
// property-related (escalate for follow-up) or merely off-topic (log only).
// Matching is a case-insensitive substring search over three ordered groups;
// the first match wins. A reply with no marker counts as answered.
func Classify(reply string) Classification {
	low := strings.ToLower(reply)

	for _, m := range propertyHandoffMarkers {
		if strings.Contains(low, m) {
			return Classification{Answered: false, Reason: ReasonPropertyHandoff, PropertyRelated: true}
		}
	}
	for _, m := range offTopicMarkers {
		if strings.Contains(low, m) {
			return Classification{Answered: false, Reason: ReasonOffTopic, PropertyRelated: false}
		}
	}
	for _, m := range cannotAnswerMarkers {
		if strings.Contains(low, m) {
			return Classification{Answered: false, Reason: ReasonNotInGuide, PropertyRelated: false}
		}
	}
	return Classification{Answered: true, Reason: ReasonAnswered, PropertyRelated: false}
}
