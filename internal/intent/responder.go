// Package intent provides the stateless message classifiers: canned-reply
// selection and best-effort name inference. Both are pure functions over the
// message text and carry no I/O.
package intent

import "strings"

// Canned replies, in rule priority order.
const (
	greetingReply  = "Hi! I'm your Education AI Assistant. What's your name and which course are you interested in?"
	programReply   = "Great choice! Are you a working professional or fresh graduate? Any target country or university?"
	budgetReply    = "Thanks for sharing! Do you have a budget range in mind? (e.g., under $20k, $30k–50k)"
	gratitudeReply = "You're welcome! Let me know when you're ready to proceed."
	fallbackReply  = "Tell me more — which country, timeline, or exam are you preparing for?"
)

type rule struct {
	keywords []string
	reply    string
}

// Rules are evaluated in order; the first keyword hit wins, so a message
// matching several categories gets the earliest-listed reply.
var rules = []rule{
	{keywords: []string{"hi", "hello", "hey", "good"}, reply: greetingReply},
	{keywords: []string{"mba", "ms", "bachelor", "ielts", "toefl", "gre"}, reply: programReply},
	{keywords: []string{"budget", "fee", "cost", "price"}, reply: budgetReply},
	{keywords: []string{"thanks", "thank you", "okay", "got it"}, reply: gratitudeReply},
}

// Reply classifies a single inbound message into a canned reply. There is no
// "no reply" outcome: unmatched messages get the generic probing fallback.
func Reply(message string) string {
	lower := strings.ToLower(message)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.reply
			}
		}
	}
	return fallbackReply
}
