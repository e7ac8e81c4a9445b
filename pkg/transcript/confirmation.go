package transcript

import "strings"

// Affirmative phrases that authorize event creation. Matching is substring
// based on purpose: forcing users to repeat an exact phrase into a microphone
// is worse than an occasional false positive. Negations are NOT handled --
// "I said no, go ahead" matches on "go ahead". See the pinning test before
// changing this.
var confirmationPhrases = []string{
	"yes",
	"yeah",
	"correct",
	"confirm",
	"that's right",
	"ok",
	"okay",
	"sure",
	"go ahead",
	"create it",
}

// Phrases in an assistant reply that signal the model considers the details
// complete and is about to schedule.
var creationIntentPhrases = []string{
	"ready to create",
	"create your event",
	"creating your event",
	"ready to schedule",
}

// IsConfirmation reports whether a user utterance authorizes event creation.
func IsConfirmation(utterance string) bool {
	return containsAny(utterance, confirmationPhrases)
}

// ImpliesCreation reports whether an assistant reply implies the event should
// be created now.
func ImpliesCreation(reply string) bool {
	return containsAny(reply, creationIntentPhrases)
}

func containsAny(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range phrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
