package event_bus

// CreationTrigger identifies which conversational signal requested event
// creation.
type CreationTrigger string

const (
	TriggerUserConfirmation CreationTrigger = "user_confirmation"
	TriggerAssistantIntent  CreationTrigger = "assistant_intent"
)

// EventCreationRequested is published when a conversational trigger fires for
// a session. Both triggers converge on this single event, whose handler is
// the same guarded creation path the explicit API call invokes, so the
// single-flight guard is checked in exactly one place.
const EventCreationRequested EventType = "scheduling.creation_requested"

type CreationRequested struct {
	SessionId string
	Trigger   CreationTrigger
}
