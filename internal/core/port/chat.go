package port

import "context"

// ChatResponder answers guest questions about the event. The actual model
// backend lives outside this service; the transport layer only throttles and
// forwards.
type ChatResponder interface {
	Respond(ctx context.Context, userID, message string) (string, error)
}
