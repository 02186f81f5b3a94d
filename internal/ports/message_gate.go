package ports

// MessageGate is a serving surface that feeds incoming messages through
// the classification engine.
type MessageGate interface {
	// Start begins accepting messages
	Start() error

	// Stop shuts the gate down
	Stop() error
}
