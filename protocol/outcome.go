package protocol

// Response status lines. The protocol only borrows the HTTP status line format,
// there are no headers.
const (
	StatusOK       = "HTTP/1.1 200 OK\r\n\r\n"
	StatusNotFound = "HTTP/1.1 404 NOT FOUND\r\n\r\n"
)

// OutcomeKind is the result type of applying a Command to the store.
type OutcomeKind int

// Outcome kinds.
const (
	NotFound OutcomeKind = iota
	Found
	Stored
)

func (k OutcomeKind) String() string {
	switch k {
	case Found:
		return "found"
	case Stored:
		return "stored"
	default:
		return "not found"
	}
}

// Outcome is the result of applying a Command to the store.
type Outcome struct {
	Kind  OutcomeKind
	Value string // only set for Found
}

// Status returns the status line sent for the outcome.
func (o Outcome) Status() string {
	if o.Kind == NotFound {
		return StatusNotFound
	}
	return StatusOK
}
