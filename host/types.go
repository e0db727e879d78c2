package host

// ErrorReply is sent to the browser when a message cannot be read or the
// handler fails.
type ErrorReply struct {
	Error string `json:"error"`
}

// PanicReply is sent to the browser when the handler panics, right before
// the session ends.
type PanicReply struct {
	Status  string `json:"status"`
	Payload string `json:"payload"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// StatusPanic is the Status value of a PanicReply.
const StatusPanic = "panic"
