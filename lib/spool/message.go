package spool

// a persisted unit of pending mail. immutable once queued, the file is
// deleted right after a confirmed successful send.
type Message struct {
	// arguments originally handed to the mail transfer program
	Args []string `json:"args"`
	// raw message text piped to the mail transfer program's stdin
	Body string `json:"body"`
}
