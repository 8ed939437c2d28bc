package ir

// JournalEntry is one committed mutation as recorded by the journal.
type JournalEntry struct {
	ID        string  `json:"id"`
	Seq       int64   `json:"seq"`
	Type      string  `json:"type"`
	Payload   IRValue `json:"payload"`
	FlowToken string  `json:"flow_token,omitempty"`
	Silent    bool    `json:"silent,omitempty"`
	// StateHash is the hash of the whole state after the mutation applied.
	StateHash string `json:"state_hash"`
}

// Snapshot is a full copy of the state tree taken after the mutation with
// the same Seq.
type Snapshot struct {
	Seq       int64    `json:"seq"`
	State     IRObject `json:"state"`
	StateHash string   `json:"state_hash"`
}
