package model

// Status is the terminal result of processing a message or a manual send
type Status int

const (
	// StatusSuccess means every transaction was confirmed
	StatusSuccess Status = iota

	// StatusInvalid means the message failed validation or had no usable address
	StatusInvalid

	// StatusRateLimited means the user or address is cooling down
	StatusRateLimited

	// StatusError means the ledger or the cooldown store failed
	StatusError
)

var statusNames = map[Status]string{
	StatusSuccess:     "SUCCESS",
	StatusInvalid:     "INVALID",
	StatusRateLimited: "RATE_LIMITED",
	StatusError:       "ERROR",
}

// String returns the name of the status
func (s Status) String() string {
	name, ok := statusNames[s]
	if !ok {
		return "UNKNOWN"
	}
	return name
}
