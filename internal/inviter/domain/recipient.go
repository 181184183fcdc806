package domain

// Recipient is one invitee row from an uploaded list. Email is the identity
// key and is compared exactly as received.
type Recipient struct {
	FirstName string
	LastName  string
	Email     string
}

// Credentials authenticate against the remote directory for one job. They are
// never persisted.
type Credentials struct {
	Username string
	Password string
}

// AccountIdentity is who the job acts as, resolved once per job.
type AccountIdentity struct {
	UserID    string
	AccountID string
}
