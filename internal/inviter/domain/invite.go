package domain

// InviteStatus is the directory's view of an invitation. Unknown values from
// the remote side are kept verbatim.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusExpired  InviteStatus = "expired"
)

type ExistingInvite struct {
	InviteID         string
	InviteeEmail     string
	Status           InviteStatus
	InviterAccountID string
}

// ExistingMember already has standing access to the account.
type ExistingMember struct {
	Email string
}

// InviteReceipt is what the directory hands back after creating invitations.
type InviteReceipt struct {
	InviteIDs []string
}
