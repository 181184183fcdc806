package service

import "github.com/aussiebroadwan/bulkinvite/internal/inviter/domain"

// SuppressionSet holds the emails that must not receive a new invitation in
// the current job. It only ever grows. Emails are compared exactly.
type SuppressionSet struct {
	emails map[string]struct{}
}

func NewSuppressionSet() *SuppressionSet {
	return &SuppressionSet{emails: make(map[string]struct{})}
}

// AddMembers suppresses everyone with standing access.
func (s *SuppressionSet) AddMembers(members []domain.ExistingMember) {
	for _, m := range members {
		s.Add(m.Email)
	}
}

// AddPendingInvites suppresses invitees whose invitation is still pending.
// Accepted and expired invitations are ignored.
func (s *SuppressionSet) AddPendingInvites(invites []domain.ExistingInvite) {
	for _, in := range invites {
		if in.Status == domain.InviteStatusPending {
			s.Add(in.InviteeEmail)
		}
	}
}

func (s *SuppressionSet) Add(email string) {
	s.emails[email] = struct{}{}
}

func (s *SuppressionSet) Contains(email string) bool {
	_, ok := s.emails[email]
	return ok
}

func (s *SuppressionSet) Len() int {
	return len(s.emails)
}
