package directory

import (
	"context"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/bulkinvite/internal/inviter/domain"
)

// ListInvites returns every invitation visible to the token holder.
func (c *Client) ListInvites(ctx context.Context, token string) ([]domain.ExistingInvite, error) {
	if token == "" {
		return nil, c.fail(ctx, &OperationError{Op: "list invites", Target: "self", Err: ErrMissingToken})
	}

	var out invitesResponse
	if err := c.call(ctx, "list invites", "self", http.MethodGet, "/svc-account/invites", token, nil, &out); err != nil {
		return nil, err
	}

	invites := make([]domain.ExistingInvite, 0, len(out.Invites))
	for _, in := range out.Invites {
		invites = append(invites, domain.ExistingInvite{
			InviteID:         in.InviteID,
			InviteeEmail:     in.InviteeEmail,
			Status:           domain.InviteStatus(in.Status),
			InviterAccountID: in.InviterAccountID,
		})
	}
	return invites, nil
}

// DeleteInvite revokes one invitation.
func (c *Client) DeleteInvite(ctx context.Context, token, inviteID string) error {
	if token == "" {
		return c.fail(ctx, &OperationError{Op: "delete invite", Target: inviteID, Err: ErrMissingToken})
	}
	return c.call(ctx, "delete invite", inviteID, http.MethodDelete,
		"/svc-account/invites/"+url.PathEscape(inviteID), token, nil, nil)
}

// CreateInvite invites one recipient into the acting account with roleID.
func (c *Client) CreateInvite(
	ctx context.Context,
	token string,
	account domain.AccountIdentity,
	roleID string,
	r domain.Recipient,
) (domain.InviteReceipt, error) {
	if token == "" {
		return domain.InviteReceipt{}, c.fail(ctx, &OperationError{Op: "create invite", Target: r.Email, Err: ErrMissingToken})
	}

	req := createInviteRequest{
		InviterAccountID: account.AccountID,
		InviterUserID:    account.UserID,
		AccountIDs:       []string{account.AccountID},
		Invitees: []invitee{{
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Email:     r.Email,
		}},
		RoleID: roleID,
	}

	var out createInviteResponse
	if err := c.call(ctx, "create invite", r.Email, http.MethodPost, "/svc-account/invites", token, req, &out); err != nil {
		return domain.InviteReceipt{}, err
	}

	receipt := domain.InviteReceipt{InviteIDs: make([]string, 0, len(out.Invites))}
	for _, in := range out.Invites {
		receipt.InviteIDs = append(receipt.InviteIDs, in.InviteID)
	}
	return receipt, nil
}
