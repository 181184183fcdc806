package directory

import (
	"context"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/bulkinvite/internal/inviter/domain"
)

// ResolveAccount fetches the acting user's id and primary account.
func (c *Client) ResolveAccount(ctx context.Context, token string) (domain.AccountIdentity, error) {
	if token == "" {
		return domain.AccountIdentity{}, c.fail(ctx, &OperationError{Op: "get user", Target: "self", Err: ErrMissingToken})
	}

	var out userResponse
	if err := c.call(ctx, "get user", "self", http.MethodGet, "/svc-account/user", token, nil, &out); err != nil {
		return domain.AccountIdentity{}, err
	}
	if out.PrimaryAccountID == "" {
		return domain.AccountIdentity{}, c.fail(ctx, &OperationError{Op: "get user", Target: "self", Err: ErrMissingAccount})
	}

	return domain.AccountIdentity{
		UserID:    out.ID,
		AccountID: out.PrimaryAccountID,
	}, nil
}

// ListMembers returns everyone with standing access to accountID.
func (c *Client) ListMembers(ctx context.Context, token, accountID string) ([]domain.ExistingMember, error) {
	if token == "" {
		return nil, c.fail(ctx, &OperationError{Op: "list members", Target: accountID, Err: ErrMissingToken})
	}
	if accountID == "" {
		return nil, c.fail(ctx, &OperationError{Op: "list members", Err: ErrMissingAccount})
	}

	var out membersResponse
	path := "/svc-account/accounts/" + url.PathEscape(accountID) + "/members"
	if err := c.call(ctx, "list members", accountID, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}

	members := make([]domain.ExistingMember, 0, len(out.Users))
	for _, u := range out.Users {
		members = append(members, domain.ExistingMember{Email: u.User.Email})
	}
	return members, nil
}
