package directory

// Wire types for the directory's JSON API. Field names follow the remote side.

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

type userResponse struct {
	ID               string `json:"id"`
	PrimaryAccountID string `json:"primary_account_id"`
}

type inviteItem struct {
	InviteID         string `json:"invite_id"`
	InviteeEmail     string `json:"invitee_email"`
	Status           string `json:"status"`
	InviterAccountID string `json:"inviter_account_id"`
}

type invitesResponse struct {
	Invites []inviteItem `json:"invites"`
}

type memberItem struct {
	User struct {
		Email string `json:"email"`
	} `json:"user"`
}

type membersResponse struct {
	Users []memberItem `json:"users"`
}

type invitee struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type createInviteRequest struct {
	InviterAccountID string    `json:"inviter_account_id"`
	InviterUserID    string    `json:"inviter_user_id"`
	AccountIDs       []string  `json:"account_ids"`
	Invitees         []invitee `json:"invitees"`
	RoleID           string    `json:"role_id"`
}

type createInviteResponse struct {
	Invites []struct {
		InviteID string `json:"invite_id"`
	} `json:"invites"`
}
