package npmsdk

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"
)

// RoleAdmin is the role that unlocks user management.
const RoleAdmin = "admin"

// User is a local snapshot of a remote user. Its setters update the server
// first and the snapshot only once the server accepted the change, so a
// failed call never leaves the snapshot ahead of the server. Setters return
// the User to allow chaining.
//
// A User is not safe for concurrent mutation.
type User struct {
	client *Client

	ID          int64
	Email       string
	Name        string
	Nickname    string
	Avatar      string
	Roles       []string
	Permissions Permissions
	IsDisabled  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func newUser(client *Client, rec UserRecord) *User {
	return &User{
		client:      client,
		ID:          rec.ID,
		Email:       rec.Email,
		Name:        rec.Name,
		Nickname:    rec.Nickname,
		Avatar:      rec.Avatar,
		Roles:       rec.Roles,
		Permissions: rec.Permissions,
		IsDisabled:  rec.IsDisabled,
		CreatedAt:   rec.CreatedOn,
		UpdatedAt:   rec.ModifiedOn,
	}
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return slices.Contains(u.Roles, RoleAdmin)
}

// SetNickname changes the nickname (more than 3 characters).
func (u *User) SetNickname(ctx context.Context, nickname string) (*User, error) {
	if err := validateArg("nickname", nickname, "required,min=4"); err != nil {
		return nil, err
	}

	if nickname == u.Nickname {
		return u, nil
	}

	if err := u.update(ctx, map[string]any{"nickname": nickname}); err != nil {
		return nil, err
	}

	u.Nickname = nickname
	return u, nil
}

// SetEmail changes the email (more than 3 characters).
func (u *User) SetEmail(ctx context.Context, email string) (*User, error) {
	if err := validateArg("email", email, "required,min=4"); err != nil {
		return nil, err
	}

	if email == u.Email {
		return u, nil
	}

	if err := u.update(ctx, map[string]any{"email": email}); err != nil {
		return nil, err
	}

	u.Email = email
	return u, nil
}

// SetName changes the display name.
func (u *User) SetName(ctx context.Context, name string) (*User, error) {
	if err := validateArg("name", name, "required"); err != nil {
		return nil, err
	}

	if name == u.Name {
		return u, nil
	}

	if err := u.update(ctx, map[string]any{"name": name}); err != nil {
		return nil, err
	}

	u.Name = name
	return u, nil
}

// SetPassword sets the password (at least 8 characters). Passwords are never
// known locally, so this always calls the server.
func (u *User) SetPassword(ctx context.Context, password string) (*User, error) {
	if err := validateArg("password", password, "required,min=8"); err != nil {
		return nil, err
	}

	resp, err := u.client.doAuthRequest(ctx, http.MethodPut, fmt.Sprintf("/api/users/%d/auth", u.ID), setPasswordBody{
		Type:   "password",
		Secret: password,
	})
	if err != nil {
		return nil, err
	}

	if err := decodeJSON(resp, nil); err != nil {
		return nil, err
	}

	return u, nil
}

// SetPermissions merges permissions into the user's current ones and sends
// the result, so fields left empty keep their value. Levels are checked
// against manage/view/hidden and visibility against all/user before any
// remote call.
func (u *User) SetPermissions(ctx context.Context, permissions Permissions) (*User, error) {
	if permissions.IsZero() {
		return nil, &MissingArgumentError{Field: "permissions", Reason: "at least one permission is required"}
	}

	if err := permissions.Validate(); err != nil {
		return nil, err
	}

	merged := u.Permissions.Merge(permissions)

	if err := u.update(ctx, map[string]any{"permissions": merged}); err != nil {
		return nil, err
	}

	u.Permissions = merged
	return u, nil
}

// update sends a partial PUT /api/users/{id}.
func (u *User) update(ctx context.Context, fields map[string]any) error {
	resp, err := u.client.doAuthRequest(ctx, http.MethodPut, fmt.Sprintf("/api/users/%d", u.ID), fields)
	if err != nil {
		return err
	}

	return decodeJSON(resp, nil)
}
