package npmsdk

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// UserGateway manages the proxy manager's users. Listing, looking up and
// creating users require the admin role.
type UserGateway struct {
	client *Client
}

// ListUsers returns every user as the server lists it, permissions expanded.
func (g *UserGateway) ListUsers(ctx context.Context) ([]UserRecord, error) {
	if err := g.client.requireAdmin(ctx); err != nil {
		return nil, err
	}

	resp, err := g.client.doAuthRequest(ctx, http.MethodGet, "/api/users?expand=permissions", nil)
	if err != nil {
		return nil, err
	}

	var records []userRecord
	if err := decodeJSON(resp, &records); err != nil {
		return nil, err
	}

	users := make([]UserRecord, 0, len(records))
	for i := range records {
		g.client.warnUnparsedTimes("user", int64(records[i].ID), records[i].unparsedTimes())
		users = append(users, records[i].toUserRecord())
	}
	return users, nil
}

// GetUser returns the first user, in server list order, whose email, id or
// username equals identifier. The three fields are checked together per user,
// so an identifier that is one user's id and another's username resolves to
// whichever comes first in the list; pass an email to be unambiguous.
func (g *UserGateway) GetUser(ctx context.Context, identifier string) (*User, error) {
	if err := validateArg("identifier", identifier, "required"); err != nil {
		return nil, err
	}

	records, err := g.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		if rec.Email == identifier ||
			strconv.FormatInt(rec.ID, 10) == identifier ||
			(rec.Username != "" && rec.Username == identifier) {
			return newUser(g.client, rec), nil
		}
	}

	return nil, &NotFoundError{Kind: "user", Key: identifier}
}

// createUserArgs is the validated shape of a CreateUserRequest. Field order
// is the order missing arguments are reported in.
type createUserArgs struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
	Nickname string `json:"nickname" validate:"required"`
}

// CreateUser creates a user, sets its password and, when given, its
// permissions. The creation endpoint does not take a password, so this is
// always at least two remote calls.
func (g *UserGateway) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	if err := validateArgs(createUserArgs{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Nickname: req.Nickname,
	}); err != nil {
		return nil, err
	}

	if req.Permissions != nil {
		if err := req.Permissions.Validate(); err != nil {
			return nil, err
		}
	}

	if err := g.client.requireAdmin(ctx); err != nil {
		return nil, err
	}

	roles := []string{}
	if req.IsAdmin {
		roles = append(roles, RoleAdmin)
	}

	resp, err := g.client.doAuthRequest(ctx, http.MethodPost, "/api/users", createUserBody{
		Email:      req.Email,
		IsDisabled: req.IsDisabled,
		Name:       req.Name,
		Nickname:   req.Nickname,
		Roles:      roles,
	})
	if err != nil {
		return nil, err
	}

	var rec userRecord
	if err := decodeJSON(resp, &rec); err != nil {
		return nil, err
	}

	user := newUser(g.client, rec.toUserRecord())
	g.client.Logger.Info("npm user created", "id", user.ID, "email", user.Email)

	if _, err := user.SetPassword(ctx, req.Password); err != nil {
		return nil, fmt.Errorf("user %d created but setting its password failed: %w", user.ID, err)
	}

	if req.Permissions != nil && !req.Permissions.IsZero() {
		if _, err := user.SetPermissions(ctx, *req.Permissions); err != nil {
			return nil, fmt.Errorf("user %d created but setting its permissions failed: %w", user.ID, err)
		}
	}

	return user, nil
}
