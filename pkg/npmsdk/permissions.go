package npmsdk

// Permission levels for every capability.
const (
	LevelManage = "manage"
	LevelView   = "view"
	LevelHidden = "hidden"
)

// Visibility values.
const (
	VisibilityAll  = "all"
	VisibilityUser = "user"
)

// Permissions is a user's capability map. An empty field means "not set":
// when passed to SetPermissions it keeps the user's current value.
type Permissions struct {
	Visibility       string `json:"visibility,omitempty" validate:"omitempty,oneof=all user"`
	ProxyHosts       string `json:"proxy_hosts,omitempty" validate:"omitempty,oneof=manage view hidden"`
	RedirectionHosts string `json:"redirection_hosts,omitempty" validate:"omitempty,oneof=manage view hidden"`
	DeadHosts        string `json:"dead_hosts,omitempty" validate:"omitempty,oneof=manage view hidden"`
	Streams          string `json:"streams,omitempty" validate:"omitempty,oneof=manage view hidden"`
	AccessLists      string `json:"access_lists,omitempty" validate:"omitempty,oneof=manage view hidden"`
	Certificates     string `json:"certificates,omitempty" validate:"omitempty,oneof=manage view hidden"`
}

// IsZero reports whether no permission is set.
func (p Permissions) IsZero() bool {
	return p == Permissions{}
}

// Merge returns p with every non-empty field of update applied on top.
func (p Permissions) Merge(update Permissions) Permissions {
	merged := p
	overlay(&merged.Visibility, update.Visibility)
	overlay(&merged.ProxyHosts, update.ProxyHosts)
	overlay(&merged.RedirectionHosts, update.RedirectionHosts)
	overlay(&merged.DeadHosts, update.DeadHosts)
	overlay(&merged.Streams, update.Streams)
	overlay(&merged.AccessLists, update.AccessLists)
	overlay(&merged.Certificates, update.Certificates)
	return merged
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Validate checks every set level against its enumerated values.
func (p Permissions) Validate() error {
	return validateArgs(p)
}
