package domain

// Role is the coarse authorization role carried by a principal.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Principal is the authenticated actor attributed to a mutation.
type Principal struct {
	UserID UserID
	Role   Role
}

func (p Principal) IsZero() bool {
	return p.UserID.IsNil()
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
