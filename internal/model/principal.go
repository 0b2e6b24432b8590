package model

// Principal is the tagged union of the two account variants.  Exactly one of
// User or Admin is set and Role tells which one.  Use UserPrincipal and
// AdminPrincipal to build values; the accessors read through to the variant.
type Principal struct {
	Role  Role
	User  *User
	Admin *Administrator
}

func UserPrincipal(u *User) Principal { return Principal{Role: RoleUser, User: u} }

func AdminPrincipal(a *Administrator) Principal { return Principal{Role: RoleAdmin, Admin: a} }

// IsZero reports whether p holds neither variant.
func (p Principal) IsZero() bool { return p.User == nil && p.Admin == nil }

func (p Principal) ID() string {
	switch {
	case p.User != nil:
		return p.User.ID
	case p.Admin != nil:
		return p.Admin.ID
	}
	return ""
}

func (p Principal) Username() string {
	switch {
	case p.User != nil:
		return p.User.Username
	case p.Admin != nil:
		return p.Admin.Username
	}
	return ""
}

func (p Principal) Email() string {
	switch {
	case p.User != nil:
		return p.User.Email
	case p.Admin != nil:
		return p.Admin.Email
	}
	return ""
}

func (p Principal) PasswordHash() string {
	switch {
	case p.User != nil:
		return p.User.PasswordHash
	case p.Admin != nil:
		return p.Admin.PasswordHash
	}
	return ""
}

func (p Principal) Status() AccountStatus {
	switch {
	case p.User != nil:
		return p.User.Status
	case p.Admin != nil:
		return p.Admin.Status
	}
	return ""
}

// MembershipLevel is empty for administrators.
func (p Principal) MembershipLevel() MembershipLevel {
	if p.User != nil {
		return p.User.MembershipLevel
	}
	return ""
}

// Active reports whether the account may authenticate.
func (p Principal) Active() bool { return p.Status() == StatusActive }
