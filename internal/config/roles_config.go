package config

import (
	"sort"
	"strings"

	"github.com/jrsteele09/go-webadmin/internal/utils"
)

type RolesConfig interface {
	GetAdminRoles() RoleSet
}

type Roles struct{}

var _ RolesConfig = Roles{}

// RoleSet is the set of role or scope names that grant administrative access
type RoleSet map[string]struct{}
type nullValue = struct{}

func NewRoleSet(roles ...string) RoleSet {
	set := make(RoleSet, len(roles))
	for _, role := range roles {
		set[strings.ToLower(role)] = nullValue{}
	}
	return set
}

func (r RoleSet) Contains(role string) bool {
	_, ok := r[strings.ToLower(role)]
	return ok
}

// ContainsAny reports whether any of roles is in the set
func (r RoleSet) ContainsAny(roles []string) bool {
	for _, role := range roles {
		if r.Contains(role) {
			return true
		}
	}
	return false
}

func (r RoleSet) String() string {
	var roles []string
	for k := range r {
		roles = append(roles, k)
	}
	sort.Strings(roles)
	return strings.Join(roles, ", ")
}

func (Roles) GetAdminRoles() RoleSet {
	return NewRoleSet(utils.SplitList(GetEnv("ADMIN_ROLES", "admin,superuser"))...)
}
