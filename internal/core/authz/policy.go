// Package authz holds the role-based authorization policy: a pure decision
// function over the caller identity, the caller's roles, the requested
// action, and the resource owner. It is independent of the transport; the
// HTTP layer evaluates it before any handler runs.
package authz

import "github.com/ait-forum/forum-api/internal/core/domain"

// Action identifies an operation the policy can gate.
type Action string

const (
	ActionRegister       Action = "account.register"
	ActionViewAccount    Action = "account.view"
	ActionUpdateProfile  Action = "account.update"
	ActionChangePassword Action = "account.password"
	ActionDeleteAccount  Action = "account.delete"
	ActionMutateRoles    Action = "account.roles"

	ActionCreatePost  Action = "post.create"
	ActionUpdatePost  Action = "post.update"
	ActionDeletePost  Action = "post.delete"
	ActionAddComment  Action = "post.comment"
	ActionLikeComment Action = "post.like"
)

// Decision is the outcome of a policy evaluation.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Authorize is a total function: every (action, caller) pair resolves to
// Allow or Deny, never an error. Rules are evaluated in precedence order,
// first match wins:
//
//  1. Registration needs no authentication.
//  2. Self-scoped actions require the caller to be the resource owner.
//  3. Account deletion is allowed to the owner or an administrator; post
//     deletion additionally to moderators.
//  4. Role mutation is restricted to administrators.
//  5. Everything else requires any authenticated identity.
func Authorize(callerLogin string, roles domain.RoleSet, action Action, resourceOwner string) Decision {
	switch action {
	case ActionRegister:
		return Allow

	case ActionUpdateProfile, ActionChangePassword, ActionCreatePost, ActionAddComment:
		if callerLogin != "" && callerLogin == resourceOwner {
			return Allow
		}
		return Deny

	case ActionDeleteAccount:
		if callerLogin != "" && (callerLogin == resourceOwner || roles.Has(domain.RoleAdministrator)) {
			return Allow
		}
		return Deny

	case ActionDeletePost:
		if callerLogin == "" {
			return Deny
		}
		if callerLogin == resourceOwner || roles.Has(domain.RoleModerator) || roles.Has(domain.RoleAdministrator) {
			return Allow
		}
		return Deny

	case ActionMutateRoles:
		if roles.Has(domain.RoleAdministrator) {
			return Allow
		}
		return Deny
	}

	// Default rule: any known identity.
	if callerLogin != "" {
		return Allow
	}
	return Deny
}
