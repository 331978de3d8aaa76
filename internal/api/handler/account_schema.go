package handler

import (
	"time"

	"github.com/ait-forum/forum-api/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type registerRequest struct {
	Login     string `json:"login"      validate:"required,min=3,max=64"`
	Password  string `json:"password"   validate:"required,min=6,max=72"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Login    string `json:"login"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// updateProfileRequest uses pointer fields as presence markers: an absent
// field leaves the stored value unchanged.
type updateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

// accountResponse is the outward account view. The password hash is never
// part of any response.
type accountResponse struct {
	Login     string    `json:"login"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

type rolesResponse struct {
	Login string   `json:"login"`
	Roles []string `json:"roles"`
}

type loginResponse struct {
	Token   string          `json:"token"`
	Account accountResponse `json:"account"`
}

func toAccountResponse(a *domain.Account) accountResponse {
	return accountResponse{
		Login:     a.Login,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Roles:     a.Roles.Names(),
		CreatedAt: a.CreatedAt,
	}
}
