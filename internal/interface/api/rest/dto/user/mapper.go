package user

import (
	"filevault-api/internal/domain/user"
)

func ToResponseUser(uDomain user.User) User {
	var u = User{
		UUID:        uDomain.UUID,
		Email:       uDomain.Email,
		DisplayName: uDomain.DisplayName,
		Role:        string(uDomain.Role),
		Blocked:     uDomain.Blocked,
		CreatedAt:   uDomain.CreatedAt,
	}

	return u
}

func ToResponseUsers(usDomain user.Users) Users {
	us := make(Users, len(usDomain))
	for idx, u := range usDomain {
		us[idx] = ToResponseUser(*u)
	}

	return us
}
