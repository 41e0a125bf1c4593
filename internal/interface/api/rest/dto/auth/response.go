package auth

import (
	"filevault-api/internal/application/ports"
	"filevault-api/internal/interface/api/rest/dto/user"
)

type Response struct {
	User  user.User `json:"user"`
	Token string    `json:"token"`
}

func ToResponse(s *ports.Session) Response {
	return Response{
		User:  user.ToResponseUser(*s.User),
		Token: s.Token,
	}
}
