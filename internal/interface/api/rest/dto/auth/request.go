package auth

type (
	ExternalLoginRequest struct {
		Credential string `json:"credential"`
	}
	RegisterRequest struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
	}
	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
)
