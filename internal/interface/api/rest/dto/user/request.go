package user

type (
	UpdateProfileRequest struct {
		DisplayName string `json:"display_name"`
	}
	BlockRequest struct {
		Blocked *bool `json:"blocked"`
	}
	RoleRequest struct {
		Role string `json:"role"`
	}
)
