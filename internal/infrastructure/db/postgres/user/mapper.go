package user

import (
	domain "filevault-api/internal/domain/user"
)

func fromDBModel(model *User) *domain.User {
	var u = &domain.User{
		ID:           domain.ID(model.ID),
		UUID:         model.UUID,
		ExternalID:   model.ExternalID,
		DisplayName:  model.DisplayName,
		Email:        model.Email,
		Role:         domain.Role(model.Role),
		PasswordHash: model.PasswordHash,
		Blocked:      model.Blocked,

		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}

	return u
}

func fromDBModels(models *Users) domain.Users {
	us := make(domain.Users, len(*models))
	for idx, u := range *models {
		us[idx] = fromDBModel(u)
	}

	return us
}
