package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"filevault-api/internal/application/ports"
	domain "filevault-api/internal/domain/user"
	"filevault-api/internal/infrastructure/jwt"
	"filevault-api/internal/interface/api/rest/dto/user"
	"filevault-api/internal/interface/api/rest/middleware"
	"filevault-api/internal/interface/api/rest/validator"
)

type UserController struct {
	userService ports.UserService
	logger      *zap.Logger
}

func NewUserController(
	r *gin.Engine,
	userService ports.UserService,
	logger *zap.Logger,
	jwtService *jwt.Service,
) *UserController {
	uc := &UserController{
		userService: userService,
		logger:      logger,
	}

	authed := middleware.AuthMiddleware(jwtService)
	r.GET(RouteMe, authed, uc.GetMeHandler)
	r.PUT(RouteMe, authed, uc.UpdateMeHandler)

	admin := middleware.RequireRole(domain.RoleAdmin, userService)
	r.GET(RouteAdminUsers, authed, admin, uc.GetUsersHandler)
	r.PATCH(RouteAdminUserBlock, authed, admin, uc.BlockUserHandler)
	r.PATCH(RouteAdminUserRole, authed, admin, uc.SetRoleHandler)
	r.DELETE(RouteAdminUser, authed, admin, uc.DeleteUserHandler)

	return uc
}

func (uc *UserController) GetMeHandler(c *gin.Context) {
	id, ok := middleware.UserUUID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
		return
	}

	u, err := uc.userService.FindUserByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, uc.logger, "FindUserByID()", err)
		return
	}

	c.JSON(http.StatusOK, user.ToResponseUser(*u))
}

func (uc *UserController) UpdateMeHandler(c *gin.Context) {
	id, ok := middleware.UserUUID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
		return
	}

	var req user.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid json", nil)
		return
	}
	if errs := validator.ValidateProfile(req); errs != nil {
		respondBadRequest(c, "invalid request body", errs)
		return
	}

	u, err := uc.userService.UpdateProfile(c.Request.Context(), id, req.DisplayName)
	if err != nil {
		respondError(c, uc.logger, "UpdateProfile()", err)
		return
	}

	c.JSON(http.StatusOK, user.ToResponseUser(*u))
}

func (uc *UserController) GetUsersHandler(c *gin.Context) {
	page, err := validator.ValidatePage(c.Query("page"))
	if err != nil {
		respondBadRequest(c, err.Error(), nil)
		return
	}

	users, err := uc.userService.FindUsers(c.Request.Context(), page)
	if err != nil {
		respondError(c, uc.logger, "FindUsers()", err)
		return
	}

	c.JSON(http.StatusOK, user.ResponseData{
		Data: user.ToResponseUsers(users),
	})
}

func (uc *UserController) BlockUserHandler(c *gin.Context) {
	ok, id := validator.IsUUID(c.Param("user_id"))
	if !ok {
		respondBadRequest(c, "user_id must be a valid UUID", nil)
		return
	}

	var req user.BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid json", nil)
		return
	}
	if req.Blocked == nil {
		respondBadRequest(c, "invalid request body", map[string]string{"blocked": "blocked is required"})
		return
	}

	u, err := uc.userService.SetBlocked(c.Request.Context(), id, *req.Blocked)
	if err != nil {
		respondError(c, uc.logger, "SetBlocked()", err)
		return
	}

	c.JSON(http.StatusOK, user.ToResponseUser(*u))
}

func (uc *UserController) SetRoleHandler(c *gin.Context) {
	ok, id := validator.IsUUID(c.Param("user_id"))
	if !ok {
		respondBadRequest(c, "user_id must be a valid UUID", nil)
		return
	}

	var req user.RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid json", nil)
		return
	}

	u, err := uc.userService.SetRole(c.Request.Context(), id, domain.Role(req.Role))
	if err != nil {
		respondError(c, uc.logger, "SetRole()", err)
		return
	}

	c.JSON(http.StatusOK, user.ToResponseUser(*u))
}

func (uc *UserController) DeleteUserHandler(c *gin.Context) {
	ok, id := validator.IsUUID(c.Param("user_id"))
	if !ok {
		respondBadRequest(c, "user_id must be a valid UUID", nil)
		return
	}

	if err := uc.userService.DeleteUser(c.Request.Context(), id); err != nil {
		respondError(c, uc.logger, "DeleteUser()", err)
		return
	}

	c.Status(http.StatusNoContent)
}
