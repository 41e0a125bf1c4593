package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"filevault-api/internal/application/ports"
	"filevault-api/internal/interface/api/rest/dto/auth"
	"filevault-api/internal/interface/api/rest/validator"
)

type AuthController struct {
	logger      *zap.Logger
	authService ports.Auth
}

func NewAuthController(
	r *gin.Engine,
	logger *zap.Logger,
	authService ports.Auth,
) *AuthController {
	ac := &AuthController{
		logger:      logger,
		authService: authService,
	}

	r.POST(RouteExternalLogin, ac.ExternalLoginHandler)
	r.POST(RouteRegister, ac.RegisterHandler)
	r.POST(RouteLogin, ac.LoginHandler)

	return ac
}

func (ac *AuthController) ExternalLoginHandler(c *gin.Context) {
	var req auth.ExternalLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid json", nil)
		return
	}

	s, err := ac.authService.LoginWithExternalToken(c.Request.Context(), req.Credential)
	if err != nil {
		respondError(c, ac.logger, "LoginWithExternalToken()", err)
		return
	}

	c.JSON(http.StatusOK, auth.ToResponse(s))
}

func (ac *AuthController) RegisterHandler(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid json", nil)
		return
	}
	if errs := validator.ValidateRegister(req); errs != nil {
		respondBadRequest(c, "invalid request body", errs)
		return
	}

	s, err := ac.authService.Register(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		respondError(c, ac.logger, "Register()", err)
		return
	}

	c.JSON(http.StatusCreated, auth.ToResponse(s))
}

func (ac *AuthController) LoginHandler(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid json", nil)
		return
	}
	if errs := validator.ValidateLogin(req); errs != nil {
		respondBadRequest(c, "invalid request body", errs)
		return
	}

	s, err := ac.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, ac.logger, "Login()", err)
		return
	}

	c.JSON(http.StatusOK, auth.ToResponse(s))
}
