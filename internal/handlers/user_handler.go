package handlers

import (
	"diagram-hub/internal/managers"
	"diagram-hub/internal/middleware"
	"diagram-hub/internal/schemas"

	"github.com/gin-gonic/gin"
)

type UserHdl interface {
	SignUp(c *gin.Context)
	LogIn(c *gin.Context)
	GenerateOTP(c *gin.Context)
	ForgotPassword(c *gin.Context)
	GetProfile(c *gin.Context)
	GetAllUser(c *gin.Context)
	ChangePassword(c *gin.Context)
	LogOut(c *gin.Context)
}

type UserHandler struct {
	QueueManager managers.QueueMgr
}

func NewUserHandler(queueManager managers.QueueMgr) UserHdl {
	return &UserHandler{QueueManager: queueManager}
}

func (handler *UserHandler) send(c *gin.Context, pattern string, payload interface{}) {
	forward(c, handler.QueueManager, schemas.UserService, pattern, payload)
}

// SignUp registers a new user.
func (handler *UserHandler) SignUp(c *gin.Context) {
	handler.send(c, schemas.PatternSignUp, middleware.Payload[schemas.SignUpRequest](c))
}

// LogIn exchanges credentials for an access and a refresh token.
func (handler *UserHandler) LogIn(c *gin.Context) {
	handler.send(c, schemas.PatternLogIn, middleware.Payload[schemas.LogInRequest](c))
}

// GenerateOTP mails a one-time password for a password reset.
func (handler *UserHandler) GenerateOTP(c *gin.Context) {
	handler.send(c, schemas.PatternGenerateOTP, middleware.Payload[schemas.EmailRequest](c))
}

func (handler *UserHandler) ForgotPassword(c *gin.Context) {
	handler.send(c, schemas.PatternForgotPassword, middleware.Payload[schemas.ForgotPasswordRequest](c))
}

// GetProfile returns the profile of the authenticated user.
func (handler *UserHandler) GetProfile(c *gin.Context) {
	claims, ok := claimsOrAbort(c)
	if !ok {
		return
	}
	handler.send(c, schemas.PatternGetProfile, &schemas.ProfileRequest{UserID: claims.UserID})
}

func (handler *UserHandler) GetAllUser(c *gin.Context) {
	handler.send(c, schemas.PatternGetAllUser, middleware.Payload[schemas.GetUsersRequest](c))
}

// ChangePassword changes the password of the authenticated user. The email is taken from the token.
func (handler *UserHandler) ChangePassword(c *gin.Context) {
	claims, ok := claimsOrAbort(c)
	if !ok {
		return
	}
	req := middleware.Payload[schemas.ChangePasswordRequest](c)
	req.Email = claims.Email
	handler.send(c, schemas.PatternChangePassword, req)
}

func (handler *UserHandler) LogOut(c *gin.Context) {
	claims, ok := claimsOrAbort(c)
	if !ok {
		return
	}
	handler.send(c, schemas.PatternLogOut, &schemas.EmailRequest{Email: claims.Email})
}
