// Package user implements the user service: registration, authentication, password reset and profiles.
package user

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"diagram-hub/internal/managers"
	"diagram-hub/internal/pagination"
	"diagram-hub/internal/repository"
	"diagram-hub/internal/rpc"
	"diagram-hub/internal/schemas"
	"diagram-hub/internal/utils"
	"diagram-hub/internal/worker"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

const (
	userNotFound        = "User not found"
	otpLength           = 4
	msgOTPGenerated     = "OTP Generated"
	msgPasswordReset    = "New password generated successfully"
	msgPasswordUpdated  = "Password updated successfully"
	msgLoggedOut        = "Logged out successfully"
	msgInvalidUserID    = "Invalid User ID format"
	msgLoginServerError = "Login failed due to server error"
)

// profileProjection lists the fields a user may see of an account.
var profileProjection = bson.D{{Key: "$project", Value: bson.M{
	"_id":         1,
	"name":        1,
	"email":       1,
	"phoneNumber": 1,
	"status":      1,
	"createdAt":   1,
	"updatedAt":   1,
}}}

type Service struct {
	users       repository.Store[schemas.User]
	jwtManager  managers.JWTMgr
	distributor worker.TaskDistributor
	verifyEmail func(email string) bool
	otpTTL      time.Duration
	now         func() time.Time
}

func NewService(users repository.Store[schemas.User], jwtManager managers.JWTMgr, distributor worker.TaskDistributor, otpTTL time.Duration) *Service {
	return &Service{
		users:       users,
		jwtManager:  jwtManager,
		distributor: distributor,
		verifyEmail: utils.GetValidator().VerifyEmail,
		otpTTL:      otpTTL,
		now:         time.Now,
	}
}

// Register binds the user message patterns to the service.
func (s *Service) Register(srv *rpc.Server) {
	rpc.Handle(srv, schemas.PatternGetAllUser, s.GetAllUser)
	rpc.Handle(srv, schemas.PatternSignUp, s.SignUp)
	rpc.Handle(srv, schemas.PatternLogIn, s.LogIn)
	rpc.Handle(srv, schemas.PatternGenerateOTP, s.GenerateOTP)
	rpc.Handle(srv, schemas.PatternForgotPassword, s.ForgotPassword)
	rpc.Handle(srv, schemas.PatternGetProfile, s.GetProfile)
	rpc.Handle(srv, schemas.PatternChangePassword, s.ChangePassword)
	rpc.Handle(srv, schemas.PatternLogOut, s.LogOut)
}

// GetAllUser lists users filtered by email, status, name and creation date.
func (s *Service) GetAllUser(ctx context.Context, req *schemas.GetUsersRequest) *schemas.Envelope {
	filter := bson.M{}
	if req.Email != "" {
		filter["email"] = req.Email
	}
	if req.Status != "" {
		filter["status"] = req.Status
	}
	if createdAt := utils.BuildDateRangeFilter(req.StartDate, req.EndDate); createdAt != nil {
		filter["createdAt"] = createdAt
	}

	users := s.users.Paginate(ctx, pagination.Options{
		Filter:    filter,
		Search:    req.Search,
		Limit:     req.Limit,
		Offset:    req.Offset,
		All:       !req.Meta,
		Pipelines: []bson.D{profileProjection},
	})
	return schemas.Success(http.StatusOK, users)
}

// SignUp creates an account with a bcrypt hashed password.
func (s *Service) SignUp(ctx context.Context, req *schemas.SignUpRequest) *schemas.Envelope {
	if s.verifyEmail != nil && !s.verifyEmail(req.Email) {
		return schemas.Failure(schemas.NewValidation(schemas.BadRequestMessage, schemas.FieldError{
			Field:   "email",
			Message: "email address is not reachable",
		}))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return schemas.Failure(schemas.NewInternal(err))
	}

	status := req.Status
	if status == "" {
		status = schemas.StatusActive
	}

	user, err := s.users.Create(ctx, &schemas.User{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		Password:    string(hashedPassword),
		Status:      status,
	})
	if err != nil {
		utils.LogMessageWithFields(ctx, "warn", "Sign-up failed: "+err.Error())
		return schemas.Failure(err)
	}

	utils.LogMessageWithFields(ctx, "info", "Registered user "+user.ID.Hex())
	return schemas.Success(http.StatusCreated, user)
}

// LogIn checks the credentials and issues an access and a refresh token.
// Only the SHA-256 hashes of the tokens are stored.
func (s *Service) LogIn(ctx context.Context, req *schemas.LogInRequest) *schemas.Envelope {
	user, err := s.users.FindOne(ctx, bson.M{"email": req.Email}, repository.WithNotFoundMessage(userNotFound))
	if err != nil {
		return schemas.Failure(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return schemas.Failure(schemas.NewUnauthorized("password is incorrect"))
	}
	if user.Status == schemas.StatusInactive {
		return schemas.Failure(schemas.NewUnauthorized("User is InActive"))
	}

	userId := user.ID.Hex()
	accessToken, err := s.jwtManager.GenerateAccessToken(userId, user.Email)
	if err != nil {
		return schemas.Failure(schemas.NewBadRequest(msgLoginServerError).WithCause(err))
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(userId, user.Email)
	if err != nil {
		return schemas.Failure(schemas.NewBadRequest(msgLoginServerError).WithCause(err))
	}

	_, err = s.users.FindOneAndUpdate(ctx, bson.M{"email": req.Email}, bson.M{"$set": bson.M{
		"accessToken":  managers.HashToken(accessToken),
		"refreshToken": managers.HashToken(refreshToken),
	}})
	if err != nil {
		utils.LogMessageWithFields(ctx, "error", "Storing token hashes failed: "+err.Error())
		return schemas.Failure(schemas.NewBadRequest(msgLoginServerError).WithCause(err))
	}

	utils.LogMessageWithFields(ctx, "info", "User "+userId+" logged in")
	return schemas.Success(http.StatusOK, &schemas.TokenPairDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// GenerateOTP stores a fresh one-time password and queues the mail carrying it.
func (s *Service) GenerateOTP(ctx context.Context, req *schemas.EmailRequest) *schemas.Envelope {
	user, err := s.users.FindOne(ctx, bson.M{"email": req.Email}, repository.WithNotFoundMessage(userNotFound))
	if err != nil {
		return schemas.Failure(err)
	}

	otp, err := generateOTP(otpLength)
	if err != nil {
		return schemas.Failure(schemas.NewInternal(err))
	}

	_, err = s.users.FindOneAndUpdate(ctx, bson.M{"email": req.Email}, bson.M{"$set": bson.M{
		"otp":             otp,
		"otpGenerateTime": s.now().UnixMilli(),
	}})
	if err != nil {
		return schemas.Failure(err)
	}

	err = s.distributor.DistributeTaskSendOTPMail(ctx, &worker.SendOTPMailPayload{
		TraceID: utils.TraceIdFromContext(ctx),
		Email:   user.Email,
		Name:    user.Name,
		OTP:     otp,
	})
	if err != nil {
		utils.LogMessageWithFields(ctx, "error", "Queueing OTP mail failed: "+err.Error())
		return schemas.Failure(schemas.NewInternal(err))
	}

	return schemas.Success(http.StatusOK, msgOTPGenerated)
}

// ForgotPassword replaces the password when the OTP matches and has not expired.
func (s *Service) ForgotPassword(ctx context.Context, req *schemas.ForgotPasswordRequest) *schemas.Envelope {
	user, err := s.users.FindOne(ctx, bson.M{"email": req.Email}, repository.WithNotFoundMessage(userNotFound))
	if err != nil {
		return schemas.Failure(err)
	}

	if user.OTP == "" {
		return schemas.Failure(schemas.NewNotFound("OTP not found in this user"))
	}
	if req.OTP != user.OTP {
		return schemas.Failure(schemas.NewBadRequest("OTP not match"))
	}
	if user.OTPGenerateTime == 0 || s.now().Sub(time.UnixMilli(user.OTPGenerateTime)) > s.otpTTL {
		return schemas.Failure(schemas.NewBadRequest("OTP Expired"))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return schemas.Failure(schemas.NewInternal(err))
	}

	_, err = s.users.FindOneAndUpdate(ctx, bson.M{"email": req.Email}, bson.M{
		"$set":   bson.M{"password": string(hashedPassword)},
		"$unset": bson.M{"otp": 1, "otpGenerateTime": 1},
	})
	if err != nil {
		return schemas.Failure(err)
	}

	return schemas.Success(http.StatusOK, msgPasswordReset)
}

// GetProfile returns the public fields of one user.
func (s *Service) GetProfile(ctx context.Context, req *schemas.ProfileRequest) *schemas.Envelope {
	userId, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		return schemas.Failure(schemas.NewBadRequest(msgInvalidUserID))
	}

	var users []schemas.User
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": userId}}},
		profileProjection,
	}
	if err := s.users.Aggregate(ctx, pipeline, &users); err != nil {
		return schemas.Failure(err)
	}
	if len(users) == 0 {
		return schemas.Failure(schemas.NewNotFound(userNotFound))
	}

	return schemas.Success(http.StatusOK, &users[0])
}

// ChangePassword replaces the password of the authenticated user after checking the old one.
func (s *Service) ChangePassword(ctx context.Context, req *schemas.ChangePasswordRequest) *schemas.Envelope {
	if req.Email == "" {
		return schemas.Failure(schemas.NewUnauthorized(schemas.UnauthorizedMessage))
	}
	if req.NewPassword != req.ConfirmPassword {
		return schemas.Failure(schemas.NewBadRequest("New password and confirm password do not match"))
	}

	user, err := s.users.FindOne(ctx, bson.M{"email": req.Email}, repository.WithNotFoundMessage(userNotFound))
	if err != nil {
		return schemas.Failure(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		return schemas.Failure(schemas.NewUnauthorized("Old password is incorrect"))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return schemas.Failure(schemas.NewInternal(err))
	}

	_, err = s.users.FindOneAndUpdate(ctx, bson.M{"email": req.Email}, bson.M{"$set": bson.M{"password": string(hashedPassword)}})
	if err != nil {
		return schemas.Failure(err)
	}

	utils.LogMessageWithFields(ctx, "info", "Password changed for user "+user.ID.Hex())
	return schemas.Success(http.StatusOK, msgPasswordUpdated)
}

// LogOut forgets the stored token hashes of the user.
func (s *Service) LogOut(ctx context.Context, req *schemas.EmailRequest) *schemas.Envelope {
	_, err := s.users.FindOneAndUpdate(ctx, bson.M{"email": req.Email}, bson.M{
		"$unset": bson.M{"accessToken": 1, "refreshToken": 1},
	}, repository.WithNotFoundMessage(userNotFound))
	if err != nil {
		if !errors.Is(err, schemas.ErrNotFound) {
			utils.LogMessageWithFields(ctx, "error", "Logout failed: "+err.Error())
		}
		return schemas.Failure(err)
	}

	return schemas.Success(http.StatusOK, msgLoggedOut)
}

// generateOTP returns a random numeric code of the given length.
func generateOTP(length int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n.Int64()), nil
}
