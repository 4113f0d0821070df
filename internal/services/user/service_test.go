package user

import (
	"context"
	"net/http"
	"testing"
	"time"

	"diagram-hub/internal/managers"
	"diagram-hub/internal/managers/mocks"
	"diagram-hub/internal/pagination"
	"diagram-hub/internal/schemas"
	"diagram-hub/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	service     *Service
	users       *mocks.MockStore[schemas.User]
	jwt         *mocks.MockJwtManager
	distributor *mocks.MockTaskDistributor
}

func newFixture() *fixture {
	f := &fixture{
		users:       &mocks.MockStore[schemas.User]{},
		jwt:         &mocks.MockJwtManager{},
		distributor: &mocks.MockTaskDistributor{},
	}
	f.service = &Service{
		users:       f.users,
		jwtManager:  f.jwt,
		distributor: f.distributor,
		verifyEmail: func(string) bool { return true },
		otpTTL:      time.Minute,
		now:         func() time.Time { return fixedNow },
	}
	return f
}

func hash(t *testing.T, password string) string {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hashed)
}

func storedUser(t *testing.T) *schemas.User {
	return &schemas.User{
		BaseDocument: schemas.BaseDocument{ID: primitive.NewObjectID()},
		Name:         "Ada",
		Email:        "ada@example.com",
		Password:     hash(t, "Secret#123"),
		Status:       schemas.StatusActive,
	}
}

func TestSignUp(t *testing.T) {
	t.Run("HashesPassword", func(t *testing.T) {
		f := newFixture()
		var created *schemas.User
		f.users.On("Create", mock.Anything, mock.MatchedBy(func(u *schemas.User) bool {
			created = u
			return true
		})).Return(&schemas.User{Email: "ada@example.com"}, nil)

		envelope := f.service.SignUp(context.Background(), &schemas.SignUpRequest{
			Name: "Ada", PhoneNumber: "0123", Email: "ada@example.com", Password: "Secret#123",
		})

		require.Equal(t, http.StatusCreated, envelope.StatusCode)
		require.NotNil(t, created)
		assert.Equal(t, schemas.StatusActive, created.Status)
		assert.NotEqual(t, "Secret#123", created.Password)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("Secret#123")))
	})

	t.Run("DuplicateEmailIsConflict", func(t *testing.T) {
		f := newFixture()
		f.users.On("Create", mock.Anything, mock.Anything).
			Return(nil, schemas.NewConflict("User already exists.", "email"))

		envelope := f.service.SignUp(context.Background(), &schemas.SignUpRequest{
			Name: "Ada", Email: "ada@example.com", Password: "Secret#123",
		})

		assert.Equal(t, http.StatusConflict, envelope.StatusCode)
		assert.Equal(t, "email", envelope.Errors.Field)
	})

	t.Run("UnreachableEmail", func(t *testing.T) {
		f := newFixture()
		f.service.verifyEmail = func(string) bool { return false }

		envelope := f.service.SignUp(context.Background(), &schemas.SignUpRequest{
			Name: "Ada", Email: "ada@nowhere.invalid", Password: "Secret#123",
		})

		assert.Equal(t, http.StatusBadRequest, envelope.StatusCode)
		f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestLogIn(t *testing.T) {
	t.Run("IssuesTokens", func(t *testing.T) {
		f := newFixture()
		user := storedUser(t)
		f.users.On("FindOne", mock.Anything, bson.M{"email": user.Email}).Return(user, nil)
		f.jwt.On("GenerateAccessToken", user.ID.Hex(), user.Email).Return("access", nil)
		f.jwt.On("GenerateRefreshToken", user.ID.Hex(), user.Email).Return("refresh", nil)
		f.users.On("FindOneAndUpdate", mock.Anything, bson.M{"email": user.Email}, bson.M{"$set": bson.M{
			"accessToken":  managers.HashToken("access"),
			"refreshToken": managers.HashToken("refresh"),
		}}).Return(user, nil)

		envelope := f.service.LogIn(context.Background(), &schemas.LogInRequest{Email: user.Email, Password: "Secret#123"})

		require.Equal(t, http.StatusOK, envelope.StatusCode)
		assert.Equal(t, &schemas.TokenPairDTO{AccessToken: "access", RefreshToken: "refresh"}, envelope.Data)
		f.users.AssertExpectations(t)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		f := newFixture()
		f.users.On("FindOne", mock.Anything, mock.Anything).Return(nil, schemas.NewNotFound(userNotFound))

		envelope := f.service.LogIn(context.Background(), &schemas.LogInRequest{Email: "x@example.com", Password: "p"})

		assert.Equal(t, http.StatusNotFound, envelope.StatusCode)
		assert.Equal(t, userNotFound, envelope.Message)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		f := newFixture()
		f.users.On("FindOne", mock.Anything, mock.Anything).Return(storedUser(t), nil)

		envelope := f.service.LogIn(context.Background(), &schemas.LogInRequest{Email: "ada@example.com", Password: "wrong"})

		assert.Equal(t, http.StatusUnauthorized, envelope.StatusCode)
		assert.Equal(t, "password is incorrect", envelope.Message)
	})

	t.Run("InactiveUser", func(t *testing.T) {
		f := newFixture()
		user := storedUser(t)
		user.Status = schemas.StatusInactive
		f.users.On("FindOne", mock.Anything, mock.Anything).Return(user, nil)

		envelope := f.service.LogIn(context.Background(), &schemas.LogInRequest{Email: user.Email, Password: "Secret#123"})

		assert.Equal(t, http.StatusUnauthorized, envelope.StatusCode)
		assert.Equal(t, "User is InActive", envelope.Message)
		f.jwt.AssertNotCalled(t, "GenerateAccessToken", mock.Anything, mock.Anything)
	})
}

func TestGenerateOTP(t *testing.T) {
	f := newFixture()
	user := storedUser(t)
	f.users.On("FindOne", mock.Anything, bson.M{"email": user.Email}).Return(user, nil)

	var storedOTP string
	f.users.On("FindOneAndUpdate", mock.Anything, bson.M{"email": user.Email}, mock.Anything).
		Run(func(args mock.Arguments) {
			set := args.Get(2).(bson.M)["$set"].(bson.M)
			storedOTP = set["otp"].(string)
			assert.Equal(t, fixedNow.UnixMilli(), set["otpGenerateTime"])
		}).
		Return(user, nil)
	f.distributor.On("DistributeTaskSendOTPMail", mock.Anything, mock.AnythingOfType("*worker.SendOTPMailPayload")).Return(nil)

	envelope := f.service.GenerateOTP(context.Background(), &schemas.EmailRequest{Email: user.Email})

	require.Equal(t, http.StatusOK, envelope.StatusCode)
	assert.Equal(t, msgOTPGenerated, envelope.Data)
	assert.Regexp(t, `^\d{4}$`, storedOTP)

	payload := f.distributor.Calls[0].Arguments.Get(1).(*worker.SendOTPMailPayload)
	assert.Equal(t, storedOTP, payload.OTP)
	assert.Equal(t, user.Email, payload.Email)
}

func TestForgotPassword(t *testing.T) {
	withOTP := func(t *testing.T, otp string, generated time.Time) *schemas.User {
		user := storedUser(t)
		user.OTP = otp
		if !generated.IsZero() {
			user.OTPGenerateTime = generated.UnixMilli()
		}
		return user
	}

	testCases := []struct {
		name    string
		user    *schemas.User
		otp     string
		status  int
		message string
	}{
		{"NoOTP", withOTP(t, "", time.Time{}), "1234", http.StatusNotFound, "OTP not found in this user"},
		{"Mismatch", withOTP(t, "1234", fixedNow), "4321", http.StatusBadRequest, "OTP not match"},
		{"Expired", withOTP(t, "1234", fixedNow.Add(-2*time.Minute)), "1234", http.StatusBadRequest, "OTP Expired"},
		{"Valid", withOTP(t, "1234", fixedNow.Add(-30*time.Second)), "1234", http.StatusOK, schemas.SuccessMessage},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.users.On("FindOne", mock.Anything, bson.M{"email": tc.user.Email}).Return(tc.user, nil)
			f.users.On("FindOneAndUpdate", mock.Anything, bson.M{"email": tc.user.Email}, mock.MatchedBy(func(update bson.M) bool {
				unset, ok := update["$unset"].(bson.M)
				return ok && unset["otp"] == 1 && unset["otpGenerateTime"] == 1
			})).Return(tc.user, nil)

			envelope := f.service.ForgotPassword(context.Background(), &schemas.ForgotPasswordRequest{
				Email: tc.user.Email, OTP: tc.otp, NewPassword: "Another#456",
			})

			assert.Equal(t, tc.status, envelope.StatusCode)
			assert.Equal(t, tc.message, envelope.Message)
			if tc.status != http.StatusOK {
				f.users.AssertNotCalled(t, "FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestGetProfile(t *testing.T) {
	t.Run("InvalidId", func(t *testing.T) {
		envelope := newFixture().service.GetProfile(context.Background(), &schemas.ProfileRequest{UserID: "nope"})

		assert.Equal(t, http.StatusBadRequest, envelope.StatusCode)
		assert.Equal(t, msgInvalidUserID, envelope.Message)
	})

	t.Run("Found", func(t *testing.T) {
		f := newFixture()
		user := storedUser(t)
		f.users.On("Aggregate", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				out := args.Get(2).(*[]schemas.User)
				*out = []schemas.User{{BaseDocument: user.BaseDocument, Name: user.Name, Email: user.Email}}
			}).
			Return(nil)

		envelope := f.service.GetProfile(context.Background(), &schemas.ProfileRequest{UserID: user.ID.Hex()})

		require.Equal(t, http.StatusOK, envelope.StatusCode)
		assert.Equal(t, user.Email, envelope.Data.(*schemas.User).Email)
	})

	t.Run("Missing", func(t *testing.T) {
		f := newFixture()
		f.users.On("Aggregate", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		envelope := f.service.GetProfile(context.Background(), &schemas.ProfileRequest{UserID: primitive.NewObjectID().Hex()})

		assert.Equal(t, http.StatusNotFound, envelope.StatusCode)
	})
}

func TestGetAllUser(t *testing.T) {
	f := newFixture()
	start := time.Date(2024, 5, 1, 15, 0, 0, 0, time.Local)
	f.users.On("Paginate", mock.Anything, mock.MatchedBy(func(opts pagination.Options) bool {
		_, hasRange := opts.Filter["createdAt"]
		return opts.Filter["status"] == schemas.StatusActive && hasRange && opts.Search == "ada" && opts.All
	})).Return(&pagination.Result[schemas.User]{Key: "users"})

	envelope := f.service.GetAllUser(context.Background(), &schemas.GetUsersRequest{
		PageQuery: schemas.PageQuery{Search: "ada", StartDate: &start},
		Status:    schemas.StatusActive,
	})

	assert.Equal(t, http.StatusOK, envelope.StatusCode)
	f.users.AssertExpectations(t)
}

func TestChangePassword(t *testing.T) {
	t.Run("ConfirmationMismatch", func(t *testing.T) {
		envelope := newFixture().service.ChangePassword(context.Background(), &schemas.ChangePasswordRequest{
			Email: "ada@example.com", OldPassword: "Secret#123", NewPassword: "Another#456", ConfirmPassword: "Other#789",
		})

		assert.Equal(t, http.StatusBadRequest, envelope.StatusCode)
	})

	t.Run("WrongOldPassword", func(t *testing.T) {
		f := newFixture()
		f.users.On("FindOne", mock.Anything, mock.Anything).Return(storedUser(t), nil)

		envelope := f.service.ChangePassword(context.Background(), &schemas.ChangePasswordRequest{
			Email: "ada@example.com", OldPassword: "wrong", NewPassword: "Another#456", ConfirmPassword: "Another#456",
		})

		assert.Equal(t, http.StatusUnauthorized, envelope.StatusCode)
		assert.Equal(t, "Old password is incorrect", envelope.Message)
	})

	t.Run("Updated", func(t *testing.T) {
		f := newFixture()
		user := storedUser(t)
		f.users.On("FindOne", mock.Anything, mock.Anything).Return(user, nil)
		f.users.On("FindOneAndUpdate", mock.Anything, bson.M{"email": user.Email}, mock.Anything).Return(user, nil)

		envelope := f.service.ChangePassword(context.Background(), &schemas.ChangePasswordRequest{
			Email: user.Email, OldPassword: "Secret#123", NewPassword: "Another#456", ConfirmPassword: "Another#456",
		})

		assert.Equal(t, http.StatusOK, envelope.StatusCode)
		assert.Equal(t, msgPasswordUpdated, envelope.Data)
	})
}

func TestLogOut(t *testing.T) {
	f := newFixture()
	f.users.On("FindOneAndUpdate", mock.Anything, bson.M{"email": "ada@example.com"}, bson.M{
		"$unset": bson.M{"accessToken": 1, "refreshToken": 1},
	}).Return(&schemas.User{}, nil)

	envelope := f.service.LogOut(context.Background(), &schemas.EmailRequest{Email: "ada@example.com"})

	assert.Equal(t, http.StatusOK, envelope.StatusCode)
	assert.Equal(t, msgLoggedOut, envelope.Data)
}

func TestGenerateOTPFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		otp, err := generateOTP(otpLength)
		require.NoError(t, err)
		assert.Len(t, otp, otpLength)
	}
}
