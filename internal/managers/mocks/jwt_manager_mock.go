package mocks

import (
	"diagram-hub/internal/managers"
	"diagram-hub/internal/schemas"
	"diagram-hub/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

// MockJwtManager is a mock of the JWTManager.
// Its middleware accepts exactly Token and stores Claims on the context.
type MockJwtManager struct {
	mock.Mock
	Token  string
	Claims *managers.Claims
}

func (m *MockJwtManager) GenerateAccessToken(userId, email string) (string, error) {
	args := m.Called(userId, email)
	return args.String(0), args.Error(1)
}

func (m *MockJwtManager) GenerateRefreshToken(userId, email string) (string, error) {
	args := m.Called(userId, email)
	return args.String(0), args.Error(1)
}

func (m *MockJwtManager) ValidateJWT(tokenString string) (*managers.Claims, error) {
	args := m.Called(tokenString)
	claims, _ := args.Get(0).(*managers.Claims)
	return claims, args.Error(1)
}

func (m *MockJwtManager) JWTMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer "+m.Token {
			utils.WriteAndLogError(c, schemas.NewUnauthorized(schemas.UnauthorizedMessage))
			return
		}
		c.Set(utils.ClaimsKey.String(), m.Claims)
		c.Next()
	}
}
