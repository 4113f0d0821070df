package managers

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"diagram-hub/internal/schemas"
	"diagram-hub/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	AccessTokenType  = "access"
	RefreshTokenType = "refresh"
)

// Claims is the payload of every issued token.
type Claims struct {
	Email  string `json:"email"`
	UserID string `json:"userId"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

type JWTMgr interface {
	GenerateAccessToken(userId, email string) (string, error)
	GenerateRefreshToken(userId, email string) (string, error)
	ValidateJWT(tokenString string) (*Claims, error)
	JWTMiddleware() gin.HandlerFunc
}

// JWTManager signs and validates HS256 tokens with a shared secret.
type JWTManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewJWTManager(secret, issuer string, accessTTL, refreshTTL time.Duration) JWTMgr {
	return &JWTManager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (jm *JWTManager) GenerateAccessToken(userId, email string) (string, error) {
	return jm.generate(userId, email, AccessTokenType, jm.accessTTL)
}

func (jm *JWTManager) GenerateRefreshToken(userId, email string) (string, error) {
	return jm.generate(userId, email, RefreshTokenType, jm.refreshTTL)
}

func (jm *JWTManager) generate(userId, email, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email:  email,
		UserID: userId,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userId,
			Issuer:    jm.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jm.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateJWT checks signature, expiry and issuer, and that the token names a user.
func (jm *JWTManager) ValidateJWT(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("token is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jm.secret, nil
	}, jwt.WithIssuer(jm.issuer))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if claims.Email == "" || claims.UserID == "" {
		return nil, errors.New("invalid token payload")
	}
	return claims, nil
}

// JWTMiddleware accepts access tokens from the Authorization header and stores the claims on the context.
func (jm *JWTManager) JWTMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			utils.WriteAndLogError(c, schemas.NewUnauthorized(schemas.UnauthorizedMessage))
			return
		}

		claims, err := jm.ValidateJWT(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			utils.LogMessageWithFields(c, "warn", "Rejected token: "+err.Error())
			utils.WriteAndLogError(c, schemas.NewUnauthorized(schemas.UnauthorizedMessage))
			return
		}
		if claims.Type != AccessTokenType {
			utils.WriteAndLogError(c, schemas.NewUnauthorized(schemas.UnauthorizedMessage))
			return
		}

		c.Set(utils.ClaimsKey.String(), claims)
		c.Next()
	}
}

// ClaimsFromContext returns the claims JWTMiddleware stored, if any.
func ClaimsFromContext(c *gin.Context) (*Claims, bool) {
	value, ok := c.Get(utils.ClaimsKey.String())
	if !ok {
		return nil, false
	}
	claims, ok := value.(*Claims)
	return claims, ok
}

// HashToken computes the SHA-256 hash stored in place of an issued token.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}
