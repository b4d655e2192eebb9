package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	config "github.com/phillip/riseandserve-go/config"
	models "github.com/phillip/riseandserve-go/models"
	services "github.com/phillip/riseandserve-go/services"
	utils "github.com/phillip/riseandserve-go/utils"
)

const identityKey = "identity"

// Claims are the bearer token fields the identity provider issues.
type Claims struct {
	UserID  string `json:"user_id,omitempty"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	Role    string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() models.Identity {
	id := c.UserID
	if id == "" {
		id = c.Subject
	}
	return models.Identity{
		ID:    id,
		Email: models.NormalizeEmail(c.Email),
		Name:  c.Name,
		Photo: c.Picture,
		Role:  c.Role,
	}
}

// ParseToken validates an HS256 token and returns its claims.
func ParseToken(secret, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("token is required")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Email == "" {
		return nil, errors.New("token carries no email")
	}
	if claims.Identity().ID == "" {
		return nil, errors.New("token carries no user id")
	}
	return claims, nil
}

// GenerateToken signs an identity, for tooling and tests.
func GenerateToken(secret string, identity models.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:  identity.ID,
		Email:   identity.Email,
		Name:    identity.Name,
		Picture: identity.Photo,
		Role:    identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// AuthMiddleware requires a valid bearer token and stores the identity, its
// user_id and role in the context.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			utils.AbortWithError(c, services.Unauthorized("missing bearer token"))
			return
		}
		claims, err := ParseToken(cfg.JWTSecret, strings.TrimSpace(tokenString))
		if err != nil {
			utils.AbortWithError(c, services.Unauthorized("invalid or expired token"))
			return
		}

		identity := claims.Identity()
		c.Set(identityKey, identity)
		c.Set("user_id", identity.ID)
		c.Set("role", identity.Role)
		c.Next()
	}
}

// CurrentIdentity returns the identity AuthMiddleware stored, if any.
func CurrentIdentity(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	identity, ok := v.(models.Identity)
	return identity, ok
}
