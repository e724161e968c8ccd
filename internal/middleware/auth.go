package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/careerhub/careerhub/internal/auth"
	"github.com/careerhub/careerhub/internal/auditctx"
	"github.com/careerhub/careerhub/pkg/errors"
	"github.com/careerhub/careerhub/pkg/response"
)

const (
	CtxClaimsKey = "authClaims"
	CtxUserIDKey = "userID"
)

// Auth enforces JWT authentication using the supplied JWT service. The actor
// is recorded on the request context so mutations downstream can audit it.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		token := strings.TrimSpace(authz[7:])
		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID)

		ctx := auditctx.WithActor(c.Request.Context(), auditctx.Actor{
			UserID:   claims.UserID,
			Username: claims.Email,
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
