// scholarship-system/internal/middleware/auth_middleware.go
package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/anud18/scholarship-system-sub001/config"
	"github.com/anud18/scholarship-system-sub001/models"
)

// CachedUserData is the user payload kept in Redis between requests.
type CachedUserData struct {
	UserID      uint                `json:"user_id"`
	Login       string              `json:"login"`
	Name        string              `json:"name"`
	Role        models.ReviewerRole `json:"role"`
	StudentNo   string              `json:"student_no"`
	CollegeCode string              `json:"college_code"`
}

// AuthMiddleware authenticates the request via the auth cookie or bearer
// header and attaches the current user to the context. User data is served
// from the Redis cache when possible, with a DB fallback.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie("auth_token")
		if err != nil || tokenStr == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				abortAuth(c, "Authorization token not provided")
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				abortAuth(c, "Invalid Authorization header format")
				return
			}
			tokenStr = parts[1]
		}

		token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return config.JwtKey, nil
		})
		if err != nil || !token.Valid {
			abortAuth(c, "Invalid or expired token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortAuth(c, "Invalid token claims")
			return
		}
		userIDFloat, ok := claims["user_id"].(float64)
		if !ok {
			abortAuth(c, "Invalid user ID format in token")
			return
		}
		userID := uint(userIDFloat)

		cacheKey := fmt.Sprintf("user:%d:data", userID)
		if config.RDB != nil {
			cached, err := config.RDB.Get(config.Ctx, cacheKey).Result()
			if err == nil {
				var data CachedUserData
				if json.Unmarshal([]byte(cached), &data) == nil {
					setUser(c, &data)
					return
				}
				slog.Warn("failed to unmarshal cached user data", "user_id", userID)
			} else if err != redis.Nil {
				slog.Error("redis GET failed", "user_id", userID, "error", err)
			}
		}

		var dbUser models.User
		if err := config.DB.First(&dbUser, userID).Error; err != nil {
			abortAuth(c, "User from token not found")
			return
		}

		data := CachedUserData{
			UserID:      dbUser.ID,
			Login:       dbUser.Login,
			Name:        dbUser.Name,
			Role:        dbUser.Role,
			StudentNo:   dbUser.StudentNo,
			CollegeCode: dbUser.CollegeCode,
		}
		if config.RDB != nil {
			if raw, err := json.Marshal(data); err == nil {
				if err := config.RDB.Set(config.Ctx, cacheKey, raw, 15*time.Minute).Err(); err != nil {
					slog.Warn("failed to cache user data", "user_id", userID, "error", err)
				}
			}
		}
		setUser(c, &data)
	}
}

func setUser(c *gin.Context, data *CachedUserData) {
	user := &models.User{
		Login:       data.Login,
		Name:        data.Name,
		Role:        data.Role,
		StudentNo:   data.StudentNo,
		CollegeCode: data.CollegeCode,
	}
	user.ID = data.UserID
	c.Set("currentUser", user)
	c.Next()
}

// CurrentUser extracts the authenticated user placed by AuthMiddleware.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get("currentUser"); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// RequireRole admits only the listed roles. Super-admins pass every gate.
func RequireRole(roles ...models.ReviewerRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			abortAuth(c, "Not authenticated")
			return
		}
		if user.Role == models.RoleSuperAdmin {
			c.Next()
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": fmt.Sprintf("role %q is not allowed to perform this action", user.Role)})
		c.Abort()
	}
}

func abortAuth(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": message})
	c.Abort()
}
