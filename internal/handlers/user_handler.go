// scholarship-system/internal/handlers/user_handler.go
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/anud18/scholarship-system-sub001/config"
	"github.com/anud18/scholarship-system-sub001/internal/apperr"
	"github.com/anud18/scholarship-system-sub001/models"
)

// UserHandler is the admin surface for account management. Reviewer roles
// are assigned here; the auth cache is invalidated on every change so a
// role edit takes effect without waiting out the cache TTL.
type UserHandler struct {
	DB *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{DB: db}
}

// userResponse keeps password hashes out of API responses.
type userResponse struct {
	ID             uint                `json:"id"`
	Login          string              `json:"login"`
	Name           string              `json:"name"`
	Email          string              `json:"email"`
	Role           models.ReviewerRole `json:"role"`
	StudentNo      string              `json:"studentNo,omitempty"`
	DepartmentCode string              `json:"departmentCode,omitempty"`
	CollegeCode    string              `json:"collegeCode,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:             u.ID,
		Login:          u.Login,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		StudentNo:      u.StudentNo,
		DepartmentCode: u.DepartmentCode,
		CollegeCode:    u.CollegeCode,
		CreatedAt:      u.CreatedAt,
	}
}

// List returns users, paginated by default; ?all=true returns the plain
// array the role-assignment UI consumes.
func (h *UserHandler) List(c *gin.Context) {
	query := h.DB.Model(&models.User{}).Order("id")
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var users []models.User
	if c.Query("all") == "true" {
		if err := query.Find(&users).Error; err != nil {
			respondError(c, err)
			return
		}
		responses := make([]userResponse, 0, len(users))
		for i := range users {
			responses = append(responses, toUserResponse(&users[i]))
		}
		c.JSON(http.StatusOK, gin.H{"data": responses})
		return
	}

	var totalRows int64
	if err := query.Count(&totalRows).Error; err != nil {
		respondError(c, err)
		return
	}
	if err := query.Scopes(Paginate(c)).Find(&users).Error; err != nil {
		respondError(c, err)
		return
	}
	responses := make([]userResponse, 0, len(users))
	for i := range users {
		responses = append(responses, toUserResponse(&users[i]))
	}
	c.JSON(http.StatusOK, CreatePaginatedResponse(c, responses, totalRows))
}

func (h *UserHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, apperr.NotFound("user %d not found", id))
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(&user))
}

type createUserInput struct {
	Login          string              `json:"login" binding:"required"`
	Name           string              `json:"name" binding:"required"`
	Email          string              `json:"email" binding:"required,email"`
	Password       string              `json:"password" binding:"required"`
	Role           models.ReviewerRole `json:"role" binding:"required"`
	StudentNo      string              `json:"studentNo"`
	DepartmentCode string              `json:"departmentCode"`
	CollegeCode    string              `json:"collegeCode"`
}

func (h *UserHandler) Create(c *gin.Context) {
	var input createUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Role.Tier() == 0 && input.Role != models.RoleStudent {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": fmt.Sprintf("unknown role %q", input.Role)})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, err)
		return
	}
	user := models.User{
		Login:          input.Login,
		Name:           input.Name,
		Email:          input.Email,
		PasswordHash:   string(hashed),
		Role:           input.Role,
		StudentNo:      input.StudentNo,
		DepartmentCode: input.DepartmentCode,
		CollegeCode:    input.CollegeCode,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(&user))
}

type updateUserInput struct {
	Name           *string              `json:"name"`
	Email          *string              `json:"email"`
	Password       *string              `json:"password"`
	Role           *models.ReviewerRole `json:"role"`
	DepartmentCode *string              `json:"departmentCode"`
	CollegeCode    *string              `json:"collegeCode"`
}

func (h *UserHandler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, apperr.NotFound("user %d not found", id))
			return
		}
		respondError(c, err)
		return
	}

	var input updateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Role != nil {
		user.Role = *input.Role
	}
	if input.DepartmentCode != nil {
		user.DepartmentCode = *input.DepartmentCode
	}
	if input.CollegeCode != nil {
		user.CollegeCode = *input.CollegeCode
	}
	if input.Password != nil && *input.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			respondError(c, err)
			return
		}
		user.PasswordHash = string(hashed)
	}

	if err := h.DB.Save(&user).Error; err != nil {
		respondError(c, err)
		return
	}

	if config.RDB != nil {
		cacheKey := fmt.Sprintf("user:%d:data", user.ID)
		if err := config.RDB.Del(config.Ctx, cacheKey).Err(); err != nil {
			slog.Warn("failed to invalidate user cache", "user_id", user.ID, "error", err)
		}
	}

	c.JSON(http.StatusOK, toUserResponse(&user))
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	if err := h.DB.Delete(&models.User{}, id).Error; err != nil {
		respondError(c, err)
		return
	}
	if config.RDB != nil {
		config.RDB.Del(config.Ctx, fmt.Sprintf("user:%d:data", id))
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
