package handlers

import (
	"errors"
	"strings"

	"github.com/campuslink/buspass-backend/internal/middleware"
	"github.com/campuslink/buspass-backend/internal/models"
	"github.com/campuslink/buspass-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const authCookieMaxAge = 7 * 24 * 60 * 60 // matches token expiry

type RegisterInput struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone"`
	Password  string `json:"password" binding:"required,min=6"`
	Role      string `json:"role" binding:"required,oneof=student admin"`
	AdminType string `json:"admin_type"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

func setAuthCookie(c *gin.Context, token string) {
	c.SetCookie(middleware.AuthCookieName, token, authCookieMaxAge, "/", "", false, true)
}

func userResponse(user *models.User) gin.H {
	return gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"phone": user.Phone,
		"role":  user.Role,
	}
}

func Register(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input RegisterInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if input.Role == string(models.RoleAdmin) {
			if !models.ValidAdminType(input.AdminType) {
				c.JSON(400, gin.H{"error": "Admin type must be checking, driver, or administrator"})
				return
			}
			if strings.TrimSpace(input.Phone) == "" {
				c.JSON(400, gin.H{"error": "Phone is required for admin registration"})
				return
			}
		}

		user := models.User{
			Name:     input.Name,
			Email:    input.Email,
			Phone:    input.Phone,
			Password: input.Password,
			Role:     input.Role,
		}
		if err := user.HashPassword(); err != nil {
			c.JSON(500, gin.H{"error": "Failed to hash password"})
			return
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			if user.Role == string(models.RoleAdmin) {
				admin := models.Admin{
					UserID:    user.ID,
					AdminType: input.AdminType,
					Name:      user.Name,
					Phone:     user.Phone,
				}
				return tx.Create(&admin).Error
			}
			return nil
		})
		// Uniqueness is enforced by the email constraint, not a prior read, so
		// two concurrent registrations cannot both pass a check and then race
		// the insert; the loser surfaces here.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(409, gin.H{"error": "Email already registered"})
			return
		}
		if err != nil {
			c.JSON(500, gin.H{"error": "Registration failed"})
			return
		}

		token, err := utils.GenerateToken(&user)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to generate token"})
			return
		}
		setAuthCookie(c, token)

		c.JSON(201, gin.H{
			"token": token,
			"user":  userResponse(&user),
		})
	}
}

func Login(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		// Unknown email and wrong password answer identically so callers
		// cannot probe which addresses are registered.
		var user models.User
		if result := db.Where("email = ?", input.Email).First(&user); result.Error != nil {
			c.JSON(401, gin.H{"error": "Invalid email or password"})
			return
		}
		if err := user.CheckPassword(input.Password); err != nil {
			c.JSON(401, gin.H{"error": "Invalid email or password"})
			return
		}

		if input.Role != "" && input.Role != user.Role {
			c.JSON(403, gin.H{"error": "Please use the " + user.Role + " login page"})
			return
		}

		token, err := utils.GenerateToken(&user)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to generate token"})
			return
		}
		setAuthCookie(c, token)

		c.JSON(200, gin.H{
			"token": token,
			"user":  userResponse(&user),
		})
	}
}

// Logout clears the session cookie. Tokens stay valid until expiry; the
// cookie is the only artifact the server manages.
func Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetCookie(middleware.AuthCookieName, "", -1, "/", "", false, true)
		c.JSON(200, gin.H{"success": true})
	}
}

// GetProfile retrieves the authenticated user's record
func GetProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var user models.User
		if err := db.First(&user, userId).Error; err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		c.JSON(200, userResponse(&user))
	}
}
