package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/restopilot/platform/models"
	"github.com/restopilot/platform/utils"
)

type AuthController struct {
	DB *gorm.DB
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{DB: db}
}

// Register creates a tenant with its owning admin account. The tenant starts
// PENDING until approved.
func (ac *AuthController) Register(c *gin.Context) {
	type request struct {
		TenantName string `json:"tenant_name" binding:"required"`
		Slug       string `json:"slug" binding:"required"`
		AdminName  string `json:"admin_name" binding:"required"`
		Email      string `json:"email" binding:"required,email"`
		Password   string `json:"password" binding:"required"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var tenant models.Tenant
	err = ac.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.Admin
		if err := tx.Where("email = ?", req.Email).First(&existing).Error; err == nil {
			return errors.New("email is already registered")
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		admin := models.Admin{
			Name:     req.AdminName,
			Email:    req.Email,
			Password: string(hashed),
			Role:     "admin",
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}

		tenant = models.Tenant{
			Name:           req.TenantName,
			Slug:           req.Slug,
			Status:         models.TenantStatusPending,
			AdminID:        admin.ID,
			MaxSlugChanges: models.DefaultMaxSlugChanges,
		}
		return tx.Create(&tenant).Error
	})
	if err != nil {
		utils.RespondError(c, http.StatusConflict, err)
		return
	}

	utils.InfoLogger.Printf("New tenant registered: %s (slug=%s)", tenant.Name, tenant.Slug)

	utils.RespondJSON(c, http.StatusCreated, "Tenant registered", gin.H{
		"tenant_id": tenant.ID,
		"slug":      tenant.Slug,
		"status":    tenant.Status,
	})
}

// Login -> return JWT
func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var admin models.Admin
	if err := ac.DB.Where("email = ?", input.Email).First(&admin).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(input.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	// A staff account is scoped to its tenant; an owner admin to the tenant
	// it administers.
	var tenantID uint
	if admin.TenantID != nil {
		tenantID = *admin.TenantID
	} else {
		var tenant models.Tenant
		if err := ac.DB.Where("admin_id = ?", admin.ID).First(&tenant).Error; err == nil {
			tenantID = tenant.ID
		}
	}

	token, err := utils.GenerateToken(admin.ID, tenantID, admin.Role)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":     token,
		"user_role": strings.ToLower(admin.Role),
		"tenant_id": tenantID,
	})
}

// Logout revokes the presented token.
func (ac *AuthController) Logout(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("missing token"))
		return
	}
	utils.BlacklistToken(token)
	utils.RespondJSON(c, http.StatusOK, "Logged out", nil)
}
