package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tablereserve/reservation-app/middlewares"
	"github.com/tablereserve/reservation-app/models"
	"github.com/tablereserve/reservation-app/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserController struct {
	DB *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

// Register -> always creates a customer account
func (uc *UserController) Register(c *gin.Context) {
	type request struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Phone    string `json:"phone"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondInternal(c, err)
		return
	}

	user := models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: string(hashed),
		Phone:    strings.TrimSpace(req.Phone),
		Role:     models.RoleCustomer,
	}

	if err := uc.DB.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.RespondError(c, http.StatusConflict, errors.New("email already registered"))
			return
		}
		respondInternal(c, err)
		return
	}

	utils.InfoLogger.Printf("New user registered: %s (role=%s)", user.Email, user.Role)

	utils.RespondJSON(c, http.StatusCreated, "User registered", gin.H{
		"user_id": user.ID,
	})
}

// Login -> return JWT
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	if err := uc.DB.WithContext(c.Request.Context()).Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).First(&user).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Role, user.RestaurantID)
	if err != nil {
		respondInternal(c, err)
		return
	}

	utils.InfoLogger.Printf("Login successful for user: %s, role: %s", user.Email, user.Role)

	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":         token,
		"user_role":     user.Role,
		"restaurant_id": user.RestaurantID,
	})
}

// Logout -> revokes the presented token until it would have expired
func (uc *UserController) Logout(c *gin.Context) {
	token := c.GetString(middlewares.ContextToken)
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	until := time.Now().Add(24 * time.Hour)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	utils.BlacklistToken(token, until)

	utils.RespondJSON(c, http.StatusOK, "Logged out", nil)
}

// GetProfile -> the user behind the token
func (uc *UserController) GetProfile(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}

	var user models.User
	if err := uc.DB.WithContext(c.Request.Context()).Preload("Restaurant").First(&user, userID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("user not found"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Profile data retrieved successfully", user)
}

// GetAllUsers -> super admin only
func (uc *UserController) GetAllUsers(c *gin.Context) {
	var users []models.User
	if err := uc.DB.WithContext(c.Request.Context()).Order("created_at DESC").Find(&users).Error; err != nil {
		respondInternal(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "All users", users)
}

func (uc *UserController) findUser(c *gin.Context) (*models.User, bool) {
	var user models.User
	if err := uc.DB.WithContext(c.Request.Context()).First(&user, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, errors.New("user not found"))
			return nil, false
		}
		respondInternal(c, err)
		return nil, false
	}
	return &user, true
}

func (uc *UserController) restaurantExists(c *gin.Context, id *uint) (bool, error) {
	if id == nil {
		return true, nil
	}
	var count int64
	err := uc.DB.WithContext(c.Request.Context()).Model(&models.Restaurant{}).Where("id = ?", *id).Count(&count).Error
	return count > 0, err
}

// PromoteUser -> makes a user an admin, optionally scoped to one restaurant
func (uc *UserController) PromoteUser(c *gin.Context) {
	user, ok := uc.findUser(c)
	if !ok {
		return
	}

	var body struct {
		Role         string `json:"role"`
		RestaurantID *uint  `json:"restaurant_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if body.Role == "" {
		body.Role = models.RoleAdmin
	}
	if body.Role != models.RoleCustomer && !models.IsAdminRole(body.Role) {
		utils.RespondError(c, http.StatusBadRequest, errors.New("role must be customer, admin or super_admin"))
		return
	}
	if exists, err := uc.restaurantExists(c, body.RestaurantID); err != nil {
		respondInternal(c, err)
		return
	} else if !exists {
		utils.RespondError(c, http.StatusBadRequest, ErrRestaurantNotFound)
		return
	}

	if err := uc.DB.WithContext(c.Request.Context()).Model(user).Updates(map[string]interface{}{
		"role":          body.Role,
		"restaurant_id": body.RestaurantID,
	}).Error; err != nil {
		respondInternal(c, err)
		return
	}
	user.Role = body.Role
	user.RestaurantID = body.RestaurantID

	utils.InfoLogger.Printf("User %s is now %s", user.Email, user.Role)
	utils.RespondJSON(c, http.StatusOK, "User role updated", user)
}

// SetUserRestaurant -> changes an admin's scope; null means all restaurants
func (uc *UserController) SetUserRestaurant(c *gin.Context) {
	user, ok := uc.findUser(c)
	if !ok {
		return
	}

	var body struct {
		RestaurantID *uint `json:"restaurant_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if exists, err := uc.restaurantExists(c, body.RestaurantID); err != nil {
		respondInternal(c, err)
		return
	} else if !exists {
		utils.RespondError(c, http.StatusBadRequest, ErrRestaurantNotFound)
		return
	}

	if err := uc.DB.WithContext(c.Request.Context()).Model(user).Update("restaurant_id", body.RestaurantID).Error; err != nil {
		respondInternal(c, err)
		return
	}
	user.RestaurantID = body.RestaurantID

	utils.RespondJSON(c, http.StatusOK, "User restaurant updated", user)
}
