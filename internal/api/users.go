package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"invito/internal/service"
	"invito/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type userRoutes struct {
	us service.UserServiceI
}

func NewUserRoutes(handler *gin.RouterGroup, us service.UserServiceI) {
	r := &userRoutes{us: us}

	handler.GET("/healthchecker", r.HealthChecker)
	handler.GET("/users", r.ListUsers)
	handler.POST("/users", r.CreateUser)
	handler.GET("/user/:id", r.GetUserByID)
	handler.PATCH("/user/:id", r.UpdateUser)
	handler.DELETE("/user/:id", r.DeleteUser)
}

func (r *userRoutes) HealthChecker(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Invito is running...",
	})
}

func (r *userRoutes) ListUsers(c *gin.Context) {
	log := logger.Logger()

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}

	users, err := r.us.ListUsers(c.Request.Context(), page, limit)
	if err != nil {
		log.Error("failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Something bad happened while fetching all user items",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": len(users),
		"users":   users,
	})
}

type CreateUserRequest struct {
	UserName string  `json:"user_name"`
	Email    string  `json:"email"`
	RefCode  *string `json:"ref_code"`
}

func (r *userRoutes) CreateUser(c *gin.Context) {
	log := logger.Logger()

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "fail",
			"message": "invalid request body",
		})
		return
	}

	user, err := r.us.Register(c.Request.Context(), req.UserName, req.Email, req.RefCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNameTooShort):
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "fail",
				"message": err.Error(),
			})
		case errors.Is(err, service.ErrRefCodeNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "fail",
				"message": fmt.Sprintf("User with referral code: %s not found", *req.RefCode),
			})
		case errors.Is(err, service.ErrAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{
				"status":  "fail",
				"message": "user with that email already exists",
			})
		default:
			log.Error("failed to register user", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "User created successfully",
		"data":    gin.H{"user": user},
	})
}

func (r *userRoutes) GetUserByID(c *gin.Context) {
	log := logger.Logger()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		log.Error("failed to parse user id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "fail",
			"message": "invalid user id",
		})
		return
	}

	user, err := r.us.GetUserByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "fail",
				"message": fmt.Sprintf("User with ID: %s not found", id),
			})
			return
		}
		log.Error("failed to get user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"user": user},
	})
}

type UpdateUserRequest struct {
	UserName *string `json:"user_name"`
	Email    *string `json:"email"`
}

func (r *userRoutes) UpdateUser(c *gin.Context) {
	log := logger.Logger()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		log.Error("failed to parse user id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "fail",
			"message": "invalid user id",
		})
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "fail",
			"message": "invalid request body",
		})
		return
	}

	user, err := r.us.UpdateUser(c.Request.Context(), id, req.UserName, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "fail",
				"message": fmt.Sprintf("User with ID: %s not found", id),
			})
		case errors.Is(err, service.ErrAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{
				"status":  "fail",
				"message": "user with that email already exists",
			})
		default:
			log.Error("failed to update user", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"user": user},
	})
}

func (r *userRoutes) DeleteUser(c *gin.Context) {
	log := logger.Logger()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		log.Error("failed to parse user id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "fail",
			"message": "invalid user id",
		})
		return
	}

	err = r.us.DeleteUser(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "fail",
				"message": fmt.Sprintf("User with ID: %s not found", id),
			})
			return
		}
		log.Error("failed to delete user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}
