package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"buzzatt/internal/auth"
	"buzzatt/internal/model"
)

type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// login accepts the OAuth2 password form; username carries the email.
func (h *Handler) login(c *gin.Context) {
	var req loginForm
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type registerRequest struct {
	Email        string            `json:"email" binding:"required,email"`
	FirstName    string            `json:"first_name" binding:"required"`
	LastName     string            `json:"last_name" binding:"required"`
	MatricNumber *string           `json:"matric_number"`
	Department   string            `json:"department" binding:"required"`
	Faculty      string            `json:"faculty" binding:"required"`
	Password     string            `json:"password" binding:"required"`
	ProfileType  model.ProfileType `json:"profile_type" binding:"required,oneof=student lecturer"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := h.auth.Register(c.Request.Context(), auth.RegisterInput{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Department:   req.Department,
		Faculty:      req.Faculty,
		Password:     req.Password,
		ProfileType:  req.ProfileType,
		MatricNumber: req.MatricNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) logout(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		respondError(c, auth.ErrInvalidToken)
		return
	}
	if err := h.auth.Logout(c.Request.Context(), claims); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
