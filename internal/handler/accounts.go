package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BrAcKeTzone/ePTA-Management-sub004/internal/backend"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token pair.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusOK, h.b.Login(c.Request.Context(), req.Email, req.Password))
}

// Register creates a parent account.
func (h *Handler) Register(c *gin.Context) {
	var req backend.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusCreated, h.b.Register(c.Request.Context(), req))
}

// Refresh issues a new token pair from a refresh token.
func (h *Handler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusOK, h.b.RefreshSession(c.Request.Context(), req.RefreshToken))
}

func (h *Handler) Profile(c *gin.Context) {
	respond(c, http.StatusOK, h.b.GetProfile(c.Request.Context(), caller(c).UserID))
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusOK, h.b.ChangePassword(c.Request.Context(), caller(c).UserID, req.CurrentPassword, req.NewPassword))
}

func (h *Handler) ListUsers(c *gin.Context) {
	respond(c, http.StatusOK, h.b.GetAllUsers(c.Request.Context(), listParams(c)))
}

func (h *Handler) GetUser(c *gin.Context) {
	respond(c, http.StatusOK, h.b.GetUserByID(c.Request.Context(), c.Param("id")))
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req backend.UserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusCreated, h.b.CreateUser(c.Request.Context(), req))
}

func (h *Handler) UpdateUser(c *gin.Context) {
	var req backend.UserUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusOK, h.b.UpdateUser(c.Request.Context(), c.Param("id"), req))
}

func (h *Handler) SetUserActive(c *gin.Context) {
	var req struct {
		IsActive *bool `json:"isActive" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusOK, h.b.SetUserActive(c.Request.Context(), c.Param("id"), *req.IsActive))
}

func (h *Handler) DeleteUser(c *gin.Context) {
	respond(c, http.StatusOK, h.b.DeleteUser(c.Request.Context(), c.Param("id")))
}

func (h *Handler) ListStudents(c *gin.Context) {
	respond(c, http.StatusOK, h.b.GetAllStudents(c.Request.Context(), listParams(c)))
}

func (h *Handler) GetStudent(c *gin.Context) {
	respond(c, http.StatusOK, h.b.GetStudentByID(c.Request.Context(), c.Param("id")))
}

func (h *Handler) CreateStudent(c *gin.Context) {
	var req backend.StudentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusCreated, h.b.CreateStudent(c.Request.Context(), req))
}

func (h *Handler) UpdateStudent(c *gin.Context) {
	var req backend.StudentUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusOK, h.b.UpdateStudent(c.Request.Context(), c.Param("id"), req))
}

// LinkStudent sets or, with an empty parentId, clears a student's parent.
func (h *Handler) LinkStudent(c *gin.Context) {
	var req struct {
		ParentID string `json:"parentId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusOK, h.b.LinkStudentToParent(c.Request.Context(), c.Param("id"), req.ParentID))
}

func (h *Handler) DeleteStudent(c *gin.Context) {
	respond(c, http.StatusOK, h.b.DeleteStudent(c.Request.Context(), c.Param("id")))
}

func (h *Handler) MyChildren(c *gin.Context) {
	respond(c, http.StatusOK, h.b.GetMyChildren(c.Request.Context(), caller(c).UserID))
}
