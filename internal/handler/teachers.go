package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classledger/internal/auth"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterTeacher creates a teacher account and returns a signed token.
func (h *Handler) RegisterTeacher(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "name, email and password are required"})
		return
	}
	t, err := h.school.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	token, err := auth.Issue(t.ID, t.Role, h.auth.Issuer, h.auth.SigningKey, h.auth.TokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "token issue failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":    t.ID,
		"name":  t.Name,
		"email": t.Email,
		"token": token.Value,
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginTeacher checks credentials and returns a signed token.
func (h *Handler) LoginTeacher(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "email and password are required"})
		return
	}
	t, err := h.school.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	token, err := auth.Issue(t.ID, t.Role, h.auth.Issuer, h.auth.SigningKey, h.auth.TokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "token issue failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":    t.ID,
		"name":  t.Name,
		"email": t.Email,
		"token": token.Value,
	})
}

// GetProfile returns the authenticated teacher's profile with links.
func (h *Handler) GetProfile(c *gin.Context) {
	claims, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
		return
	}
	t, err := h.school.Profile(c.Request.Context(), claims.Subject)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type updateProfileRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfile overwrites the authenticated teacher's provided fields.
func (h *Handler) UpdateProfile(c *gin.Context) {
	claims, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	t, err := h.school.UpdateProfile(c.Request.Context(), claims.Subject, req.Name, req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// DeleteTeacher removes a teacher account (admin only).
func (h *Handler) DeleteTeacher(c *gin.Context) {
	id := c.Param("id")
	if !validID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid teacher id"})
		return
	}
	if err := h.school.DeleteTeacher(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Teacher deleted successfully"})
}

type teacherClassRequest struct {
	TeacherID string `json:"teacherId" binding:"required"`
	ClassID   string `json:"classId" binding:"required"`
}

// AddClassToTeacher links a class to a teacher.
func (h *Handler) AddClassToTeacher(c *gin.Context) {
	var req teacherClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "teacherId and classId are required"})
		return
	}
	if !validID(req.TeacherID) || !validID(req.ClassID) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid teacherId or classId"})
		return
	}
	if err := h.school.LinkTeacherClass(c.Request.Context(), req.TeacherID, req.ClassID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Class and Teacher linked successfully."})
}

// RemoveClassFromTeacher unlinks a class from a teacher.
func (h *Handler) RemoveClassFromTeacher(c *gin.Context) {
	var req teacherClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "teacherId and classId are required"})
		return
	}
	if !validID(req.TeacherID) || !validID(req.ClassID) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid teacherId or classId"})
		return
	}
	if err := h.school.UnlinkTeacherClass(c.Request.Context(), req.TeacherID, req.ClassID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Class and Teacher unlinked successfully."})
}

type teacherSubjectRequest struct {
	TeacherID string `json:"teacherId" binding:"required"`
	SubjectID string `json:"subjectId" binding:"required"`
}

// AddSubjectToTeacher links a subject to a teacher.
func (h *Handler) AddSubjectToTeacher(c *gin.Context) {
	var req teacherSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "teacherId and subjectId are required"})
		return
	}
	if !validID(req.TeacherID) || !validID(req.SubjectID) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid teacherId or subjectId"})
		return
	}
	if err := h.school.LinkTeacherSubject(c.Request.Context(), req.TeacherID, req.SubjectID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subject and Teacher linked successfully."})
}

// RemoveSubjectFromTeacher unlinks a subject from a teacher.
func (h *Handler) RemoveSubjectFromTeacher(c *gin.Context) {
	var req teacherSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "teacherId and subjectId are required"})
		return
	}
	if !validID(req.TeacherID) || !validID(req.SubjectID) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid teacherId or subjectId"})
		return
	}
	if err := h.school.UnlinkTeacherSubject(c.Request.Context(), req.TeacherID, req.SubjectID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subject and Teacher unlinked successfully."})
}
