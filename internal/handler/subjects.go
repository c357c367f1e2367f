package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createSubjectRequest struct {
	Name      string `json:"name" binding:"required"`
	Code      string `json:"code" binding:"required"`
	TeacherID string `json:"teacherId" binding:"required"`
	ClassID   string `json:"classId" binding:"required"`
}

// CreateSubject adds a subject linked to a teacher and a class.
func (h *Handler) CreateSubject(c *gin.Context) {
	var req createSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "name, code, teacherId and classId are required"})
		return
	}
	if !validID(req.TeacherID) || !validID(req.ClassID) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid teacherId or classId"})
		return
	}
	sub, err := h.school.CreateSubject(c.Request.Context(), req.Name, req.Code, req.TeacherID, req.ClassID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Subject created successfully", "subject": sub})
}

// GetAllSubjects lists all subjects.
func (h *Handler) GetAllSubjects(c *gin.Context) {
	subjects, err := h.school.Subjects(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, subjects)
}

// GetSubjectByID returns one subject with its links.
func (h *Handler) GetSubjectByID(c *gin.Context) {
	id := c.Param("id")
	if !validID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid subject id"})
		return
	}
	sub, err := h.school.Subject(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

type updateSubjectRequest struct {
	Name      string `json:"name"`
	Code      string `json:"code"`
	TeacherID string `json:"teacherId"`
	ClassID   string `json:"classId"`
}

// UpdateSubject overwrites the provided fields.
func (h *Handler) UpdateSubject(c *gin.Context) {
	id := c.Param("id")
	if !validID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid subject id"})
		return
	}
	var req updateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	if (req.TeacherID != "" && !validID(req.TeacherID)) || (req.ClassID != "" && !validID(req.ClassID)) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid teacherId or classId"})
		return
	}
	sub, err := h.school.UpdateSubject(c.Request.Context(), id, req.Name, req.Code, req.TeacherID, req.ClassID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subject updated", "subject": sub})
}

// DeleteSubject removes a subject.
func (h *Handler) DeleteSubject(c *gin.Context) {
	id := c.Param("id")
	if !validID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid subject id"})
		return
	}
	if err := h.school.DeleteSubject(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subject deleted successfully"})
}
