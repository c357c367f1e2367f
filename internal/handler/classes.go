package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type classRequest struct {
	Name string `json:"name" binding:"required"`
}

// AddClass creates a class.
func (h *Handler) AddClass(c *gin.Context) {
	var req classRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "name is required"})
		return
	}
	class, err := h.school.CreateClass(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Class created successfully", "class": class})
}

// GetClasses lists all classes.
func (h *Handler) GetClasses(c *gin.Context) {
	classes, err := h.school.Classes(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, classes)
}

// GetClassByID returns one class.
func (h *Handler) GetClassByID(c *gin.Context) {
	id := c.Param("id")
	if !validID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid class id"})
		return
	}
	class, err := h.school.Class(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, class)
}

// UpdateClass renames a class.
func (h *Handler) UpdateClass(c *gin.Context) {
	id := c.Param("id")
	if !validID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid class id"})
		return
	}
	var req classRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "name is required"})
		return
	}
	class, err := h.school.UpdateClass(c.Request.Context(), id, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Class updated successfully", "class": class})
}

// DeleteClass removes an empty class.
func (h *Handler) DeleteClass(c *gin.Context) {
	id := c.Param("id")
	if !validID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid class id"})
		return
	}
	if err := h.school.DeleteClass(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Class deleted successfully"})
}
