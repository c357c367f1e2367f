package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type addStudentRequest struct {
	Name    string `json:"name" binding:"required"`
	RollNo  string `json:"rollNo" binding:"required"`
	ClassID string `json:"classId" binding:"required"`
}

// AddStudent enrolls a student into a class.
func (h *Handler) AddStudent(c *gin.Context) {
	var req addStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Name, rollNo, and classId are required"})
		return
	}
	if !validID(req.ClassID) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid classId"})
		return
	}
	st, err := h.school.CreateStudent(c.Request.Context(), req.Name, req.RollNo, req.ClassID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

// GetStudents lists all students.
func (h *Handler) GetStudents(c *gin.Context) {
	students, err := h.school.Students(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

// GetStudentByID returns one student.
func (h *Handler) GetStudentByID(c *gin.Context) {
	id := c.Param("id")
	if !validID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid student id"})
		return
	}
	st, err := h.school.Student(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GetStudentsByClass returns the roster of a class.
func (h *Handler) GetStudentsByClass(c *gin.Context) {
	classID := c.Param("classId")
	if !validID(classID) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid classId"})
		return
	}
	roster, err := h.school.Roster(c.Request.Context(), classID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, roster)
}

type updateStudentRequest struct {
	Name    string `json:"name"`
	RollNo  string `json:"rollNo"`
	ClassID string `json:"classId"`
}

// UpdateStudent overwrites the provided fields.
func (h *Handler) UpdateStudent(c *gin.Context) {
	id := c.Param("id")
	if !validID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid student id"})
		return
	}
	var req updateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	if req.ClassID != "" && !validID(req.ClassID) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid classId"})
		return
	}
	st, err := h.school.UpdateStudent(c.Request.Context(), id, req.Name, req.RollNo, req.ClassID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// DeleteStudent removes a student.
func (h *Handler) DeleteStudent(c *gin.Context) {
	id := c.Param("id")
	if !validID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid student id"})
		return
	}
	if err := h.school.DeleteStudent(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Student deleted successfully"})
}
