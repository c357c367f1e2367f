package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classledger/internal/attendance"
)

type markRequest struct {
	Date      string                  `json:"date" binding:"required"`
	SubjectID string                  `json:"subjectId" binding:"required"`
	ClassID   string                  `json:"classId" binding:"required"`
	Session   string                  `json:"session"`
	Records   []attendance.MarkRecord `json:"records" binding:"required,min=1"`
}

// MarkAttendance upserts a batch of status marks for one
// class/subject/date/session.
func (h *Handler) MarkAttendance(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields. date, classId, subjectId and records are required."})
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid date"})
		return
	}
	if !validID(req.ClassID) || !validID(req.SubjectID) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid classId or subjectId"})
		return
	}
	for _, rec := range req.Records {
		if !validID(rec.StudentID) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid studentId"})
			return
		}
	}

	err := h.att.Mark(c.Request.Context(), attendance.MarkInput{
		Date:      date,
		ClassID:   req.ClassID,
		SubjectID: req.SubjectID,
		Session:   req.Session,
		Records:   req.Records,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	marksTotal.Add(float64(len(req.Records)))
	c.JSON(http.StatusCreated, gin.H{"message": "Attendance marked successfully"})
}

// GetAttendance returns every roster student's status on one day.
func (h *Handler) GetAttendance(c *gin.Context) {
	dateStr := c.Query("date")
	classID := c.Query("classId")
	subjectID := c.Query("subjectId")
	if dateStr == "" || classID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Date and Class ID are required."})
		return
	}
	date, ok := parseDate(dateStr)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid date"})
		return
	}
	if !validID(classID) || (subjectID != "" && !validID(subjectID)) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid classId or subjectId"})
		return
	}

	out, err := h.att.GetAttendance(c.Request.Context(), date, classID, subjectID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// rangeParams parses the common classId/subjectId/from/to report query.
func rangeParams(c *gin.Context) (classID, subjectID string, from, to time.Time, ok bool) {
	classID = c.Query("classId")
	subjectID = c.Query("subjectId")
	fromStr, toStr := c.Query("from"), c.Query("to")
	if classID == "" || fromStr == "" || toStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Class ID and date range are required."})
		return
	}
	if !validID(classID) || (subjectID != "" && !validID(subjectID)) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid classId or subjectId"})
		return
	}
	var okFrom, okTo bool
	from, okFrom = parseDate(fromStr)
	to, okTo = parseDate(toStr)
	if !okFrom || !okTo {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid date range"})
		return
	}
	ok = true
	return
}

// GetAttendanceReport summarizes present/total/percentage per roster student.
func (h *Handler) GetAttendanceReport(c *gin.Context) {
	classID, subjectID, from, to, ok := rangeParams(c)
	if !ok {
		return
	}
	report, err := h.att.ClassReport(c.Request.Context(), classID, subjectID, from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetAttendanceTrends returns the dense daily Present-count series.
func (h *Handler) GetAttendanceTrends(c *gin.Context) {
	classID, subjectID, from, to, ok := rangeParams(c)
	if !ok {
		return
	}
	points, err := h.att.Trends(c.Request.Context(), classID, subjectID, from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

// GetDailyAttendanceReport returns the dense daily percentage series.
func (h *Handler) GetDailyAttendanceReport(c *gin.Context) {
	classID, subjectID, from, to, ok := rangeParams(c)
	if !ok {
		return
	}
	rows, err := h.att.DailyReport(c.Request.Context(), classID, subjectID, from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// DebugAttendance dumps raw records; every filter is optional.
func (h *Handler) DebugAttendance(c *gin.Context) {
	var f attendance.Filter
	if v := c.Query("classId"); v != "" {
		if !validID(v) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid classId"})
			return
		}
		f.ClassID = v
	}
	if v := c.Query("subjectId"); v != "" {
		if !validID(v) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid subjectId"})
			return
		}
		f.SubjectID = v
	}
	if v := c.Query("from"); v != "" {
		t, ok := parseDate(v)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid from date"})
			return
		}
		f.From = t
	}
	if v := c.Query("to"); v != "" {
		t, ok := parseDate(v)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid to date"})
			return
		}
		f.To = t
	}

	recs, err := h.att.Debug(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

// GetStudentAttendanceReport aggregates one student's records by subject.
func (h *Handler) GetStudentAttendanceReport(c *gin.Context) {
	studentID := c.Param("studentId")
	if !validID(studentID) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid studentId"})
		return
	}
	report, err := h.att.ReportForStudent(c.Request.Context(), studentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
