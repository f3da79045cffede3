package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"buzzatt/internal/attendance"
	"buzzatt/internal/auth"
	"buzzatt/internal/model"
)

type studentRequest struct {
	MatricNumber string          `json:"matric_number" binding:"required"`
	Timestamp    model.Timestamp `json:"timestamp"`
	IPAddress    string          `json:"ip_address" binding:"required,ip"`
}

type saveSessionRequest struct {
	SessionID       string           `json:"session_id" binding:"required"`
	CourseName      string           `json:"course_name" binding:"required"`
	SessionStart    model.Timestamp  `json:"session_start"`
	SessionEnd      model.Timestamp  `json:"session_end"`
	SessionDuration *int             `json:"session_duration" binding:"required"`
	Students        []studentRequest `json:"students" binding:"required,dive"`
}

func (r saveSessionRequest) payload() attendance.SessionPayload {
	p := attendance.SessionPayload{
		SessionID:  r.SessionID,
		CourseName: r.CourseName,
		Start:      r.SessionStart.Time,
		End:        r.SessionEnd.Time,
		Duration:   *r.SessionDuration,
		Students:   make([]attendance.StudentEntry, len(r.Students)),
	}
	for i, s := range r.Students {
		p.Students[i] = attendance.StudentEntry{
			MatricNumber: s.MatricNumber,
			Timestamp:    s.Timestamp.Time,
			IPAddress:    s.IPAddress,
		}
	}
	return p
}

func (h *Handler) saveSession(c *gin.Context) {
	var req saveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	claims, _ := auth.ClaimsFrom(c)

	res, err := h.attendance.SaveSession(c.Request.Context(), claims.Subject, req.payload())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) listSessions(c *gin.Context) {
	from, err := queryTime(c, "from_date")
	if err != nil {
		badRequest(c, err)
		return
	}
	to, err := queryTime(c, "to_date")
	if err != nil {
		badRequest(c, err)
		return
	}

	report, err := h.attendance.ListSessions(c.Request.Context(), attendance.Filter{
		CourseName: c.Query("course_name"),
		From:       from,
		To:         to,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// queryTime parses an optional date-time query parameter. Absent values
// yield the zero time.
func queryTime(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, nil
	}
	ts, err := model.ParseTimestamp(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return ts.Time, nil
}
