package attendance

import (
	"fmt"
	"strings"
	"time"

	"buzzatt/internal/apperr"
	"buzzatt/internal/model"
)

// SavedMessage is the confirmation returned with every committed session.
const SavedMessage = "Session attendance saved successfully"

// ErrDuplicateSession is returned when the caller-supplied session id is
// already taken.
var ErrDuplicateSession = apperr.Conflict("Session ID already exists")

// StudentEntry is one check-in on a submitted roster.
type StudentEntry struct {
	MatricNumber string
	Timestamp    time.Time
	IPAddress    string
}

// SessionPayload is a completed attendance-taking session.
type SessionPayload struct {
	SessionID  string
	CourseName string
	Start      time.Time
	End        time.Time
	// Duration is in seconds.
	Duration int
	Students []StudentEntry
}

// Validate trims string fields in place and checks the payload.
func (p *SessionPayload) Validate() error {
	p.SessionID = strings.TrimSpace(p.SessionID)
	p.CourseName = strings.TrimSpace(p.CourseName)
	switch {
	case p.SessionID == "":
		return apperr.Validation("session_id is required")
	case p.CourseName == "":
		return apperr.Validation("course_name is required")
	case p.Start.IsZero():
		return apperr.Validation("session_start is required")
	case p.End.IsZero():
		return apperr.Validation("session_end is required")
	case p.End.Before(p.Start):
		return apperr.Validation("session_end must not be before session_start")
	case p.Duration < 0:
		return apperr.Validation("session_duration must not be negative")
	}
	for i := range p.Students {
		s := &p.Students[i]
		s.MatricNumber = strings.TrimSpace(s.MatricNumber)
		s.IPAddress = strings.TrimSpace(s.IPAddress)
		if s.MatricNumber == "" {
			return apperr.Validation(fmt.Sprintf("students[%d].matric_number is required", i))
		}
		if s.Timestamp.IsZero() {
			return apperr.Validation(fmt.Sprintf("students[%d].timestamp is required", i))
		}
	}
	return nil
}

// EntryStatus tells whether a roster entry was written.
type EntryStatus string

const (
	EntrySaved      EntryStatus = "saved"
	EntryUnresolved EntryStatus = "unresolved"
)

// EntryResult reports what happened to one roster entry, in input order.
type EntryResult struct {
	MatricNumber string      `json:"matric_number"`
	Status       EntryStatus `json:"status"`
}

// SaveResult summarises a committed session.
type SaveResult struct {
	Success         bool          `json:"success"`
	Message         string        `json:"message"`
	SavedCount      int           `json:"saved_count"`
	UnresolvedCount int           `json:"unresolved_count"`
	Results         []EntryResult `json:"results"`
}

// Filter narrows ListSessions. Zero values are ignored.
type Filter struct {
	CourseName string
	From       time.Time
	To         time.Time
}

// StudentRecord is a stored check-in joined with the student's matric number.
type StudentRecord struct {
	MatricNumber string          `json:"matric_number"`
	Timestamp    model.Timestamp `json:"timestamp"`
	IPAddress    string          `json:"ip_address"`
}

// SessionSummary is one session as reported to lecturers.
type SessionSummary struct {
	SessionID     string          `json:"session_id"`
	CourseName    string          `json:"course_name"`
	Date          string          `json:"date"`
	StartTime     model.Timestamp `json:"start_time"`
	EndTime       model.Timestamp `json:"end_time"`
	Duration      int             `json:"duration"`
	TotalStudents int             `json:"total_students"`
	Students      []StudentRecord `json:"students"`
}

// Report is the result of ListSessions.
type Report struct {
	Sessions      []SessionSummary `json:"sessions"`
	TotalSessions int              `json:"total_sessions"`
}
