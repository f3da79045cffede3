package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"buzzatt/internal/model"
	"buzzatt/internal/store"
)

// Repository persists attendance sessions in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SaveSession writes the session row and one attendance row per resolvable
// roster entry in a single transaction. Entries whose matric number matches
// no user are reported as unresolved.
func (r *Repository) SaveSession(ctx context.Context, creatorEmail string, p SessionPayload) (SaveResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return SaveResult{}, fmt.Errorf("begin save session: %w", err)
	}
	defer tx.Rollback()

	var sessionPK int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO attendance_sessions (session_id, course_name, session_start, session_end, session_duration, created_by)
		VALUES ($1, $2, $3, $4, $5, (SELECT id FROM users WHERE email = $6))
		RETURNING id
	`, p.SessionID, p.CourseName, p.Start.UTC(), p.End.UTC(), p.Duration, creatorEmail).Scan(&sessionPK)
	if err != nil {
		// session_id is the only unique column besides the key; its index
		// name depends on which tool created the table.
		if store.IsUniqueViolation(err, "") {
			return SaveResult{}, ErrDuplicateSession
		}
		return SaveResult{}, fmt.Errorf("insert session: %w", err)
	}

	res := SaveResult{Results: make([]EntryResult, 0, len(p.Students))}
	for _, s := range p.Students {
		var studentID int64
		err := tx.QueryRowContext(ctx, `
			SELECT id FROM users WHERE matric_number = $1 ORDER BY id LIMIT 1
		`, s.MatricNumber).Scan(&studentID)
		if errors.Is(err, sql.ErrNoRows) {
			res.UnresolvedCount++
			res.Results = append(res.Results, EntryResult{MatricNumber: s.MatricNumber, Status: EntryUnresolved})
			continue
		}
		if err != nil {
			return SaveResult{}, fmt.Errorf("resolve student %s: %w", s.MatricNumber, err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO attendances (session_id, student_id, timestamp, ip_address)
			VALUES ($1, $2, $3, $4)
		`, sessionPK, studentID, s.Timestamp.UTC(), s.IPAddress); err != nil {
			return SaveResult{}, fmt.Errorf("insert attendance for %s: %w", s.MatricNumber, err)
		}
		res.SavedCount++
		res.Results = append(res.Results, EntryResult{MatricNumber: s.MatricNumber, Status: EntrySaved})
	}

	if err := tx.Commit(); err != nil {
		return SaveResult{}, fmt.Errorf("commit session: %w", err)
	}
	res.Success = true
	res.Message = SavedMessage
	return res, nil
}

type sessionRow struct {
	pk      int64
	summary SessionSummary
}

// ListSessions returns matching sessions with their check-ins, read from a
// single snapshot.
func (r *Repository) ListSessions(ctx context.Context, f Filter) (Report, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return Report{}, fmt.Errorf("begin list sessions: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT id, session_id, course_name, session_start, session_end, session_duration FROM attendance_sessions`
	var (
		clauses []string
		args    []any
	)
	if f.CourseName != "" {
		args = append(args, f.CourseName)
		clauses = append(clauses, "course_name = $"+strconv.Itoa(len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From.UTC())
		clauses = append(clauses, "session_start >= $"+strconv.Itoa(len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To.UTC())
		clauses = append(clauses, "session_end <= $"+strconv.Itoa(len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY session_start, id"

	sessions, err := scanSessions(tx.QueryContext(ctx, query, args...))
	if err != nil {
		return Report{}, err
	}

	report := Report{Sessions: make([]SessionSummary, 0, len(sessions))}
	for _, s := range sessions {
		students, err := scanStudents(tx.QueryContext(ctx, `
			SELECT u.matric_number, a.timestamp, a.ip_address
			FROM attendances a
			JOIN users u ON u.id = a.student_id
			WHERE a.session_id = $1
			ORDER BY a.id
		`, s.pk))
		if err != nil {
			return Report{}, fmt.Errorf("list attendances of %s: %w", s.summary.SessionID, err)
		}
		s.summary.Students = students
		s.summary.TotalStudents = len(students)
		report.Sessions = append(report.Sessions, s.summary)
	}
	if err := tx.Commit(); err != nil {
		return Report{}, fmt.Errorf("commit list sessions: %w", err)
	}
	report.TotalSessions = len(report.Sessions)
	return report, nil
}

func scanSessions(rows *sql.Rows, err error) ([]sessionRow, error) {
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []sessionRow
	for rows.Next() {
		var (
			row        sessionRow
			start, end sql.NullTime
		)
		if err := rows.Scan(&row.pk, &row.summary.SessionID, &row.summary.CourseName, &start, &end, &row.summary.Duration); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		row.summary.StartTime = model.NewTimestamp(start.Time)
		row.summary.EndTime = model.NewTimestamp(end.Time)
		row.summary.Date = row.summary.StartTime.Date()
		out = append(out, row)
	}
	return out, rows.Err()
}

func scanStudents(rows *sql.Rows, err error) ([]StudentRecord, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []StudentRecord{}
	for rows.Next() {
		var (
			rec    StudentRecord
			matric sql.NullString
			ts     sql.NullTime
		)
		if err := rows.Scan(&matric, &ts, &rec.IPAddress); err != nil {
			return nil, err
		}
		rec.MatricNumber = matric.String
		rec.Timestamp = model.NewTimestamp(ts.Time)
		out = append(out, rec)
	}
	return out, rows.Err()
}
