package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/persistence"
)

// ReservationRepository implements persistence.ReservationRepository.
type ReservationRepository struct {
	db *DB
}

// NewReservationRepository constructs the SQLite-backed reservation store.
func NewReservationRepository(db *DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

const reservationColumns = `id, room_id, requester_id, title, description,
	start_time, end_time, status, rejection_reason,
	professor_approved_by, professor_approved_at, approved_by, approved_at,
	is_recurring, recurrence_type, recurrence_end_date,
	priority, project_id, created_at, updated_at`

// CreateReservation inserts a reservation. A non-nil guard re-runs the
// overlap query inside the insert transaction so a slot taken since the
// caller's pre-check fails with ErrConflict instead of double-booking.
func (r *ReservationRepository) CreateReservation(ctx context.Context, reservation persistence.Reservation, guard *persistence.OverlapQuery) (persistence.Reservation, error) {
	reservation = normalizeReservation(reservation)

	err := r.db.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := checkGuard(tx, guard); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO reservations (`+reservationColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			reservation.ID, reservation.RoomID, reservation.RequesterID, reservation.Title, reservation.Description,
			reservation.Start, reservation.End, reservation.Status, reservation.RejectionReason,
			reservation.ProfessorApprovedBy, reservation.ProfessorApprovedAt, reservation.ApprovedBy, reservation.ApprovedAt,
			reservation.IsRecurring, reservation.RecurrenceType, reservation.RecurrenceEndDate,
			reservation.Priority, reservation.ProjectID, reservation.CreatedAt, reservation.UpdatedAt,
		)
		return mapError(err)
	})
	if err != nil {
		return persistence.Reservation{}, err
	}
	return reservation, nil
}

// UpdateReservation rewrites a reservation row, with the same guard semantics
// as CreateReservation.
func (r *ReservationRepository) UpdateReservation(ctx context.Context, reservation persistence.Reservation, guard *persistence.OverlapQuery) (persistence.Reservation, error) {
	reservation = normalizeReservation(reservation)

	err := r.db.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := checkGuard(tx, guard); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE reservations SET
				room_id = ?, requester_id = ?, title = ?, description = ?,
				start_time = ?, end_time = ?, status = ?, rejection_reason = ?,
				professor_approved_by = ?, professor_approved_at = ?, approved_by = ?, approved_at = ?,
				is_recurring = ?, recurrence_type = ?, recurrence_end_date = ?,
				priority = ?, project_id = ?, updated_at = ?
			WHERE id = ?`,
			reservation.RoomID, reservation.RequesterID, reservation.Title, reservation.Description,
			reservation.Start, reservation.End, reservation.Status, reservation.RejectionReason,
			reservation.ProfessorApprovedBy, reservation.ProfessorApprovedAt, reservation.ApprovedBy, reservation.ApprovedAt,
			reservation.IsRecurring, reservation.RecurrenceType, reservation.RecurrenceEndDate,
			reservation.Priority, reservation.ProjectID, reservation.UpdatedAt,
			reservation.ID,
		)
		if err != nil {
			return mapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return persistence.Reservation{}, err
	}
	return reservation, nil
}

// GetReservation loads a reservation by id.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	var reservation persistence.Reservation
	err := r.db.conn.GetContext(ctx, &reservation,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	if err != nil {
		return persistence.Reservation{}, mapError(err)
	}
	return reservation, nil
}

// DeleteReservation removes a reservation row.
func (r *ReservationRepository) DeleteReservation(ctx context.Context, id string) error {
	result, err := r.db.conn.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ListReservations returns reservations matching the filter, ordered by start
// time then id.
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations`

	var conditions []string
	var args []any

	if filter.RoomID != "" {
		conditions = append(conditions, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.RequesterID != "" {
		conditions = append(conditions, "requester_id = ?")
		args = append(args, filter.RequesterID)
	}
	if len(filter.Statuses) > 0 {
		placeholders, statusArgs := statusPlaceholders(filter.Statuses)
		conditions = append(conditions, "status IN ("+placeholders+")")
		args = append(args, statusArgs...)
	}
	if filter.StartsAfter != nil {
		conditions = append(conditions, "end_time > ?")
		args = append(args, filter.StartsAfter.UTC())
	}
	if filter.EndsBefore != nil {
		conditions = append(conditions, "start_time < ?")
		args = append(args, filter.EndsBefore.UTC())
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time ASC, id ASC"

	var reservations []persistence.Reservation
	if err := r.db.conn.SelectContext(ctx, &reservations, query, args...); err != nil {
		return nil, mapError(err)
	}
	return reservations, nil
}

// FindOverlapping returns reservations occupying the queried slot, using the
// half-open interval predicate: back-to-back reservations do not overlap.
func (r *ReservationRepository) FindOverlapping(ctx context.Context, query persistence.OverlapQuery) ([]persistence.Reservation, error) {
	stmt, args := overlapQuery(query)
	var reservations []persistence.Reservation
	if err := r.db.conn.SelectContext(ctx, &reservations, stmt, args...); err != nil {
		return nil, mapError(err)
	}
	return reservations, nil
}

// ListPendingForProfessor returns pending reservations linked to projects the
// professor is responsible for.
func (r *ReservationRepository) ListPendingForProfessor(ctx context.Context, professorID string) ([]persistence.Reservation, error) {
	var reservations []persistence.Reservation
	err := r.db.conn.SelectContext(ctx, &reservations, `
		SELECT `+prefixedReservationColumns("r")+`
		FROM reservations r
		JOIN projects p ON p.id = r.project_id
		WHERE r.status = 'pending' AND p.professor_id = ?
		ORDER BY r.start_time ASC, r.id ASC`, professorID)
	if err != nil {
		return nil, mapError(err)
	}
	return reservations, nil
}

// ListAdminQueue returns reservations awaiting an administrator: those the
// professor already approved, plus pending ones with no resolvable professor
// approver (no project, or a project without a responsible professor).
func (r *ReservationRepository) ListAdminQueue(ctx context.Context) ([]persistence.Reservation, error) {
	var reservations []persistence.Reservation
	err := r.db.conn.SelectContext(ctx, &reservations, `
		SELECT `+prefixedReservationColumns("r")+`
		FROM reservations r
		LEFT JOIN projects p ON p.id = r.project_id
		WHERE r.status = 'professor_approved'
		   OR (r.status = 'pending' AND (r.project_id IS NULL OR p.professor_id IS NULL))
		ORDER BY r.start_time ASC, r.id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	return reservations, nil
}

// checkGuard re-runs the overlap query inside the write transaction.
func checkGuard(tx *sqlx.Tx, guard *persistence.OverlapQuery) error {
	if guard == nil {
		return nil
	}
	stmt, args := overlapQuery(*guard)
	var winners []persistence.Reservation
	if err := tx.Select(&winners, stmt, args...); err != nil {
		return mapError(err)
	}
	if len(winners) > 0 {
		return persistence.ErrConflict
	}
	return nil
}

func overlapQuery(query persistence.OverlapQuery) (string, []any) {
	stmt := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE room_id = ? AND start_time < ? AND ? < end_time`
	args := []any{query.RoomID, query.End.UTC(), query.Start.UTC()}

	if len(query.Statuses) > 0 {
		placeholders, statusArgs := statusPlaceholders(query.Statuses)
		stmt += ` AND status IN (` + placeholders + `)`
		args = append(args, statusArgs...)
	}
	if query.ExcludeID != "" {
		stmt += ` AND id != ?`
		args = append(args, query.ExcludeID)
	}
	stmt += ` ORDER BY start_time ASC, id ASC`
	return stmt, args
}

// normalizeReservation stores all times in UTC so string comparison in SQL
// orders them correctly.
func normalizeReservation(reservation persistence.Reservation) persistence.Reservation {
	reservation.Start = reservation.Start.UTC()
	reservation.End = reservation.End.UTC()
	reservation.CreatedAt = reservation.CreatedAt.UTC()
	reservation.UpdatedAt = reservation.UpdatedAt.UTC()
	reservation.ProfessorApprovedAt = utcPtr(reservation.ProfessorApprovedAt)
	reservation.ApprovedAt = utcPtr(reservation.ApprovedAt)
	reservation.RecurrenceEndDate = utcPtr(reservation.RecurrenceEndDate)
	return reservation
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

func prefixedReservationColumns(alias string) string {
	columns := strings.Split(reservationColumns, ",")
	for i, column := range columns {
		columns[i] = alias + "." + strings.TrimSpace(column)
	}
	return strings.Join(columns, ", ")
}
