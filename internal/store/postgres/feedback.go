package postgres

import (
	"context"
	"database/sql"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"faultdesk/internal/models"
)

const feedbackSelectFields = `id, from_user_id, to_user_id, report_date, order_number, case_number, fault_description,
	process_type, scenario_tag, resolution_status, approval_status, priority, feedback_content, additional_notes,
	resolution_date, timestamp, ai_analysis, manager_notes`

// FeedbackStore implements store.FeedbackStore.
type FeedbackStore struct {
	db *sql.DB
}

// NewFeedbackStore creates a FeedbackStore.
func NewFeedbackStore(db *sql.DB) *FeedbackStore {
	return &FeedbackStore{db: db}
}

func scanFeedback(row rowScanner) (*models.Feedback, error) {
	var (
		f              models.Feedback
		resolutionDate sql.NullTime
	)
	err := row.Scan(
		&f.ID, &f.FromUserID, &f.ToUserID, &f.ReportDate.Time, &f.OrderNumber, &f.CaseNumber, &f.FaultDescription,
		&f.ProcessType, &f.ScenarioTag, &f.ResolutionStatus, &f.ApprovalStatus, &f.Priority, &f.FeedbackContent, &f.AdditionalNotes,
		&resolutionDate, &f.Timestamp, &f.AIAnalysis, &f.ManagerNotes,
	)
	if err != nil {
		return nil, err
	}
	if resolutionDate.Valid {
		f.ResolutionDate = &openapi_types.Date{Time: resolutionDate.Time}
	}
	return &f, nil
}

// List returns every report, newest first.
func (s *FeedbackStore) List(ctx context.Context) (result0 []models.Feedback, err error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+feedbackSelectFields+` FROM feedback ORDER BY timestamp DESC`)
	if err != nil {
		return nil, translate(err, "list feedback")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = translate(cerr, "list feedback")
		}
	}()

	items := make([]models.Feedback, 0)
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, translate(err, "scan feedback")
		}
		items = append(items, *f)
	}
	return items, translate(rows.Err(), "list feedback")
}

// Get returns the report with id.
func (s *FeedbackStore) Get(ctx context.Context, id string) (*models.Feedback, error) {
	f, err := scanFeedback(s.db.QueryRowContext(ctx, `SELECT `+feedbackSelectFields+` FROM feedback WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err, "get feedback "+id)
	}
	return f, nil
}

// Upsert inserts or replaces f. The last write wins.
func (s *FeedbackStore) Upsert(ctx context.Context, f *models.Feedback) error {
	const query = `INSERT INTO feedback (` + feedbackSelectFields + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			from_user_id = EXCLUDED.from_user_id,
			to_user_id = EXCLUDED.to_user_id,
			report_date = EXCLUDED.report_date,
			order_number = EXCLUDED.order_number,
			case_number = EXCLUDED.case_number,
			fault_description = EXCLUDED.fault_description,
			process_type = EXCLUDED.process_type,
			scenario_tag = EXCLUDED.scenario_tag,
			resolution_status = EXCLUDED.resolution_status,
			approval_status = EXCLUDED.approval_status,
			priority = EXCLUDED.priority,
			feedback_content = EXCLUDED.feedback_content,
			additional_notes = EXCLUDED.additional_notes,
			resolution_date = EXCLUDED.resolution_date,
			ai_analysis = EXCLUDED.ai_analysis,
			manager_notes = EXCLUDED.manager_notes`

	var resolutionDate sql.NullTime
	if f.ResolutionDate != nil {
		resolutionDate = sql.NullTime{Time: f.ResolutionDate.Time, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		f.ID, f.FromUserID, f.ToUserID, f.ReportDate.Time, f.OrderNumber, f.CaseNumber, f.FaultDescription,
		string(f.ProcessType), string(f.ScenarioTag), string(f.ResolutionStatus), string(f.ApprovalStatus), string(f.Priority),
		f.FeedbackContent, f.AdditionalNotes, resolutionDate, f.Timestamp, f.AIAnalysis, f.ManagerNotes)
	return translate(err, "upsert feedback")
}

// DeleteByUser removes every report userID sent or received.
func (s *FeedbackStore) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM feedback WHERE from_user_id = $1 OR to_user_id = $1`, userID)
	if err != nil {
		return 0, translate(err, "delete feedback by user")
	}
	n, err := res.RowsAffected()
	return n, translate(err, "delete feedback by user")
}
