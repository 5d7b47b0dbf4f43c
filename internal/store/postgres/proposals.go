package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mserjo/bossy-sub005/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type ProposalsStore struct {
	db *DB
}

func NewProposalsStore(db *DB) *ProposalsStore {
	return &ProposalsStore{db: db}
}

func (s *ProposalsStore) Insert(ctx context.Context, p domain.TaskProposal) (domain.TaskProposal, error) {
	const q = `
		WITH inserted AS (
			INSERT INTO task_proposals (group_id, proposed_by_user_id, title, description, proposed_details, status_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING *
		)
		SELECT ` + proposalColumns + `
		FROM inserted p
		JOIN statuses st ON st.id = p.status_id
	`

	var details any
	if len(p.ProposedDetails) > 0 {
		details = []byte(p.ProposedDetails)
	}
	created, err := scanProposal(s.db.Pool.QueryRow(ctx, q,
		p.GroupID, p.ProposedByUserID, p.Title, nullIfEmpty(p.Description), details, p.StatusID))
	if err != nil {
		return domain.TaskProposal{}, fmt.Errorf("insert proposal: %w", err)
	}
	return created, nil
}

const proposalColumns = `
	p.id, p.group_id, p.proposed_by_user_id, p.title, p.description, p.proposed_details,
	p.status_id, st.code, p.admin_review_notes, p.reviewed_by_user_id, p.reviewed_at,
	p.created_task_id, p.bonus_awarded, p.created_at, p.updated_at
`

func (s *ProposalsStore) GetByID(ctx context.Context, id string) (domain.TaskProposal, error) {
	const q = `
		SELECT ` + proposalColumns + `
		FROM task_proposals p
		JOIN statuses st ON st.id = p.status_id
		WHERE p.id = $1
	`

	p, err := scanProposal(s.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TaskProposal{}, domain.ErrNotFound
		}
		return domain.TaskProposal{}, fmt.Errorf("get proposal: %w", err)
	}
	return p, nil
}

func (s *ProposalsStore) ListForGroup(ctx context.Context, groupID, statusCode string) ([]domain.TaskProposal, error) {
	q := `
		SELECT ` + proposalColumns + `
		FROM task_proposals p
		JOIN statuses st ON st.id = p.status_id
		WHERE p.group_id = $1
	`
	args := []any{groupID}
	if statusCode != "" {
		q += ` AND st.code = $2`
		args = append(args, statusCode)
	}
	q += ` ORDER BY p.created_at DESC`

	rows, err := s.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	var out []domain.TaskProposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proposal: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	return out, nil
}

// Approve moves a pending proposal to approved and, in the same
// transaction, creates or links the resulting task and credits the
// proposer's bonus. The status guard in the first UPDATE is what makes a proposal
// reviewable exactly once: a second reviewer matches zero rows and the
// whole transaction is abandoned.
func (s *ProposalsStore) Approve(ctx context.Context, p domain.ProposalApproval) (taskID string, err error) {
	err = s.db.inTx(ctx, func(tx pgx.Tx) error {
		const approveQ = `
			UPDATE task_proposals
			SET status_id = $3, reviewed_by_user_id = $4, reviewed_at = $5,
			    admin_review_notes = $6, updated_at = $5
			WHERE id = $1 AND status_id = $2
		`
		ct, err := tx.Exec(ctx, approveQ, p.ProposalID, p.PendingStatusID, p.ApprovedStatusID,
			p.ReviewerID, p.When, nullIfEmpty(p.Notes))
		if err != nil {
			return fmt.Errorf("approve proposal: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return domain.ErrAlreadyReviewed
		}

		const linkQ = `
			UPDATE task_proposals
			SET created_task_id = $2
			WHERE id = $1
		`

		switch {
		case p.LinkTaskID != "":
			taskID = p.LinkTaskID
			if _, err := tx.Exec(ctx, linkQ, p.ProposalID, taskID); err != nil {
				return fmt.Errorf("link existing task: %w", err)
			}
		case p.Task != nil:
			const taskQ = `
				INSERT INTO tasks (group_id, title, description, task_type_id, status_id,
				                   bonus_points, due_at, created_by_user_id, source_proposal_id)
				SELECT tp.group_id, $2, $3, $4, $5, $6, $7, $8, tp.id
				FROM task_proposals tp
				WHERE tp.id = $1
				RETURNING id
			`
			var taskUUID pgtype.UUID
			err := tx.QueryRow(ctx, taskQ, p.ProposalID, p.Task.Title, nullIfEmpty(p.Task.Description),
				p.Task.TaskTypeID, p.Task.StatusID, p.Task.BonusPoints, p.Task.DueAt, p.Task.CreatedByUserID).
				Scan(&taskUUID)
			if err != nil {
				return fmt.Errorf("create task from proposal: %w", err)
			}
			taskID = uuidOrEmpty(taskUUID)

			if _, err := tx.Exec(ctx, linkQ, p.ProposalID, taskID); err != nil {
				return fmt.Errorf("link created task: %w", err)
			}
		}

		if p.Bonus != nil {
			if err := creditBonus(ctx, tx, *p.Bonus, "task_proposal", p.ProposalID, p.When); err != nil {
				return err
			}

			const awardedQ = `
				UPDATE task_proposals
				SET bonus_awarded = TRUE
				WHERE id = $1
			`
			if _, err := tx.Exec(ctx, awardedQ, p.ProposalID); err != nil {
				return fmt.Errorf("mark bonus awarded: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return taskID, nil
}

// Reject moves a pending proposal to rejected with the same guard as
// Approve. Notes are mandatory; the service validates them before
// calling here.
func (s *ProposalsStore) Reject(ctx context.Context, proposalID, reviewerID, notes, pendingStatusID, rejectedStatusID string, when time.Time) error {
	const q = `
		UPDATE task_proposals
		SET status_id = $3, reviewed_by_user_id = $4, reviewed_at = $5,
		    admin_review_notes = $6, updated_at = $5
		WHERE id = $1 AND status_id = $2
	`
	ct, err := s.db.Pool.Exec(ctx, q, proposalID, pendingStatusID, rejectedStatusID, reviewerID, when, notes)
	if err != nil {
		return fmt.Errorf("reject proposal: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrAlreadyReviewed
	}
	return nil
}

func scanProposal(row pgx.Row) (domain.TaskProposal, error) {
	var (
		p            domain.TaskProposal
		idUUID       pgtype.UUID
		groupUUID    pgtype.UUID
		proposerUUID pgtype.UUID
		descText     pgtype.Text
		details      []byte
		statusUUID   pgtype.UUID
		notesText    pgtype.Text
		reviewerUUID pgtype.UUID
		reviewedTS   pgtype.Timestamptz
		taskUUID     pgtype.UUID
	)
	err := row.Scan(
		&idUUID,
		&groupUUID,
		&proposerUUID,
		&p.Title,
		&descText,
		&details,
		&statusUUID,
		&p.StatusCode,
		&notesText,
		&reviewerUUID,
		&reviewedTS,
		&taskUUID,
		&p.BonusAwarded,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return domain.TaskProposal{}, err
	}

	p.ID = uuidOrEmpty(idUUID)
	p.GroupID = uuidOrEmpty(groupUUID)
	p.ProposedByUserID = uuidOrEmpty(proposerUUID)
	p.Description = textOrEmpty(descText)
	p.ProposedDetails = json.RawMessage(details)
	p.StatusID = uuidOrEmpty(statusUUID)
	p.AdminReviewNotes = textOrEmpty(notesText)
	p.ReviewedByUserID = uuidOrEmpty(reviewerUUID)
	p.ReviewedAt = timestamptzPtr(reviewedTS)
	p.CreatedTaskID = uuidOrEmpty(taskUUID)
	return p, nil
}
