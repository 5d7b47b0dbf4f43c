package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/mserjo/bossy-sub005/internal/domain"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func TestProposalsReject_SecondReviewLosesRace(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewProposalsStore(db)

	proposalID := uuid.NewString()
	reviewerID := uuid.NewString()
	pendingID := uuid.NewString()
	rejectedID := uuid.NewString()
	when := time.Now()

	mock.ExpectExec(`UPDATE task_proposals`).
		WithArgs(proposalID, pendingID, rejectedID, reviewerID, when, "not this quarter").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.Reject(context.Background(), proposalID, reviewerID, "not this quarter", pendingID, rejectedID, when)
	require.ErrorIs(t, err, domain.ErrAlreadyReviewed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProposalsApprove_WithTaskAndBonus(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewProposalsStore(db)

	proposalID := uuid.NewString()
	reviewerID := uuid.NewString()
	pendingID := uuid.NewString()
	approvedID := uuid.NewString()
	taskID := uuid.NewString()
	accountID := uuid.NewString()
	groupID := uuid.NewString()
	proposerID := uuid.NewString()
	when := time.Now()

	params := domain.ProposalApproval{
		ProposalID:       proposalID,
		ReviewerID:       reviewerID,
		PendingStatusID:  pendingID,
		ApprovedStatusID: approvedID,
		Task: &domain.TaskSpec{
			Title:           "Mow the lawn",
			TaskTypeID:      uuid.NewString(),
			StatusID:        pendingID,
			BonusPoints:     10,
			CreatedByUserID: reviewerID,
		},
		Bonus: &domain.BonusSpec{
			GroupID:     groupID,
			UserID:      proposerID,
			Amount:      5,
			BonusTypeID: uuid.NewString(),
			Description: "proposal approved",
		},
		When: when,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE task_proposals`).
		WithArgs(proposalID, pendingID, approvedID, reviewerID, when, nil).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`INSERT INTO tasks`).
		WithArgs(proposalID, params.Task.Title, nil, params.Task.TaskTypeID, params.Task.StatusID,
			params.Task.BonusPoints, params.Task.DueAt, params.Task.CreatedByUserID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(taskID))
	mock.ExpectExec(`UPDATE task_proposals`).
		WithArgs(proposalID, taskID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`INSERT INTO bonus_accounts`).
		WithArgs(groupID, proposerID, params.Bonus.Amount, when).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(accountID))
	mock.ExpectExec(`INSERT INTO bonus_transactions`).
		WithArgs(accountID, params.Bonus.Amount, params.Bonus.BonusTypeID,
			params.Bonus.Description, "task_proposal", proposalID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE task_proposals`).
		WithArgs(proposalID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	createdTaskID, err := s.Approve(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, taskID, createdTaskID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProposalsApprove_LinksExistingTask(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewProposalsStore(db)

	proposalID := uuid.NewString()
	taskID := uuid.NewString()
	when := time.Now()

	params := domain.ProposalApproval{
		ProposalID:       proposalID,
		ReviewerID:       uuid.NewString(),
		Notes:            "matches the task we already planned",
		PendingStatusID:  uuid.NewString(),
		ApprovedStatusID: uuid.NewString(),
		LinkTaskID:       taskID,
		When:             when,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE task_proposals`).
		WithArgs(proposalID, params.PendingStatusID, params.ApprovedStatusID, params.ReviewerID, when, params.Notes).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE task_proposals`).
		WithArgs(proposalID, taskID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	linkedTaskID, err := s.Approve(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, taskID, linkedTaskID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProposalsApprove_AlreadyReviewedRollsBackEverything(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewProposalsStore(db)

	proposalID := uuid.NewString()
	when := time.Now()

	params := domain.ProposalApproval{
		ProposalID:       proposalID,
		ReviewerID:       uuid.NewString(),
		PendingStatusID:  uuid.NewString(),
		ApprovedStatusID: uuid.NewString(),
		Bonus:            &domain.BonusSpec{GroupID: uuid.NewString(), UserID: uuid.NewString(), Amount: 5, BonusTypeID: uuid.NewString()},
		When:             when,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE task_proposals`).
		WithArgs(proposalID, params.PendingStatusID, params.ApprovedStatusID, params.ReviewerID, when, nil).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	_, err := s.Approve(context.Background(), params)
	require.ErrorIs(t, err, domain.ErrAlreadyReviewed)
	require.NoError(t, mock.ExpectationsWereMet())
}
