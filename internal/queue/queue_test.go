package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Job{}))
	return db
}

func TestEnqueueJob(t *testing.T) {
	db := setupTestDB(t)
	q := NewQueue(db)

	depositID := uuid.New()
	jobID, err := q.EnqueueJob(JobTypeAwardReferralBonus, AwardReferralBonusPayload{
		DepositRequestID: depositID,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, jobID)

	var job Job
	require.NoError(t, db.Where("id = ?", jobID).First(&job).Error)
	assert.Equal(t, JobTypeAwardReferralBonus, job.Type)
	assert.Equal(t, JobStatusPending, job.Status)

	var payload AwardReferralBonusPayload
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, depositID, payload.DepositRequestID)
}

func TestGetJob(t *testing.T) {
	db := setupTestDB(t)
	q := NewQueue(db)

	jobID, err := q.EnqueueJob(JobTypeRunProfitAccrual, nil)
	require.NoError(t, err)

	job, err := q.GetJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, JobTypeRunProfitAccrual, job.Type)

	_, err = q.GetJob(uuid.NewString())
	assert.Error(t, err)
}

func TestProcessJobCompletes(t *testing.T) {
	db := setupTestDB(t)
	q := NewQueue(db)

	processed := make(chan Job, 1)
	q.RegisterHandler(JobTypeRunProfitAccrual, func(ctx context.Context, job Job) (interface{}, error) {
		processed <- job
		return map[string]int{"accrued": 1}, nil
	})

	jobID, err := q.EnqueueJob(JobTypeRunProfitAccrual, nil)
	require.NoError(t, err)

	var job Job
	require.NoError(t, db.Where("id = ?", jobID).First(&job).Error)
	q.processJob(job)

	select {
	case <-processed:
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}

	updated, err := q.GetJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusCompleted, updated.Status)
	assert.NotEmpty(t, updated.Result)
}

func TestProcessJobSchedulesRetry(t *testing.T) {
	db := setupTestDB(t)
	q := NewQueue(db)

	q.RegisterHandler(JobTypeAwardReferralBonus, func(ctx context.Context, job Job) (interface{}, error) {
		return nil, assert.AnError
	})

	jobID, err := q.EnqueueJob(JobTypeAwardReferralBonus, AwardReferralBonusPayload{DepositRequestID: uuid.New()})
	require.NoError(t, err)

	var job Job
	require.NoError(t, db.Where("id = ?", jobID).First(&job).Error)
	q.processJob(job)

	updated, err := q.GetJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusRetryScheduled, updated.Status)
	assert.Equal(t, 1, updated.RetryCount)
	require.NotNil(t, updated.RetryAt)
	assert.True(t, updated.RetryAt.After(time.Now()))
}

func TestProcessJobWithoutHandlerFails(t *testing.T) {
	db := setupTestDB(t)
	q := NewQueue(db)

	jobID, err := q.EnqueueJob(JobTypeSendVerificationEmail, SendVerificationEmailPayload{Email: "x@example.com"})
	require.NoError(t, err)

	var job Job
	require.NoError(t, db.Where("id = ?", jobID).First(&job).Error)
	q.processJob(job)

	updated, err := q.GetJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusFailed, updated.Status)
}
