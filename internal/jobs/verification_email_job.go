package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zedfund/backend/internal/models"
	"github.com/zedfund/backend/internal/queue"
	"github.com/zedfund/backend/internal/services/email"
	"gorm.io/gorm"
)

// VerificationEmailJob sends signup verification emails
type VerificationEmailJob struct {
	db       *gorm.DB
	emailSvc *email.EmailService
}

// NewVerificationEmailJob creates a new verification email job handler
func NewVerificationEmailJob(db *gorm.DB, emailSvc *email.EmailService) *VerificationEmailJob {
	return &VerificationEmailJob{db: db, emailSvc: emailSvc}
}

// RegisterVerificationEmailJobHandlers registers the verification email handler
func RegisterVerificationEmailJobHandlers(q *queue.Queue, db *gorm.DB, emailSvc *email.EmailService) {
	handler := NewVerificationEmailJob(db, emailSvc)
	q.RegisterHandler(queue.JobTypeSendVerificationEmail, handler.Process)
}

// Process sends the verification email for a new signup
func (j *VerificationEmailJob) Process(ctx context.Context, job queue.Job) (interface{}, error) {
	var payload queue.SendVerificationEmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verification email payload: %w", err)
	}

	var user models.User
	if err := j.db.First(&user, "id = ?", payload.UserID).Error; err != nil {
		return nil, fmt.Errorf("failed to load user for verification email: %w", err)
	}

	if err := j.emailSvc.SendVerificationEmail(payload.Email, user.Name, payload.Token); err != nil {
		return nil, err
	}

	return nil, nil
}
