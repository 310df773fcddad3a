package jobs

import (
	"github.com/go-co-op/gocron"
	"github.com/zedfund/backend/internal/queue"
	"github.com/zedfund/backend/internal/services/email"
	"github.com/zedfund/backend/internal/services/investment"
	"github.com/zedfund/backend/internal/services/referral"
	"gorm.io/gorm"
)

// RegisterAllJobHandlers registers every job handler with the queue
func RegisterAllJobHandlers(
	q *queue.Queue,
	db *gorm.DB,
	investmentSvc *investment.Service,
	referralSvc *referral.Service,
	emailSvc *email.EmailService,
) {
	RegisterAccrualJobHandlers(q, investmentSvc)
	RegisterReferralBonusJobHandlers(q, referralSvc)
	RegisterVerificationEmailJobHandlers(q, db, emailSvc)
}

// ScheduleRecurringJobs wires the recurring sweeps onto the scheduler.
// The accrual sweep runs hourly; the checkpoint keeps it idempotent, so the
// cadence only bounds how late a daily credit can land.
func ScheduleRecurringJobs(scheduler *gocron.Scheduler, investmentSvc *investment.Service) error {
	accrualJob := NewAccrualJob(investmentSvc)
	if _, err := scheduler.Every(1).Hour().Do(accrualJob.Run); err != nil {
		return err
	}
	return nil
}
