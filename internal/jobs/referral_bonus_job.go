package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/zedfund/backend/internal/queue"
	"github.com/zedfund/backend/internal/services/ledger"
	"github.com/zedfund/backend/internal/services/referral"
)

// ReferralBonusJob pays referral bonuses for approved deposits
type ReferralBonusJob struct {
	referralSvc *referral.Service
}

// NewReferralBonusJob creates a new referral bonus job handler
func NewReferralBonusJob(referralSvc *referral.Service) *ReferralBonusJob {
	return &ReferralBonusJob{referralSvc: referralSvc}
}

// RegisterReferralBonusJobHandlers registers the referral bonus handler
func RegisterReferralBonusJobHandlers(q *queue.Queue, referralSvc *referral.Service) {
	handler := NewReferralBonusJob(referralSvc)
	q.RegisterHandler(queue.JobTypeAwardReferralBonus, handler.Process)
}

// Process pays the bonus for one approved deposit. A bonus that was already
// paid is treated as success so the job is not retried.
func (j *ReferralBonusJob) Process(ctx context.Context, job queue.Job) (interface{}, error) {
	var payload queue.AwardReferralBonusPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal referral bonus payload: %w", err)
	}

	if err := j.referralSvc.AwardBonus(payload.DepositRequestID); err != nil {
		if errors.Is(err, ledger.ErrAlreadyProcessed) {
			log.Printf("Referral bonus for deposit %s already paid", payload.DepositRequestID)
			return nil, nil
		}
		return nil, err
	}

	return nil, nil
}
