package jobs

import (
	"context"
	"log"

	"github.com/zedfund/backend/internal/queue"
	"github.com/zedfund/backend/internal/services/investment"
)

// AccrualJob runs the daily profit accrual and maturity sweep
type AccrualJob struct {
	investmentSvc *investment.Service
}

// NewAccrualJob creates a new accrual job handler
func NewAccrualJob(investmentSvc *investment.Service) *AccrualJob {
	return &AccrualJob{investmentSvc: investmentSvc}
}

// RegisterAccrualJobHandlers registers the accrual handler
func RegisterAccrualJobHandlers(q *queue.Queue, investmentSvc *investment.Service) {
	handler := NewAccrualJob(investmentSvc)
	q.RegisterHandler(queue.JobTypeRunProfitAccrual, handler.Process)
}

// Process sweeps all active investments. The accrual checkpoint makes the
// sweep idempotent, so an overlapping or repeated run pays nothing extra.
func (j *AccrualJob) Process(ctx context.Context, job queue.Job) (interface{}, error) {
	accrued, matured, err := j.investmentSvc.RunAccrual()
	if err != nil {
		return nil, err
	}

	log.Printf("Accrual sweep complete: %d investments accrued, %d matured", accrued, matured)
	return map[string]int{"accrued": accrued, "matured": matured}, nil
}

// Run executes the sweep directly, for use from the scheduler
func (j *AccrualJob) Run() {
	if _, _, err := j.investmentSvc.RunAccrual(); err != nil {
		log.Printf("Accrual sweep failed: %v", err)
	}
}
