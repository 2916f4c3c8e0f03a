package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"loan-recovery/internal/domain/loan"
	"loan-recovery/internal/domain/user"
	"loan-recovery/internal/pkg/apperrors"
)

// systemPrincipal runs the sweep with admin authority so the lifecycle
// engine's access policy is exercised the same way it is for API callers.
var systemPrincipal = user.Principal{UserID: 0, Role: user.RoleAdmin}

// OverdueSweepJob moves approved loans whose term has elapsed with money
// still owing into defaulted, which also queues them for recovery.
type OverdueSweepJob struct {
	loanRepo    loan.Repository
	loanService loan.Service
	logger      *slog.Logger
}

func NewOverdueSweepJob(loanRepo loan.Repository, loanService loan.Service, logger *slog.Logger) *OverdueSweepJob {
	if loanRepo == nil || loanService == nil || logger == nil {
		panic("OverdueSweepJob dependencies cannot be nil")
	}
	return &OverdueSweepJob{
		loanRepo:    loanRepo,
		loanService: loanService,
		logger:      logger.With(slog.String("job", "OverdueSweep")),
	}
}

func (j *OverdueSweepJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting overdue loan sweep.")

	overdueIDs, err := j.loanRepo.ListOverdueApprovedIDs(ctx, startTime)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to list overdue loans, aborting sweep.", slog.Any("error", err))
		return fmt.Errorf("cannot run sweep, failed to list overdue loans: %w", err)
	}
	j.logger.InfoContext(ctx, "Fetched overdue loan IDs.", slog.Int("count", len(overdueIDs)))

	if len(overdueIDs) == 0 {
		j.logger.InfoContext(ctx, "No overdue loans to process.", slog.Duration("duration", time.Since(startTime)))
		return nil
	}

	var wg sync.WaitGroup
	var defaultedCount, skippedCount, errorCount int32

	for _, loanID := range overdueIDs {
		wg.Add(1)
		go func(currentLoanID int64) {
			defer wg.Done()
			logCtx := j.logger.With(slog.Int64("loanID", currentLoanID))

			outstanding, err := j.loanService.GetOutstanding(ctx, systemPrincipal, currentLoanID)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					logCtx.WarnContext(ctx, "Loan vanished during sweep", slog.Any("error", err))
				} else {
					logCtx.ErrorContext(ctx, "Failed to compute outstanding balance", slog.Any("error", err))
					atomic.AddInt32(&errorCount, 1)
				}
				return
			}

			if outstanding <= 0 {
				atomic.AddInt32(&skippedCount, 1)
				logCtx.DebugContext(ctx, "Overdue loan is fully paid, leaving status unchanged.")
				return
			}

			if _, err := j.loanService.UpdateStatus(ctx, systemPrincipal, currentLoanID, loan.StatusDefaulted); err != nil {
				if errors.Is(err, apperrors.ErrValidation) {
					atomic.AddInt32(&skippedCount, 1)
					logCtx.WarnContext(ctx, "Loan no longer eligible for defaulting", slog.Any("error", err))
				} else {
					logCtx.ErrorContext(ctx, "Failed to default overdue loan", slog.Any("error", err))
					atomic.AddInt32(&errorCount, 1)
				}
				return
			}
			atomic.AddInt32(&defaultedCount, 1)
		}(loanID)
	}

	wg.Wait()

	j.logger.InfoContext(ctx, "Overdue loan sweep finished.",
		slog.Int("candidates", len(overdueIDs)),
		slog.Int("defaulted", int(atomic.LoadInt32(&defaultedCount))),
		slog.Int("skipped", int(atomic.LoadInt32(&skippedCount))),
		slog.Int("errors", int(atomic.LoadInt32(&errorCount))),
		slog.Duration("duration", time.Since(startTime)),
	)

	if atomic.LoadInt32(&errorCount) > 0 {
		return fmt.Errorf("overdue sweep completed with %d errors", atomic.LoadInt32(&errorCount))
	}
	return nil
}
