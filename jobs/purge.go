package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgtype"

	jobmetrics "github.com/odyssey-erp/odyssey-auth/internal/jobs"
)

const (
	// TaskAuthPurge deletes expired sessions and one-time passwords.
	TaskAuthPurge = "auth:purge"
	// PurgeCronSpec schedules TaskAuthPurge.
	PurgeCronSpec = "@hourly"
	// DefaultOTPRetention keeps expired one-time passwords as a sign-up record.
	DefaultOTPRetention = 30 * 24 * time.Hour
)

// PurgeStore is the subset of store.Queries used by the purge job.
type PurgeStore interface {
	DeleteExpiredUserSessions(ctx context.Context, before pgtype.Timestamptz) (int64, error)
	DeleteExpiredPhoneOTPs(ctx context.Context, before pgtype.Timestamptz) (int64, error)
}

// NewPurgeTask constructs the periodic purge task.
func NewPurgeTask() *asynq.Task {
	return asynq.NewTask(TaskAuthPurge, nil, asynq.Queue(QueueDefault))
}

// PurgeJob removes sessions whose expires_at has passed and one-time
// passwords that expired more than OTPRetention ago.
type PurgeJob struct {
	Store        PurgeStore
	Logger       *slog.Logger
	Metrics      *jobmetrics.Metrics
	OTPRetention time.Duration
	clock        func() time.Time
}

// NewPurgeJob wires dependencies for the purge handler.
func NewPurgeJob(store PurgeStore, logger *slog.Logger, metrics *jobmetrics.Metrics) *PurgeJob {
	return &PurgeJob{
		Store:        store,
		Logger:       logger,
		Metrics:      metrics,
		OTPRetention: DefaultOTPRetention,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskAuthPurge tasks.
func (j *PurgeJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("auth purge: handler not configured")
	}
	tracker := j.Metrics.Track(TaskAuthPurge)
	logger := j.logger()

	now := j.clock()
	sessions, err := j.Store.DeleteExpiredUserSessions(ctx, pgtype.Timestamptz{Time: now, Valid: true})
	if err != nil {
		logger.Error("purge expired sessions", slog.Any("error", err))
		return tracker.End(fmt.Errorf("purge sessions: %w", err))
	}
	retention := j.OTPRetention
	if retention < 0 {
		retention = 0
	}
	otps, err := j.Store.DeleteExpiredPhoneOTPs(ctx, pgtype.Timestamptz{Time: now.Add(-retention), Valid: true})
	if err != nil {
		logger.Error("purge expired otps", slog.Any("error", err))
		return tracker.End(fmt.Errorf("purge otps: %w", err))
	}

	j.Metrics.AddPurged("user_sessions", sessions)
	j.Metrics.AddPurged("phone_otps", otps)
	logger.Info("purge expired", slog.Int64("sessions", sessions), slog.Int64("otps", otps))
	return tracker.End(nil)
}

func (j *PurgeJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
