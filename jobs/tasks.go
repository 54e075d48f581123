package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-auth/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOTPDispatch hands a one-time password over for delivery.
	TaskOTPDispatch = "otp:dispatch"
)

// OTPDispatchPayload identifies the recipient of a one-time password.
// The code itself never leaves the database.
type OTPDispatchPayload struct {
	PhoneE164 string `json:"phone_e164"`
	Purpose   string `json:"purpose"`
}

// NewOTPDispatchTask constructs an Asynq task with a unique task id.
func NewOTPDispatchTask(payload OTPDispatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOTPDispatch, data,
		asynq.TaskID(uuid.NewString()),
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
	), nil
}

// OTPDispatchJob is the development stand-in for an SMS gateway.
type OTPDispatchJob struct {
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewOTPDispatchJob wires dependencies for the dispatch handler.
func NewOTPDispatchJob(logger *slog.Logger, metrics *jobmetrics.Metrics) *OTPDispatchJob {
	return &OTPDispatchJob{Logger: logger, Metrics: metrics}
}

// Handle processes TaskOTPDispatch tasks.
func (j *OTPDispatchJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("otp dispatch: handler not configured")
	}
	var payload OTPDispatchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.PhoneE164 == "" {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskOTPDispatch)
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	// No SMS gateway is wired; delivery is simulated.
	logger.Info("otp dispatched",
		slog.String("phone", payload.PhoneE164),
		slog.String("purpose", payload.Purpose),
		slog.String("via", "sms"))
	return tracker.End(nil)
}
