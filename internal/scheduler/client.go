package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"brokerage_backend/platform/config"
)

const (
	// perLeadSendBudget covers the provider call and bookkeeping for one lead.
	perLeadSendBudget = 30 * time.Second
	batchTimeoutSlack = 5 * time.Minute
)

// Client enqueues outreach batches onto the asynq queue.
type Client struct {
	client  *asynq.Client
	queue   string
	perLead time.Duration
}

// NewClient connects to the queue. maxDelay is the longest pause the
// dispatcher can take between two leads and sizes the task timeout.
func NewClient(cfg config.SchedulerConfig, maxDelay time.Duration) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		client:  asynq.NewClient(opt),
		queue:   defaultQueue,
		perLead: maxDelay + perLeadSendBudget,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueBatch schedules a batch run. Enqueuing the same batch twice while
// the first task is still queued is a no-op.
func (c *Client) EnqueueBatch(ctx context.Context, orgID, batchID uuid.UUID, leadCount int) error {
	task, err := NewRunOutreachBatchTask(orgID, batchID)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.TaskID(batchTaskID(batchID)),
		asynq.MaxRetry(3),
		asynq.Timeout(batchTimeout(leadCount, c.perLead)),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// batchTimeout bounds a whole batch run.
func batchTimeout(leadCount int, perLead time.Duration) time.Duration {
	if leadCount < 1 {
		leadCount = 1
	}
	return time.Duration(leadCount)*perLead + batchTimeoutSlack
}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
