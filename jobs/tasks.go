package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskEquationScan verifies the accounting equation per company.
	TaskEquationScan = "ledger:equation_scan"
	// TaskRecurringGenerate instantiates pending recurring entries.
	TaskRecurringGenerate = "ledger:recurring_generate"
)

// EquationScanPayload scopes an equation scan. CompanyID zero means every
// configured company.
type EquationScanPayload struct {
	CompanyID int64 `json:"company_id"`
}

// NewEquationScanTask constructs an Asynq task for the equation scan.
func NewEquationScanTask(companyID int64) (*asynq.Task, error) {
	body, err := json.Marshal(EquationScanPayload{CompanyID: companyID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEquationScan, body, asynq.Queue(QueueDefault)), nil
}

// RecurringGeneratePayload scopes a recurring generation run. CompanyID zero
// means every configured company.
type RecurringGeneratePayload struct {
	CompanyID int64 `json:"company_id"`
}

// NewRecurringGenerateTask constructs an Asynq task for recurring generation.
func NewRecurringGenerateTask(companyID int64) (*asynq.Task, error) {
	body, err := json.Marshal(RecurringGeneratePayload{CompanyID: companyID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRecurringGenerate, body, asynq.Queue(QueueDefault)), nil
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueEquationScan enqueues an equation scan for one or all companies.
func (c *Client) EnqueueEquationScan(ctx context.Context, companyID int64) (*asynq.TaskInfo, error) {
	task, err := NewEquationScanTask(companyID)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task)
}

// EnqueueRecurringGenerate enqueues a recurring generation run.
func (c *Client) EnqueueRecurringGenerate(ctx context.Context, companyID int64) (*asynq.TaskInfo, error) {
	task, err := NewRecurringGenerateTask(companyID)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task)
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
