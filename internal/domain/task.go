package domain

// PayloadKind discriminates the task payload variants understood by the
// remote Jobs API. The values match the wire field names.
type PayloadKind string

const (
	KindDbt       PayloadKind = "dbt_task"
	KindSQL       PayloadKind = "sql_task"
	KindNotebook  PayloadKind = "notebook_task"
	KindCondition PayloadKind = "condition_task"
	KindForEach   PayloadKind = "for_each_task"
)

// TaskPayload is implemented by every task payload variant.
type TaskPayload interface {
	Kind() PayloadKind
}

// DbtTask runs dbt commands against a SQL warehouse.
type DbtTask struct {
	ProjectDirectory string
	Commands         []string
	Schema           string
	WarehouseID      string
}

func (DbtTask) Kind() PayloadKind { return KindDbt }

// SQLTask runs a single SQL query against a warehouse. Query text may
// contain {{...}} references; they are opaque here and resolved remotely.
type SQLTask struct {
	QueryText   string
	WarehouseID string
}

func (SQLTask) Kind() PayloadKind { return KindSQL }

// NotebookTask runs a workspace notebook with base parameters.
type NotebookTask struct {
	NotebookPath   string
	BaseParameters map[string]string
}

func (NotebookTask) Kind() PayloadKind { return KindNotebook }

// ConditionTask compares two operands at run time and yields a boolean
// outcome that gates downstream edges. Operands are opaque strings.
type ConditionTask struct {
	Op    string
	Left  string
	Right string
}

func (ConditionTask) Kind() PayloadKind { return KindCondition }

// ForEachTask replicates a nested task template once per element of a
// run-time-resolved input collection. The fan-out cardinality is unknowable
// locally; only the template and the concurrency bound are carried.
type ForEachTask struct {
	Inputs      string
	Task        *Task
	Concurrency int
}

func (ForEachTask) Kind() PayloadKind { return KindForEach }

// RetryPolicy is inert configuration forwarded to the remote service.
// jobforge never interprets it.
type RetryPolicy struct {
	MaxRetries             int
	MinRetryIntervalMillis int
	RetryOnTimeout         bool
}

// EmailNotifications lists recipients per lifecycle event.
type EmailNotifications struct {
	OnStart   []string
	OnSuccess []string
	OnFailure []string
}

// Schedule is a quartz cron trigger definition, evaluated remotely.
type Schedule struct {
	QuartzCronExpression string
	TimezoneID           string
	PauseStatus          string
}

// HealthRule flags runs that exceed an operational metric threshold.
type HealthRule struct {
	Metric string
	Op     string
	Value  int
}

// Parameter is a job-level parameter with a default, overridable per run.
type Parameter struct {
	Name    string
	Default string
}

// Task is the smallest schedulable unit of a workflow definition.
type Task struct {
	Key            string
	Description    string
	Payload        TaskPayload
	TimeoutSeconds int
	Retry          *RetryPolicy
	Notifications  *EmailNotifications
	Health         []HealthRule
}

// IsBranch reports whether the task is a condition node whose outgoing
// edges carry outcome tags.
func (t *Task) IsBranch() bool {
	if t.Payload == nil {
		return false
	}
	return t.Payload.Kind() == KindCondition
}

// TaskOption configures optional task fields at AddTask time.
type TaskOption func(*Task)

// WithDescription sets the task description.
func WithDescription(desc string) TaskOption {
	return func(t *Task) { t.Description = desc }
}

// WithTimeout sets the task timeout in seconds.
func WithTimeout(seconds int) TaskOption {
	return func(t *Task) { t.TimeoutSeconds = seconds }
}

// WithRetry attaches a retry policy.
func WithRetry(policy RetryPolicy) TaskOption {
	return func(t *Task) { t.Retry = &policy }
}

// WithNotifications attaches task-level email notifications.
func WithNotifications(n EmailNotifications) TaskOption {
	return func(t *Task) { t.Notifications = &n }
}

// WithHealthRules attaches SLA health rules.
func WithHealthRules(rules ...HealthRule) TaskOption {
	return func(t *Task) { t.Health = rules }
}
