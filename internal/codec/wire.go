// Package codec converts between the in-memory workflow model and the JSON
// document shape accepted by the remote Jobs API (2.1 jobs/create schema).
// Encoding validates first and emits nothing on failure; decoding
// re-validates, so a document that round-trips is always well-formed.
package codec

// Document is the top-level create-job payload.
type Document struct {
	Name               string                  `json:"name"`
	Description        string                  `json:"description,omitempty"`
	Schedule           *ScheduleSpec           `json:"schedule,omitempty"`
	EmailNotifications *EmailNotificationsSpec `json:"email_notifications,omitempty"`
	Parameters         []ParameterSpec         `json:"parameters,omitempty"`
	Tasks              []TaskSpec              `json:"tasks"`
	MaxConcurrentRuns  int                     `json:"max_concurrent_runs,omitempty"`
}

// TaskSpec is a single task entry. Exactly one of the payload variant
// fields must be set.
type TaskSpec struct {
	TaskKey     string      `json:"task_key"`
	Description string      `json:"description,omitempty"`
	DependsOn   []DependsOn `json:"depends_on,omitempty"`

	DbtTask       *DbtTaskSpec       `json:"dbt_task,omitempty"`
	SQLTask       *SQLTaskSpec       `json:"sql_task,omitempty"`
	NotebookTask  *NotebookTaskSpec  `json:"notebook_task,omitempty"`
	ConditionTask *ConditionTaskSpec `json:"condition_task,omitempty"`
	ForEachTask   *ForEachTaskSpec   `json:"for_each_task,omitempty"`

	TimeoutSeconds         int  `json:"timeout_seconds,omitempty"`
	MaxRetries             int  `json:"max_retries,omitempty"`
	MinRetryIntervalMillis int  `json:"min_retry_interval_millis,omitempty"`
	RetryOnTimeout         bool `json:"retry_on_timeout,omitempty"`

	EmailNotifications *EmailNotificationsSpec `json:"email_notifications,omitempty"`
	Health             *HealthSpec             `json:"health,omitempty"`
}

// DependsOn links a task to one predecessor, optionally gated by a branch
// outcome ("true" or "false").
type DependsOn struct {
	TaskKey string `json:"task_key"`
	Outcome string `json:"outcome,omitempty"`
}

type DbtTaskSpec struct {
	ProjectDirectory string   `json:"project_directory"`
	Commands         []string `json:"commands"`
	Schema           string   `json:"schema,omitempty"`
	WarehouseID      string   `json:"warehouse_id,omitempty"`
}

type SQLTaskSpec struct {
	Query       QuerySpec `json:"query"`
	WarehouseID string    `json:"warehouse_id,omitempty"`
}

type QuerySpec struct {
	QueryText string `json:"query_text"`
}

type NotebookTaskSpec struct {
	NotebookPath   string            `json:"notebook_path"`
	BaseParameters map[string]string `json:"base_parameters,omitempty"`
}

type ConditionTaskSpec struct {
	Op    string `json:"op"`
	Left  string `json:"left"`
	Right string `json:"right"`
}

type ForEachTaskSpec struct {
	Inputs      string    `json:"inputs"`
	Task        *TaskSpec `json:"task"`
	Concurrency int       `json:"concurrency,omitempty"`
}

type ScheduleSpec struct {
	QuartzCronExpression string `json:"quartz_cron_expression"`
	TimezoneID           string `json:"timezone_id"`
	PauseStatus          string `json:"pause_status,omitempty"`
}

type EmailNotificationsSpec struct {
	OnStart   []string `json:"on_start,omitempty"`
	OnSuccess []string `json:"on_success,omitempty"`
	OnFailure []string `json:"on_failure,omitempty"`
}

type ParameterSpec struct {
	Name    string `json:"name"`
	Default string `json:"default"`
}

type HealthSpec struct {
	Rules []HealthRuleSpec `json:"rules"`
}

type HealthRuleSpec struct {
	Metric string `json:"metric"`
	Op     string `json:"op"`
	Value  int    `json:"value"`
}
