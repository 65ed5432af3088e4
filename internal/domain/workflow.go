package domain

// Outcome tags a dependency edge out of a branch task. The empty outcome
// means the edge activates whenever the upstream task completes.
type Outcome string

const (
	OutcomeNone  Outcome = ""
	OutcomeTrue  Outcome = "true"
	OutcomeFalse Outcome = "false"
)

// Edge is a directed ordering constraint between two declared tasks,
// optionally gated by a branch outcome. Insertion order is preserved so the
// serialized depends_on lists are stable.
type Edge struct {
	From    string
	To      string
	Outcome Outcome
}

// Workflow is an in-memory workflow definition under construction. It is a
// pure data model: nothing here executes. The finished definition is handed
// to the remote orchestration service.
type Workflow struct {
	Name              string
	Description       string
	Parameters        []Parameter
	Schedule          *Schedule
	Notifications     *EmailNotifications
	MaxConcurrentRuns int

	tasks map[string]*Task
	order []string
	edges []Edge
}

// New creates an empty workflow definition with the given name.
func New(name string) *Workflow {
	return &Workflow{
		Name:  name,
		tasks: make(map[string]*Task),
	}
}

// AddTask declares a task under a unique key. It fails with DUPLICATE_KEY
// if the key is already present.
func (w *Workflow) AddTask(key string, payload TaskPayload, opts ...TaskOption) (*Task, error) {
	if key == "" {
		return nil, NewError(ErrInvalidDefinition, "task key must not be empty")
	}
	if payload == nil {
		return nil, NewError(ErrInvalidDefinition, "task payload must not be nil").WithTask(key)
	}
	if _, exists := w.tasks[key]; exists {
		return nil, NewError(ErrDuplicateKey, "task key already declared").WithTask(key)
	}

	task := &Task{Key: key, Payload: payload}
	for _, opt := range opts {
		opt(task)
	}

	w.tasks[key] = task
	w.order = append(w.order, key)
	return task, nil
}

// AddBranch declares a condition task. Its outgoing edges must be added
// with AddBranchDependency and tagged with the outcome that activates them.
func (w *Workflow) AddBranch(key string, condition ConditionTask, opts ...TaskOption) (*Task, error) {
	return w.AddTask(key, condition, opts...)
}

// AddForEach declares a ForEach task: a nested task template replicated
// remotely once per element of the input collection. Expansion never
// happens locally; the input cardinality is unknown until run time.
func (w *Workflow) AddForEach(key, inputs string, template Task, concurrency int, opts ...TaskOption) (*Task, error) {
	if concurrency < 1 {
		return nil, Errorf(ErrInvalidConcurrency, "concurrency must be >= 1, got %d", concurrency).WithTask(key)
	}
	payload := ForEachTask{
		Inputs:      inputs,
		Task:        &template,
		Concurrency: concurrency,
	}
	return w.AddTask(key, payload, opts...)
}

// AddDependency records that `to` runs after `from` completes. Both keys
// must already be declared, otherwise it fails with UNKNOWN_TASK.
func (w *Workflow) AddDependency(from, to string) error {
	return w.addEdge(from, to, OutcomeNone)
}

// AddBranchDependency records an outcome-gated edge out of a branch task.
func (w *Workflow) AddBranchDependency(from, to string, outcome Outcome) error {
	return w.addEdge(from, to, outcome)
}

func (w *Workflow) addEdge(from, to string, outcome Outcome) error {
	if _, ok := w.tasks[from]; !ok {
		return NewError(ErrUnknownTask, "dependency references undeclared task").WithTask(from)
	}
	if _, ok := w.tasks[to]; !ok {
		return NewError(ErrUnknownTask, "dependency references undeclared task").WithTask(to)
	}
	w.edges = append(w.edges, Edge{From: from, To: to, Outcome: outcome})
	return nil
}

// AddParameter declares a job-level parameter with its default value.
func (w *Workflow) AddParameter(name, defaultValue string) {
	w.Parameters = append(w.Parameters, Parameter{Name: name, Default: defaultValue})
}

// SetSchedule attaches a cron trigger definition.
func (w *Workflow) SetSchedule(s Schedule) {
	w.Schedule = &s
}

// SetNotifications attaches job-level email notifications.
func (w *Workflow) SetNotifications(n EmailNotifications) {
	w.Notifications = &n
}

// Task returns the declared task for a key.
func (w *Workflow) Task(key string) (*Task, bool) {
	t, ok := w.tasks[key]
	return t, ok
}

// Tasks returns the declared tasks in insertion order.
func (w *Workflow) Tasks() []*Task {
	tasks := make([]*Task, 0, len(w.order))
	for _, key := range w.order {
		tasks = append(tasks, w.tasks[key])
	}
	return tasks
}

// Edges returns the dependency edges in insertion order.
func (w *Workflow) Edges() []Edge {
	return w.edges
}

// DependenciesOf returns the incoming edges of a task in insertion order.
func (w *Workflow) DependenciesOf(key string) []Edge {
	var deps []Edge
	for _, e := range w.edges {
		if e.To == key {
			deps = append(deps, e)
		}
	}
	return deps
}
