package codec

import (
	"encoding/json"

	"jobforge/internal/domain"
)

// Encode validates the workflow and converts it to the wire document.
// Tasks are emitted in topological order (ties broken by insertion order),
// so output is stable across repeated encodings. On validation failure no
// document is produced.
func Encode(w *domain.Workflow) (*Document, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	order, err := w.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Name:               w.Name,
		Description:        w.Description,
		Schedule:           encodeSchedule(w.Schedule),
		EmailNotifications: encodeNotifications(w.Notifications),
		MaxConcurrentRuns:  w.MaxConcurrentRuns,
	}
	for _, p := range w.Parameters {
		doc.Parameters = append(doc.Parameters, ParameterSpec{Name: p.Name, Default: p.Default})
	}

	for _, key := range order {
		task, _ := w.Task(key)
		spec := encodeTask(task)
		for _, e := range w.DependenciesOf(key) {
			spec.DependsOn = append(spec.DependsOn, DependsOn{
				TaskKey: e.From,
				Outcome: string(e.Outcome),
			})
		}
		doc.Tasks = append(doc.Tasks, spec)
	}

	return doc, nil
}

// EncodeJSON validates and serializes the workflow to an indented JSON
// document, the exact shape submitted to the jobs/create endpoint.
func EncodeJSON(w *domain.Workflow) ([]byte, error) {
	doc, err := Encode(w)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(doc, "", "  ")
}

func encodeTask(t *domain.Task) TaskSpec {
	spec := TaskSpec{
		TaskKey:            t.Key,
		Description:        t.Description,
		TimeoutSeconds:     t.TimeoutSeconds,
		EmailNotifications: encodeNotifications(t.Notifications),
	}
	if t.Retry != nil {
		spec.MaxRetries = t.Retry.MaxRetries
		spec.MinRetryIntervalMillis = t.Retry.MinRetryIntervalMillis
		spec.RetryOnTimeout = t.Retry.RetryOnTimeout
	}
	if len(t.Health) > 0 {
		rules := make([]HealthRuleSpec, 0, len(t.Health))
		for _, r := range t.Health {
			rules = append(rules, HealthRuleSpec{Metric: r.Metric, Op: r.Op, Value: r.Value})
		}
		spec.Health = &HealthSpec{Rules: rules}
	}

	switch p := t.Payload.(type) {
	case domain.DbtTask:
		spec.DbtTask = &DbtTaskSpec{
			ProjectDirectory: p.ProjectDirectory,
			Commands:         p.Commands,
			Schema:           p.Schema,
			WarehouseID:      p.WarehouseID,
		}
	case domain.SQLTask:
		spec.SQLTask = &SQLTaskSpec{
			Query:       QuerySpec{QueryText: p.QueryText},
			WarehouseID: p.WarehouseID,
		}
	case domain.NotebookTask:
		spec.NotebookTask = &NotebookTaskSpec{
			NotebookPath:   p.NotebookPath,
			BaseParameters: p.BaseParameters,
		}
	case domain.ConditionTask:
		spec.ConditionTask = &ConditionTaskSpec{Op: p.Op, Left: p.Left, Right: p.Right}
	case domain.ForEachTask:
		nested := encodeTask(p.Task)
		spec.ForEachTask = &ForEachTaskSpec{
			Inputs:      p.Inputs,
			Task:        &nested,
			Concurrency: p.Concurrency,
		}
	}

	return spec
}

func encodeSchedule(s *domain.Schedule) *ScheduleSpec {
	if s == nil {
		return nil
	}
	return &ScheduleSpec{
		QuartzCronExpression: s.QuartzCronExpression,
		TimezoneID:           s.TimezoneID,
		PauseStatus:          s.PauseStatus,
	}
}

func encodeNotifications(n *domain.EmailNotifications) *EmailNotificationsSpec {
	if n == nil {
		return nil
	}
	return &EmailNotificationsSpec{
		OnStart:   n.OnStart,
		OnSuccess: n.OnSuccess,
		OnFailure: n.OnFailure,
	}
}
