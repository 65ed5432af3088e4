package codec

import (
	"encoding/json"

	"jobforge/internal/domain"
)

// Decode reconstructs a workflow from a wire document and re-validates it.
// Together with Encode this gives the round-trip property: a workflow
// encoded and decoded again is equal under task-set and edge equality.
func Decode(doc *Document) (*domain.Workflow, error) {
	w := domain.New(doc.Name)
	w.Description = doc.Description
	w.MaxConcurrentRuns = doc.MaxConcurrentRuns

	if doc.Schedule != nil {
		w.SetSchedule(domain.Schedule{
			QuartzCronExpression: doc.Schedule.QuartzCronExpression,
			TimezoneID:           doc.Schedule.TimezoneID,
			PauseStatus:          doc.Schedule.PauseStatus,
		})
	}
	if doc.EmailNotifications != nil {
		w.SetNotifications(decodeNotifications(doc.EmailNotifications))
	}
	for _, p := range doc.Parameters {
		w.AddParameter(p.Name, p.Default)
	}

	for i := range doc.Tasks {
		spec := &doc.Tasks[i]
		payload, err := decodePayload(spec)
		if err != nil {
			return nil, err
		}
		if _, err := w.AddTask(spec.TaskKey, payload, taskOptions(spec)...); err != nil {
			return nil, err
		}
	}

	// Edges can only be added once every endpoint is declared.
	for i := range doc.Tasks {
		spec := &doc.Tasks[i]
		for _, dep := range spec.DependsOn {
			if err := w.AddBranchDependency(dep.TaskKey, spec.TaskKey, domain.Outcome(dep.Outcome)); err != nil {
				return nil, err
			}
		}
	}

	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// DecodeJSON parses and validates a serialized job document.
func DecodeJSON(data []byte) (*domain.Workflow, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, domain.NewError(domain.ErrInvalidDefinition, "document is not valid JSON").WithCause(err)
	}
	return Decode(&doc)
}

func decodePayload(spec *TaskSpec) (domain.TaskPayload, error) {
	var payloads []domain.TaskPayload

	if spec.DbtTask != nil {
		payloads = append(payloads, domain.DbtTask{
			ProjectDirectory: spec.DbtTask.ProjectDirectory,
			Commands:         spec.DbtTask.Commands,
			Schema:           spec.DbtTask.Schema,
			WarehouseID:      spec.DbtTask.WarehouseID,
		})
	}
	if spec.SQLTask != nil {
		payloads = append(payloads, domain.SQLTask{
			QueryText:   spec.SQLTask.Query.QueryText,
			WarehouseID: spec.SQLTask.WarehouseID,
		})
	}
	if spec.NotebookTask != nil {
		payloads = append(payloads, domain.NotebookTask{
			NotebookPath:   spec.NotebookTask.NotebookPath,
			BaseParameters: spec.NotebookTask.BaseParameters,
		})
	}
	if spec.ConditionTask != nil {
		payloads = append(payloads, domain.ConditionTask{
			Op:    spec.ConditionTask.Op,
			Left:  spec.ConditionTask.Left,
			Right: spec.ConditionTask.Right,
		})
	}
	if spec.ForEachTask != nil {
		if spec.ForEachTask.Task == nil {
			return nil, domain.NewError(domain.ErrInvalidDefinition, "for_each_task requires a nested task").WithTask(spec.TaskKey)
		}
		nestedPayload, err := decodePayload(spec.ForEachTask.Task)
		if err != nil {
			return nil, err
		}
		nested := &domain.Task{
			Key:            spec.ForEachTask.Task.TaskKey,
			Description:    spec.ForEachTask.Task.Description,
			Payload:        nestedPayload,
			TimeoutSeconds: spec.ForEachTask.Task.TimeoutSeconds,
			Retry:          decodeRetry(spec.ForEachTask.Task),
			Health:         decodeHealth(spec.ForEachTask.Task.Health),
		}
		if n := spec.ForEachTask.Task.EmailNotifications; n != nil {
			notifications := decodeNotifications(n)
			nested.Notifications = &notifications
		}
		payloads = append(payloads, domain.ForEachTask{
			Inputs:      spec.ForEachTask.Inputs,
			Task:        nested,
			Concurrency: spec.ForEachTask.Concurrency,
		})
	}

	switch len(payloads) {
	case 0:
		return nil, domain.NewError(domain.ErrInvalidDefinition, "task has no payload variant").WithTask(spec.TaskKey)
	case 1:
		return payloads[0], nil
	default:
		return nil, domain.NewError(domain.ErrInvalidDefinition, "task has multiple payload variants").WithTask(spec.TaskKey)
	}
}

func taskOptions(spec *TaskSpec) []domain.TaskOption {
	var opts []domain.TaskOption
	if spec.Description != "" {
		opts = append(opts, domain.WithDescription(spec.Description))
	}
	if spec.TimeoutSeconds > 0 {
		opts = append(opts, domain.WithTimeout(spec.TimeoutSeconds))
	}
	if retry := decodeRetry(spec); retry != nil {
		opts = append(opts, domain.WithRetry(*retry))
	}
	if spec.EmailNotifications != nil {
		opts = append(opts, domain.WithNotifications(decodeNotifications(spec.EmailNotifications)))
	}
	if rules := decodeHealth(spec.Health); rules != nil {
		opts = append(opts, domain.WithHealthRules(rules...))
	}
	return opts
}

func decodeHealth(h *HealthSpec) []domain.HealthRule {
	if h == nil {
		return nil
	}
	rules := make([]domain.HealthRule, 0, len(h.Rules))
	for _, r := range h.Rules {
		rules = append(rules, domain.HealthRule{Metric: r.Metric, Op: r.Op, Value: r.Value})
	}
	return rules
}

func decodeRetry(spec *TaskSpec) *domain.RetryPolicy {
	if spec.MaxRetries == 0 && spec.MinRetryIntervalMillis == 0 && !spec.RetryOnTimeout {
		return nil
	}
	return &domain.RetryPolicy{
		MaxRetries:             spec.MaxRetries,
		MinRetryIntervalMillis: spec.MinRetryIntervalMillis,
		RetryOnTimeout:         spec.RetryOnTimeout,
	}
}

func decodeNotifications(n *EmailNotificationsSpec) domain.EmailNotifications {
	return domain.EmailNotifications{
		OnStart:   n.OnStart,
		OnSuccess: n.OnSuccess,
		OnFailure: n.OnFailure,
	}
}
