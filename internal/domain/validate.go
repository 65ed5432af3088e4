package domain

// Validate checks the definition for structural errors: cycles, incomplete
// or ambiguous branches, and invalid ForEach bounds. It is fail-fast and
// returns the first error found. A nil return means the definition is safe
// to serialize.
func (w *Workflow) Validate() error {
	if w.Name == "" {
		return NewError(ErrInvalidDefinition, "workflow name is required")
	}
	if len(w.tasks) == 0 {
		return NewError(ErrInvalidDefinition, "workflow must declare at least one task")
	}

	for _, key := range w.order {
		if err := w.validateTask(w.tasks[key]); err != nil {
			return err
		}
	}

	if _, err := w.TopologicalOrder(); err != nil {
		return err
	}

	return w.validateBranches()
}

func (w *Workflow) validateTask(t *Task) error {
	fe, ok := t.Payload.(ForEachTask)
	if !ok {
		return nil
	}
	if fe.Concurrency < 1 {
		return Errorf(ErrInvalidConcurrency, "concurrency must be >= 1, got %d", fe.Concurrency).WithTask(t.Key)
	}
	if fe.Task == nil || fe.Task.Payload == nil {
		return NewError(ErrInvalidDefinition, "for_each task template is missing").WithTask(t.Key)
	}
	// The remote service does not allow nested iteration or branching
	// inside a ForEach template.
	switch fe.Task.Payload.Kind() {
	case KindForEach, KindCondition:
		return Errorf(ErrInvalidDefinition, "for_each template cannot be a %s", fe.Task.Payload.Kind()).WithTask(t.Key)
	}
	return nil
}

// TopologicalOrder returns the task keys sorted by dependency using Kahn's
// algorithm. Ties are broken by task insertion order, so repeated calls on
// the same definition produce identical output. Fails with CYCLE, naming a
// participating task, when the graph is not acyclic.
func (w *Workflow) TopologicalOrder() ([]string, error) {
	inDegree := make(map[string]int, len(w.tasks))
	for _, key := range w.order {
		inDegree[key] = 0
	}
	for _, e := range w.edges {
		inDegree[e.To]++
	}

	sorted := make([]string, 0, len(w.tasks))
	done := make(map[string]bool, len(w.tasks))

	for len(sorted) < len(w.order) {
		progressed := false
		for _, key := range w.order {
			if done[key] || inDegree[key] != 0 {
				continue
			}
			done[key] = true
			sorted = append(sorted, key)
			for _, e := range w.edges {
				if e.From == key {
					inDegree[e.To]--
				}
			}
			progressed = true
		}
		if !progressed {
			// Every remaining task has a positive in-degree: a cycle.
			// Name the first blocked task in insertion order.
			for _, key := range w.order {
				if !done[key] {
					return nil, NewError(ErrCycle, "dependency cycle detected").WithTask(key)
				}
			}
		}
	}

	return sorted, nil
}

// validateBranches enforces that each condition task has exactly one edge
// tagged "true" and one tagged "false", and that outcome tags only appear
// on edges out of condition tasks.
func (w *Workflow) validateBranches() error {
	type tally struct {
		trues, falses, untagged int
	}
	out := make(map[string]*tally)

	for _, e := range w.edges {
		from := w.tasks[e.From]
		if e.Outcome != OutcomeNone && !from.IsBranch() {
			return NewError(ErrInvalidDefinition, "outcome tag on edge from non-condition task").WithTask(e.From)
		}
		if !from.IsBranch() {
			continue
		}
		t := out[e.From]
		if t == nil {
			t = &tally{}
			out[e.From] = t
		}
		switch e.Outcome {
		case OutcomeTrue:
			t.trues++
		case OutcomeFalse:
			t.falses++
		case OutcomeNone:
			t.untagged++
		default:
			return Errorf(ErrInvalidDefinition, "unknown outcome tag %q", e.Outcome).WithTask(e.From)
		}
	}

	for _, key := range w.order {
		if !w.tasks[key].IsBranch() {
			continue
		}
		t := out[key]
		if t == nil {
			return NewError(ErrIncompleteBranch, "condition task has no outcome edges").WithTask(key)
		}
		if t.trues > 1 || t.falses > 1 {
			return NewError(ErrAmbiguousBranch, "condition task has duplicate outcome edges").WithTask(key)
		}
		if t.untagged > 0 || t.trues != 1 || t.falses != 1 {
			return NewError(ErrIncompleteBranch, "condition task requires exactly one true and one false edge").WithTask(key)
		}
	}

	return nil
}
