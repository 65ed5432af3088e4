package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sql(text string) SQLTask {
	return SQLTask{QueryText: text, WarehouseID: "wh-1"}
}

func TestAddTask_DuplicateKey(t *testing.T) {
	w := New("pipeline")
	_, err := w.AddTask("extract", sql("SELECT 1"))
	require.NoError(t, err)

	_, err = w.AddTask("extract", sql("SELECT 2"))
	require.Error(t, err)
	assert.Equal(t, ErrDuplicateKey, CodeOf(err))

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "extract", derr.TaskKey)
}

func TestAddTask_EmptyKeyAndNilPayload(t *testing.T) {
	w := New("pipeline")

	_, err := w.AddTask("", sql("SELECT 1"))
	assert.Equal(t, ErrInvalidDefinition, CodeOf(err))

	_, err = w.AddTask("extract", nil)
	assert.Equal(t, ErrInvalidDefinition, CodeOf(err))
}

func TestAddDependency_UnknownTask(t *testing.T) {
	w := New("pipeline")
	_, err := w.AddTask("extract", sql("SELECT 1"))
	require.NoError(t, err)

	err = w.AddDependency("extract", "load")
	require.Error(t, err)
	assert.Equal(t, ErrUnknownTask, CodeOf(err))

	err = w.AddDependency("missing", "extract")
	require.Error(t, err)
	assert.Equal(t, ErrUnknownTask, CodeOf(err))
}

func TestValidate_CycleNamesParticipant(t *testing.T) {
	w := New("pipeline")
	for _, key := range []string{"a", "b"} {
		_, err := w.AddTask(key, sql("SELECT 1"))
		require.NoError(t, err)
	}
	require.NoError(t, w.AddDependency("a", "b"))
	require.NoError(t, w.AddDependency("b", "a"))

	err := w.Validate()
	require.Error(t, err)
	assert.Equal(t, ErrCycle, CodeOf(err))

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, []string{"a", "b"}, derr.TaskKey)
}

func TestValidate_SelfCycle(t *testing.T) {
	w := New("pipeline")
	_, err := w.AddTask("a", sql("SELECT 1"))
	require.NoError(t, err)
	require.NoError(t, w.AddDependency("a", "a"))

	err = w.Validate()
	assert.Equal(t, ErrCycle, CodeOf(err))
}

func branchWorkflow(t *testing.T) *Workflow {
	t.Helper()
	w := New("pipeline")
	_, err := w.AddTask("probe", sql("SELECT status"))
	require.NoError(t, err)
	_, err = w.AddBranch("gate", ConditionTask{
		Op:    "EQUAL_TO",
		Left:  "{{tasks.probe.values.status}}",
		Right: "OK",
	})
	require.NoError(t, err)
	_, err = w.AddTask("happy", sql("SELECT 'happy'"))
	require.NoError(t, err)
	_, err = w.AddTask("sad", sql("SELECT 'sad'"))
	require.NoError(t, err)
	require.NoError(t, w.AddDependency("probe", "gate"))
	return w
}

func TestValidate_IncompleteBranch(t *testing.T) {
	w := branchWorkflow(t)
	require.NoError(t, w.AddBranchDependency("gate", "happy", OutcomeTrue))

	err := w.Validate()
	require.Error(t, err)
	assert.Equal(t, ErrIncompleteBranch, CodeOf(err))

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "gate", derr.TaskKey)
}

func TestValidate_BranchWithNoOutcomeEdges(t *testing.T) {
	w := branchWorkflow(t)

	err := w.Validate()
	assert.Equal(t, ErrIncompleteBranch, CodeOf(err))
}

func TestValidate_AmbiguousBranch(t *testing.T) {
	w := branchWorkflow(t)
	require.NoError(t, w.AddBranchDependency("gate", "happy", OutcomeTrue))
	require.NoError(t, w.AddBranchDependency("gate", "sad", OutcomeTrue))

	err := w.Validate()
	require.Error(t, err)
	assert.Equal(t, ErrAmbiguousBranch, CodeOf(err))
}

func TestValidate_CompleteBranch(t *testing.T) {
	w := branchWorkflow(t)
	require.NoError(t, w.AddBranchDependency("gate", "happy", OutcomeTrue))
	require.NoError(t, w.AddBranchDependency("gate", "sad", OutcomeFalse))

	assert.NoError(t, w.Validate())
}

func TestValidate_UntaggedEdgeFromBranch(t *testing.T) {
	w := branchWorkflow(t)
	require.NoError(t, w.AddBranchDependency("gate", "happy", OutcomeTrue))
	require.NoError(t, w.AddDependency("gate", "sad"))

	err := w.Validate()
	assert.Equal(t, ErrIncompleteBranch, CodeOf(err))
}

func TestValidate_OutcomeTagOnNonBranch(t *testing.T) {
	w := New("pipeline")
	_, err := w.AddTask("a", sql("SELECT 1"))
	require.NoError(t, err)
	_, err = w.AddTask("b", sql("SELECT 2"))
	require.NoError(t, err)
	require.NoError(t, w.AddBranchDependency("a", "b", OutcomeTrue))

	err = w.Validate()
	assert.Equal(t, ErrInvalidDefinition, CodeOf(err))
}

func TestAddForEach_ConcurrencyBounds(t *testing.T) {
	template := Task{Key: "per_item", Payload: sql("SELECT '{{input}}'")}

	w := New("pipeline")
	_, err := w.AddForEach("fan_out", "{{tasks.seed.values}}", template, 0)
	require.Error(t, err)
	assert.Equal(t, ErrInvalidConcurrency, CodeOf(err))

	_, err = w.AddForEach("fan_out", "{{tasks.seed.values}}", template, 3)
	require.NoError(t, err)
	assert.NoError(t, w.Validate())
}

func TestValidate_NestedForEachTemplateRejected(t *testing.T) {
	inner := Task{Key: "inner", Payload: sql("SELECT 1")}
	outerTemplate := Task{
		Key: "middle",
		Payload: ForEachTask{
			Inputs:      "{{tasks.x.values}}",
			Task:        &inner,
			Concurrency: 1,
		},
	}

	w := New("pipeline")
	_, err := w.AddForEach("fan_out", "{{tasks.seed.values}}", outerTemplate, 2)
	require.NoError(t, err)

	err = w.Validate()
	assert.Equal(t, ErrInvalidDefinition, CodeOf(err))
}

func TestTopologicalOrder_Deterministic(t *testing.T) {
	build := func() *Workflow {
		w := New("pipeline")
		for _, key := range []string{"seed", "left", "right", "join"} {
			_, err := w.AddTask(key, sql("SELECT 1"))
			require.NoError(t, err)
		}
		require.NoError(t, w.AddDependency("seed", "left"))
		require.NoError(t, w.AddDependency("seed", "right"))
		require.NoError(t, w.AddDependency("left", "join"))
		require.NoError(t, w.AddDependency("right", "join"))
		return w
	}

	first, err := build().TopologicalOrder()
	require.NoError(t, err)

	// Ties ("left" vs "right") are broken by insertion order.
	assert.Equal(t, []string{"seed", "left", "right", "join"}, first)

	for i := 0; i < 10; i++ {
		again, err := build().TopologicalOrder()
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestValidate_EmptyWorkflow(t *testing.T) {
	assert.Equal(t, ErrInvalidDefinition, CodeOf(New("pipeline").Validate()))
	w := New("")
	_, err := w.AddTask("a", sql("SELECT 1"))
	require.NoError(t, err)
	assert.Equal(t, ErrInvalidDefinition, CodeOf(w.Validate()))
}

func TestTasks_InsertionOrder(t *testing.T) {
	w := New("pipeline")
	keys := []string{"c", "a", "b"}
	for _, key := range keys {
		_, err := w.AddTask(key, sql("SELECT 1"))
		require.NoError(t, err)
	}

	var got []string
	for _, task := range w.Tasks() {
		got = append(got, task.Key)
	}
	assert.Equal(t, keys, got)
}
