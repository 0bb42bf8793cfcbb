package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRemoteTask(t *testing.T) {
	input := `{
		"id": 42,
		"title": "Buy milk",
		"description": null,
		"status": "pending",
		"user_id": 7,
		"created_at": "2024-03-01T10:00:00.000000Z",
		"updated_at": "2024-03-01T10:05:00.000000Z"
	}`

	var task Task
	require.NoError(t, json.Unmarshal([]byte(input), &task))

	assert.Equal(t, ID("42"), task.ID)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Empty(t, task.Description)
	assert.Equal(t, PENDING, task.Status)
	assert.True(t, task.CreatedAt.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))
	assert.True(t, task.UpdatedAt.After(task.CreatedAt))
}

func TestDecodeStringID(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a1b2","title":"x"}`), &task))
	assert.Equal(t, ID("a1b2"), task.ID)

	// Encoded ids stay strings so a stored guest list round-trips unchanged.
	b, err := json.Marshal(task)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"id":"a1b2"`)
}

func TestDecodeMissingAndInvalidID(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":null,"title":"x"}`), &task))
	assert.Empty(t, task.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"title":"x"}`), &task))
	assert.Empty(t, task.ID)

	assert.Error(t, json.Unmarshal([]byte(`{"id":1.5}`), &task))
	assert.Error(t, json.Unmarshal([]byte(`{"id":true}`), &task))
}

func TestPatchApply(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	orig := Task{ID: "1", Title: "Old", Description: "keep", Status: PENDING, CreatedAt: created, UpdatedAt: created}

	title := "New"
	done := DONE
	got := Patch{Title: &title, Status: &done}.Apply(orig)

	assert.Equal(t, "New", got.Title)
	assert.Equal(t, "keep", got.Description)
	assert.Equal(t, DONE, got.Status)
	assert.Equal(t, orig.ID, got.ID)
	assert.Equal(t, created, got.UpdatedAt)
	assert.Equal(t, "Old", orig.Title, "Apply must not mutate its argument")
}

func TestPatchIsEmpty(t *testing.T) {
	assert.True(t, Patch{}.IsEmpty())
	desc := ""
	assert.False(t, Patch{Description: &desc}.IsEmpty())
}

func TestStatusValid(t *testing.T) {
	assert.True(t, PENDING.Valid())
	assert.True(t, DONE.Valid())
	assert.False(t, Status("completed").Valid())
}

func TestCloneAndIndexOf(t *testing.T) {
	tasks := []Task{{ID: "a"}, {ID: "b"}}
	cp := Clone(tasks)
	cp[0].Title = "changed"

	assert.Empty(t, tasks[0].Title)
	assert.Equal(t, 1, IndexOf(tasks, "b"))
	assert.Equal(t, -1, IndexOf(tasks, "c"))
	assert.Nil(t, Clone(nil))
}
