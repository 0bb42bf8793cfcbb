package taskwarrior

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/tasksync/pkg/model"
)

const milk = `{
	"uuid": "f45a05b3-c12e-42e5-9c9c-333333333333",
	"description": "Buy milk",
	"status": "pending",
	"due": "20230101T120000Z",
	"project": "Groceries",
	"tags": ["buy", "food"],
	"annotations": [
		{"entry": "20230101T120500Z", "description": "Don't forget almond milk"}
	]
}`

func TestParseTasksLineStream(t *testing.T) {
	input := milk + "\n" + `{"uuid":"2","description":"Ship","status":"completed"}` + "\n"

	tasks, err := ParseTasks(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	task := tasks[0]
	assert.Equal(t, "f45a05b3-c12e-42e5-9c9c-333333333333", task.UUID)
	assert.Equal(t, "Buy milk", task.Description)
	assert.Equal(t, "Groceries", task.Project)
	assert.Len(t, task.Tags, 2)
	require.Len(t, task.Annotations, 1)
	expectedDue, _ := time.Parse(time.RFC3339, "2023-01-01T12:00:00Z")
	assert.True(t, task.Due.Time.Equal(expectedDue))
	assert.Equal(t, COMPLETED, tasks[1].Status)
}

func TestParseTasksExportArray(t *testing.T) {
	tasks, err := ParseTasks(strings.NewReader("\n  [" + milk + `,{"uuid":"2","description":"x","status":"deleted"}]`))
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Buy milk", tasks[0].Description)
}

func TestParseTasksEmptyAndInvalid(t *testing.T) {
	tasks, err := ParseTasks(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Empty(t, tasks)

	_, err = ParseTasks(strings.NewReader(`{"uuid":`))
	assert.Error(t, err)

	_, err = ParseTasks(strings.NewReader(`{"due":"tomorrow"}`))
	assert.Error(t, err)
}

func TestToDraft(t *testing.T) {
	tasks, err := ParseTasks(strings.NewReader(milk))
	require.NoError(t, err)

	draft, status := ToDraft(tasks[0])
	assert.Equal(t, "Buy milk", draft.Title)
	assert.Equal(t, "project:Groceries #buy #food due:2023-01-01\n‣ Don't forget almond milk", draft.Description)
	assert.Equal(t, model.PENDING, status)

	draft, status = ToDraft(Task{Description: " Ship ", Status: COMPLETED})
	assert.Equal(t, "Ship", draft.Title)
	assert.Empty(t, draft.Description)
	assert.Equal(t, model.DONE, status)
}

func TestImportable(t *testing.T) {
	assert.True(t, Importable(Task{Description: "a", Status: PENDING}))
	assert.True(t, Importable(Task{Description: "a", Status: WAITING}))
	assert.False(t, Importable(Task{Description: "a", Status: DELETED}))
	assert.False(t, Importable(Task{Description: "a", Status: RECURRING}))
	assert.False(t, Importable(Task{Description: "  ", Status: PENDING}))
}
