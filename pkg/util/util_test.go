package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/tasksync/pkg/model"
)

func TestParseStatus(t *testing.T) {
	cases := map[string]model.Status{
		"pending":   model.PENDING,
		" Pending ": model.PENDING,
		"todo":      model.PENDING,
		"done":      model.DONE,
		"DONE":      model.DONE,
		"completed": model.DONE,
	}
	for in, want := range cases {
		got, err := ParseStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseStatus("waiting")
	assert.ErrorContains(t, err, "waiting")
}

func TestFormatTask(t *testing.T) {
	line := FormatTask(model.Task{ID: "42", Title: "Buy milk", Status: model.PENDING}, false)
	assert.True(t, strings.HasPrefix(line, "• 42"), line)
	assert.Contains(t, line, "Buy milk")
	assert.NotContains(t, line, "\n")

	done := FormatTask(model.Task{ID: "7", Title: "Ship", Description: "v1.0", Status: model.DONE}, true)
	assert.True(t, strings.HasPrefix(done, "✓ 7"), done)
	assert.Contains(t, done, "\n")
	assert.Contains(t, done, "v1.0")

	provisional := FormatTask(model.Task{ID: "draft-1", Title: "Waiting", Status: model.PENDING}, true)
	assert.True(t, strings.HasPrefix(provisional, "‣"), provisional)

	lookalike := FormatTask(model.Task{ID: "tmp-abc", Title: "Server id", Status: model.PENDING}, false)
	assert.True(t, strings.HasPrefix(lookalike, "•"), "only the store decides what is provisional")
}

func TestFormatTasks(t *testing.T) {
	assert.Equal(t, "No tasks.", FormatTasks(nil, nil))

	out := FormatTasks([]model.Task{{ID: "1", Title: "a"}, {ID: "2", Title: "b"}}, func(id model.ID) bool { return id == "2" })
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "• 1"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "‣ 2"), lines[1])
}
