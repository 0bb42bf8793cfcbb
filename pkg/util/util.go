package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/tasksync/pkg/model"
)

// ParseStatus maps user input onto a task status. Taskwarrior-style spellings
// are accepted too.
func ParseStatus(s string) (model.Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "todo", "open":
		return model.PENDING, nil
	case "done", "completed", "complete":
		return model.DONE, nil
	}
	return "", fmt.Errorf("invalid status %q: want pending or done", s)
}

// FormatTask renders a task as one line, followed by an indented description
// line when the task has one. provisional marks a task the backend has not
// confirmed yet.
func FormatTask(task model.Task, provisional bool) string {
	prefix := "•"
	if task.Status == model.DONE {
		prefix = "✓"
	} else if provisional {
		prefix = "‣"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %-6s %s", prefix, task.ID, task.Title)
	if !task.UpdatedAt.IsZero() {
		fmt.Fprintf(&b, "  (%s)", task.UpdatedAt.Local().Format(time.DateTime))
	}
	if task.Description != "" {
		fmt.Fprintf(&b, "\n         %s", task.Description)
	}
	return b.String()
}

// FormatTasks renders a list, one task per FormatTask block. isProvisional
// may be nil.
func FormatTasks(tasks []model.Task, isProvisional func(model.ID) bool) string {
	if len(tasks) == 0 {
		return "No tasks."
	}
	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		lines = append(lines, FormatTask(t, isProvisional != nil && isProvisional(t.ID)))
	}
	return strings.Join(lines, "\n")
}
