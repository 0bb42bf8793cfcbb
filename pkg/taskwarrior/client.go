// Package taskwarrior reads `task export` output so existing Taskwarrior
// lists can be brought into tasksync.
package taskwarrior

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/harrisonrobin/tasksync/pkg/model"
)

// ParseTasks accepts either a JSON array (`task export`) or a stream of JSON
// objects, one per line (what hooks receive).
func ParseTasks(r io.Reader) ([]Task, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(br)
	if first == '[' {
		var tasks []Task
		if err := decoder.Decode(&tasks); err != nil {
			return nil, fmt.Errorf("failed to decode task export: %w", err)
		}
		return tasks, nil
	}

	var tasks []Task
	for {
		var task Task
		if err := decoder.Decode(&task); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to decode task json: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

// Importable reports whether t should be brought over. Deleted tasks and
// recurrence templates are skipped.
func Importable(t Task) bool {
	return t.Status != DELETED && t.Status != RECURRING && strings.TrimSpace(t.Description) != ""
}

// ToDraft maps a Taskwarrior task onto a draft and the status it should end
// up with. Project, tags, due date and annotations become the description.
func ToDraft(t Task) (model.Draft, model.Status) {
	var lines []string
	var header []string
	if t.Project != "" {
		header = append(header, "project:"+t.Project)
	}
	for _, tag := range t.Tags {
		header = append(header, "#"+tag)
	}
	if t.Due != nil && !t.Due.IsZero() {
		header = append(header, "due:"+t.Due.UTC().Format("2006-01-02"))
	}
	if len(header) > 0 {
		lines = append(lines, strings.Join(header, " "))
	}
	for _, ann := range t.Annotations {
		lines = append(lines, "‣ "+ann.Description)
	}

	status := model.PENDING
	if t.Status == COMPLETED {
		status = model.DONE
	}
	return model.Draft{
		Title:       strings.TrimSpace(t.Description),
		Description: strings.Join(lines, "\n"),
	}, status
}
