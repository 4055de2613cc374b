// Package assist asks a language model for writing suggestions on a piece
// of manuscript text.
package assist

import (
	"context"
	"fmt"
	"strings"
)

// Task is the kind of suggestion requested.
type Task string

const (
	TaskGrammarFix Task = "grammar-fix"
	TaskExpand     Task = "expand"
	TaskSummarize  Task = "summarize"
	TaskContinue   Task = "continue"
)

// Tasks lists every supported task.
var Tasks = []Task{TaskGrammarFix, TaskExpand, TaskSummarize, TaskContinue}

// Suggester produces a suggestion for text.
type Suggester interface {
	Suggest(ctx context.Context, task Task, text string) (string, error)
}

// ParseTask converts a task name into a Task.
func ParseTask(s string) (Task, error) {
	t := Task(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Tasks {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown task %q (want one of %s)", s, taskNames())
}

func taskNames() string {
	names := make([]string, len(Tasks))
	for i, t := range Tasks {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

const systemPrompt = `You are an editor helping an author with a book manuscript written in Markdown.
Reply in the same language as the text. Return only the resulting text, with no preamble or explanation.`

var taskPrompts = map[Task]string{
	TaskGrammarFix: "Correct the grammar, spelling and punctuation of the following text. Keep the meaning, tone and Markdown formatting.\n\n%s",
	TaskExpand:     "Expand the following text with more detail and description while keeping its voice and Markdown formatting.\n\n%s",
	TaskSummarize:  "Summarize the following text in a few sentences.\n\n%s",
	TaskContinue:   "Continue writing from where the following text ends, in the same style. Return only the new text.\n\n%s",
}

func promptFor(task Task, text string) (string, error) {
	tmpl, ok := taskPrompts[task]
	if !ok {
		return "", fmt.Errorf("unknown task %q", task)
	}
	return fmt.Sprintf(tmpl, text), nil
}
