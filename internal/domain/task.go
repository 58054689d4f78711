package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task field limits.
const (
	MaxTitleLength = 200
	MaxBodyLength  = 10000
)

// Task validation errors. Each unwraps to ErrValidation.
var (
	ErrEmptyTaskID   = NewValidationError("id", "cannot be empty", nil)
	ErrEmptyTitle    = NewValidationError("title", "cannot be empty", nil)
	ErrTitleTooLong  = NewValidationError("title", "must be at most 200 characters long", nil)
	ErrBodyTooLong   = NewValidationError("body", "must be at most 10000 characters long", nil)
	ErrNoTaskChanges = NewValidationError("task", "requires at least one of title or body", nil)
	ErrMissingEditor = NewValidationError("lastEditedBy", "cannot be empty", nil)
)

// Editor is the public summary of the user who last edited a task.
type Editor struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Task is a short text item on the shared board.
type Task struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Body         string     `json:"body"`
	LastEditedBy *uuid.UUID `json:"lastEditedBy"`
	Editor       *Editor    `json:"editor,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// TaskChanges is a partial update; nil fields are left untouched.
type TaskChanges struct {
	Title *string
	Body  *string
}

// Empty reports whether the changes would modify nothing.
func (c TaskChanges) Empty() bool {
	return c.Title == nil && c.Body == nil
}

// NewTask creates a Task authored by editorID.
func NewTask(title, body string, editorID uuid.UUID) (*Task, error) {
	if editorID == uuid.Nil {
		return nil, ErrMissingEditor
	}
	now := time.Now().UTC()
	editor := editorID
	task := &Task{
		ID:           uuid.New(),
		Title:        strings.TrimSpace(title),
		Body:         body,
		LastEditedBy: &editor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// Apply applies changes on behalf of editorID and validates the result.
func (t *Task) Apply(changes TaskChanges, editorID uuid.UUID) error {
	if changes.Empty() {
		return ErrNoTaskChanges
	}
	if editorID == uuid.Nil {
		return ErrMissingEditor
	}
	if changes.Title != nil {
		t.Title = strings.TrimSpace(*changes.Title)
	}
	if changes.Body != nil {
		t.Body = *changes.Body
	}
	editor := editorID
	t.LastEditedBy = &editor
	t.Editor = nil
	t.UpdatedAt = time.Now().UTC()
	return t.Validate()
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if t.Title == "" {
		return ErrEmptyTitle
	}
	if len([]rune(t.Title)) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if len([]rune(t.Body)) > MaxBodyLength {
		return ErrBodyTooLong
	}
	return nil
}
