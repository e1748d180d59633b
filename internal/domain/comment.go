package domain

import (
	"strings"
	"time"
)

// Comment stores one markdown note attached to a task.
type Comment struct {
	ID           string
	TaskID       string
	AuthorName   string
	BodyMarkdown string
	CreatedAt    time.Time
}

// NewComment constructs a normalized comment.
func NewComment(id, taskID, authorName, bodyMarkdown string, now time.Time) (Comment, error) {
	id = strings.TrimSpace(id)
	taskID = strings.TrimSpace(taskID)
	if id == "" {
		return Comment{}, ErrInvalidID
	}
	if taskID == "" {
		return Comment{}, ErrInvalidID
	}
	body := strings.TrimSpace(bodyMarkdown)
	if body == "" {
		return Comment{}, ErrInvalidBody
	}
	authorName = strings.TrimSpace(authorName)
	if authorName == "" {
		authorName = "tablero-user"
	}
	return Comment{
		ID:           id,
		TaskID:       taskID,
		AuthorName:   authorName,
		BodyMarkdown: body,
		CreatedAt:    now.UTC(),
	}, nil
}
