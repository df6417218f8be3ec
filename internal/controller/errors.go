package controller

import "errors"

// Messages shown in the error banner.
const (
	MsgLoad       = "Unable to load todos"
	MsgCreate     = "Unable to add a todo"
	MsgUpdate     = "Unable to update a todo"
	MsgDelete     = "Unable to delete a todo"
	MsgEmptyTitle = "Title should not be empty"
)

var (
	ErrEmptyTitle    = errors.New("empty title")
	ErrLoad          = errors.New("load items")
	ErrCreate        = errors.New("create item")
	ErrUpdate        = errors.New("update item")
	ErrDelete        = errors.New("delete item")
	ErrNotFound      = errors.New("item not found")
	ErrCreatePending = errors.New("another item is being created")
)

// UserMessage maps an operation error to the banner text for it, or "" when
// the error is not one the banner reports.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyTitle):
		return MsgEmptyTitle
	case errors.Is(err, ErrLoad):
		return MsgLoad
	case errors.Is(err, ErrCreate):
		return MsgCreate
	case errors.Is(err, ErrUpdate):
		return MsgUpdate
	case errors.Is(err, ErrDelete):
		return MsgDelete
	}
	return ""
}
