package guestbook

import (
	"net/http"
	"net/url"
)

// Operation is the single transition a request performs.
type Operation int

const (
	OpList Operation = iota
	OpFetchEdit
	OpCreate
	OpUpdate
	OpDelete
)

func (o Operation) String() string {
	switch o {
	case OpFetchEdit:
		return "fetch_edit"
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "list"
	}
}

// Mutating reports whether the operation changes stored entries.
func (o Operation) Mutating() bool {
	return o == OpCreate || o == OpUpdate || o == OpDelete
}

// Request is the transport-neutral view of an incoming page request.
type Request struct {
	Method    string
	Path      string
	SessionID string
	Query     url.Values
	Form      url.Values
}

// SelectOperation picks the operation for req. A delete link wins over an
// edit link; POST bodies dispatch on their action field; everything else lists.
func SelectOperation(req Request) Operation {
	switch req.Method {
	case http.MethodGet, http.MethodHead:
		if req.Query.Has("delete") {
			return OpDelete
		}
		if req.Query.Has("edit") {
			return OpFetchEdit
		}
	case http.MethodPost:
		switch req.Form.Get("action") {
		case "create":
			return OpCreate
		case "update":
			return OpUpdate
		}
	}
	return OpList
}
