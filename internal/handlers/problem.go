package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const problemContentType = "application/problem+json"

// Problem is an RFC 7807 problem document.
type Problem struct {
	Type     string              `json:"type,omitempty"`
	Title    string              `json:"title,omitempty"`
	Status   int                 `json:"status,omitempty"`
	Detail   string              `json:"detail,omitempty"`
	Instance string              `json:"instance,omitempty"`
	Errors   map[string][]string `json:"errors,omitempty"`
}

// WriteProblem aborts the request with a problem+json body.
func WriteProblem(c *gin.Context, status int, title, detail string, errs map[string][]string) {
	c.Header("Content-Type", problemContentType)
	c.AbortWithStatusJSON(status, Problem{
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request.URL.Path,
		Errors:   errs,
	})
}

// fieldErrors splits a joined validation error of "field: message" parts into a map.
func fieldErrors(err error) map[string][]string {
	var parts []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		parts = joined.Unwrap()
	} else {
		parts = []error{err}
	}

	out := make(map[string][]string, len(parts))
	for _, e := range parts {
		field, msg, found := strings.Cut(e.Error(), ": ")
		if !found {
			field, msg = "event", e.Error()
		}
		out[field] = append(out[field], msg)
	}
	return out
}
