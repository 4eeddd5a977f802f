// Package auth carries the authenticated student on a context.
package auth

import (
	"context"
	"strings"

	"github.com/abhisek/mathwiz/internal/fault"
)

type contextKey string

const studentKey contextKey = "student"

// Identity is the signed-in student.
type Identity struct {
	StudentID  string
	GradeLevel string
}

// WithStudent attaches id to ctx.
func WithStudent(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, studentKey, id)
}

// StudentFrom returns the identity on ctx. A missing identity or a blank
// student ID is a NotAuthenticated error.
func StudentFrom(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(studentKey).(Identity)
	if !ok || strings.TrimSpace(id.StudentID) == "" {
		return Identity{}, fault.NotAuthenticated("auth")
	}
	return id, nil
}
