package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/abhisek/mathwiz/internal/fault"
)

func TestStudentFrom(t *testing.T) {
	ctx := WithStudent(context.Background(), Identity{StudentID: "s1", GradeLevel: "3"})
	id, err := StudentFrom(ctx)
	if err != nil {
		t.Fatalf("StudentFrom: %v", err)
	}
	if id.StudentID != "s1" || id.GradeLevel != "3" {
		t.Errorf("StudentFrom = %+v", id)
	}
}

func TestStudentFrom_Missing(t *testing.T) {
	for name, ctx := range map[string]context.Context{
		"empty context": context.Background(),
		"blank id":      WithStudent(context.Background(), Identity{StudentID: "  "}),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := StudentFrom(ctx)
			if !errors.Is(err, fault.ErrNotAuthenticated) {
				t.Errorf("err = %v, want NotAuthenticated", err)
			}
		})
	}
}
