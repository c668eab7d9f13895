package types_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/karupanerura/tuffie/internal/types"
)

func TestEnvironment(t *testing.T) {
	t.Parallel()

	env := types.NewEnvironment()
	if err := env.Set("b", int64(1)); err != nil {
		t.Fatal(err)
	}
	if err := env.SetConstant("a", "x"); err != nil {
		t.Fatal(err)
	}

	clone := env.ShallowClone()
	if err := clone.Set("b", int64(2)); err != nil {
		t.Fatal(err)
	}
	if v, _ := env.Get("b"); v != int64(1) {
		t.Errorf("clone should not affect the original: %v", v)
	}

	err := clone.Set("a", "y")
	var typedErr *types.Error
	if !errors.As(err, &typedErr) || typedErr.Tag != types.ReassignmentErrorTag {
		t.Fatalf("expect ReassignmentError but got %v", err)
	}
	if v, _ := clone.Get("a"); v != "x" {
		t.Errorf("constant should be kept: %v", v)
	}

	if diff := cmp.Diff(map[string]any{"a": "x", "b": int64(1)}, env.Variables); diff != "" {
		t.Errorf("variables mismatch (-want +got):\n%s", diff)
	}
	if _, ok := env.Get("missing"); ok {
		t.Error("should not find missing key")
	}
}

func TestErrorException(t *testing.T) {
	t.Parallel()

	err := &types.Error{
		Tag: types.TypeErrorTag,
		Err: fmt.Errorf("wrapped: %w", &types.Error{Tag: types.ValueErrorTag}),
	}
	expected := map[string]any{
		"tags":    []any{types.TypeErrorTag, types.ValueErrorTag},
		"message": "wrapped: ValueError",
	}
	if diff := cmp.Diff(expected, err.Exception()); diff != "" {
		t.Errorf("exception mismatch (-want +got):\n%s", diff)
	}
	if s := err.Error(); s != "TypeError: wrapped: ValueError" {
		t.Errorf("unexpected message: %s", s)
	}
}
