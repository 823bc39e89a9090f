package errors

import (
	"strings"
	"testing"
)

func TestNotFittedError(t *testing.T) {
	err := NewNotFittedError("GradientBoostingTree", "Predict")

	var nfe *NotFittedError
	if !As(err, &nfe) {
		t.Fatal("error should unwrap to *NotFittedError")
	}
	if nfe.ModelName != "GradientBoostingTree" || nfe.Method != "Predict" {
		t.Errorf("unexpected fields: %+v", nfe)
	}
	if !strings.Contains(err.Error(), "not fitted") {
		t.Errorf("message %q should mention the unfitted state", err.Error())
	}
}

func TestDimensionError(t *testing.T) {
	tests := []struct {
		name     string
		axis     int
		wantWord string
	}{
		{"row axis", 0, "rows"},
		{"feature axis", 1, "features"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDimensionError("Fit", 10, 7, tt.axis)

			var de *DimensionError
			if !As(err, &de) {
				t.Fatal("error should unwrap to *DimensionError")
			}
			if de.Expected != 10 || de.Got != 7 {
				t.Errorf("unexpected fields: %+v", de)
			}
			if !strings.Contains(err.Error(), tt.wantWord) {
				t.Errorf("message %q should name the axis as %q", err.Error(), tt.wantWord)
			}
		})
	}
}

func TestUnsupportedLossError(t *testing.T) {
	err := NewUnsupportedLossError("GradientBoostingTree.Fit", "absolute_error")

	var ule *UnsupportedLossError
	if !As(err, &ule) {
		t.Fatal("error should unwrap to *UnsupportedLossError")
	}
	if ule.Loss != "absolute_error" {
		t.Errorf("Loss = %q, want %q", ule.Loss, "absolute_error")
	}
	if !strings.Contains(err.Error(), `unsupported loss function "absolute_error"`) {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("n_estimators", "must be a positive integer", 0)

	var ve *ValidationError
	if !As(err, &ve) {
		t.Fatal("error should unwrap to *ValidationError")
	}
	if ve.ParamName != "n_estimators" {
		t.Errorf("ParamName = %q, want n_estimators", ve.ParamName)
	}
}

func TestModelErrorUnwrap(t *testing.T) {
	err := NewModelError("Fit", "empty data", ErrEmptyData)

	if !Is(err, ErrEmptyData) {
		t.Error("ModelError should unwrap to its cause")
	}

	var me *ModelError
	if !As(err, &me) {
		t.Fatal("error should unwrap to *ModelError")
	}
	if me.Op != "Fit" {
		t.Errorf("Op = %q, want Fit", me.Op)
	}
}

func TestWrapPreservesType(t *testing.T) {
	base := NewNotFittedError("Model", "Predict")
	wrapped := Wrapf(base, "round %d", 3)

	var nfe *NotFittedError
	if !As(wrapped, &nfe) {
		t.Error("wrapping should preserve the underlying error type")
	}
	if !strings.Contains(wrapped.Error(), "round 3") {
		t.Errorf("wrapped message %q should carry the context", wrapped.Error())
	}
}
