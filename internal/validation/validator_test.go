// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

package validation

import (
	"errors"
	"strings"
	"testing"
)

type pageParams struct {
	Page    int    `validate:"min=1"`
	PerPage int    `validate:"min=1,max=100"`
	SortDir string `validate:"oneof=asc desc"`
}

func TestValidateStructValid(t *testing.T) {
	if err := ValidateStruct(&pageParams{Page: 1, PerPage: 24, SortDir: "asc"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateStructCollectsFieldErrors(t *testing.T) {
	err := ValidateStruct(&pageParams{Page: 0, PerPage: 500, SortDir: "sideways"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr *RequestValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T", err)
	}
	if len(verr.Fields()) != 3 {
		t.Fatalf("fields = %+v, want 3 failures", verr.Fields())
	}

	msg := err.Error()
	for _, want := range []string{"Page must be at least 1", "PerPage must be at most 100", "SortDir must be one of"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestValidatorSingleton(t *testing.T) {
	if Validator() != Validator() {
		t.Error("Validator() should return the same instance")
	}
}
