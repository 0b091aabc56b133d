// SPDX-License-Identifier: MPL-2.0

package guidance

import (
	"errors"
	"testing"
)

func TestSeverity_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		severity Severity
		want     bool
	}{
		{SeverityWarning, true},
		{SeverityError, true},
		{"", false},
		{"WARNING", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			t.Parallel()
			isValid, errs := tt.severity.IsValid()
			if isValid != tt.want {
				t.Errorf("Severity(%q).IsValid() = %v, want %v", tt.severity, isValid, tt.want)
			}
			if !tt.want && (len(errs) == 0 || !errors.Is(errs[0], ErrInvalidSeverity)) {
				t.Errorf("error should wrap ErrInvalidSeverity, got: %v", errs)
			}
		})
	}
}

func TestDiagnosticCode_IsValid(t *testing.T) {
	t.Parallel()

	validCodes := []DiagnosticCode{
		CodeReferenceNotFound, CodeReferenceUnreadable, CodeReferenceOutsidePackage,
		CodePrimaryUnreadable, CodePackageNotLocal, CodeRulesDirScanFailed,
	}
	for _, code := range validCodes {
		if ok, errs := code.IsValid(); !ok || len(errs) > 0 {
			t.Errorf("DiagnosticCode(%q).IsValid() = %v, %v; want true", code, ok, errs)
		}
	}

	ok, errs := DiagnosticCode("bogus").IsValid()
	if ok {
		t.Fatal("DiagnosticCode(bogus).IsValid() = true, want false")
	}
	if len(errs) == 0 || !errors.Is(errs[0], ErrInvalidDiagnosticCode) {
		t.Errorf("error should wrap ErrInvalidDiagnosticCode, got: %v", errs)
	}
}
