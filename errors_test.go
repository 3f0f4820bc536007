// errors_test.go: unit tests for structured configuration errors
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package idr

import (
	"testing"

	goerrors "github.com/agilira/go-errors"
)

func TestConfigErrorsCarryExpectedCodes(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		code goerrors.ErrorCode
	}{
		{"bad initial page size", Config{InitialPageSize: 3, MaxPages: 1}, ErrCodeInvalidInitialPageSize},
		{"zero max pages", Config{InitialPageSize: 32, MaxPages: 0}, ErrCodeInvalidMaxPages},
		{"reserved bits too large", Config{InitialPageSize: 32, MaxPages: 1, ReservedBits: 64}, ErrCodeInvalidReservedBits},
		{"bit budget overflow", Config{InitialPageSize: 1 << 20, MaxPages: 20}, ErrCodeInvalidBitBudget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.validate()
			if err == nil {
				t.Fatal("validate() = nil, want an error")
			}
			if !goerrors.HasCode(err, tt.code) {
				t.Errorf("error %v does not carry code %s", err, tt.code)
			}
			if !IsConfigError(err) {
				t.Error("IsConfigError() = false, want true")
			}
		})
	}
}

func TestIsConfigErrorRejectsUnrelatedErrors(t *testing.T) {
	if IsConfigError(nil) {
		t.Error("IsConfigError(nil) = true, want false")
	}
}
