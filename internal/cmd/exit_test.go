package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bundlekit/cli/internal/installer"
	"github.com/bundlekit/cli/internal/lockfile"
	"github.com/bundlekit/cli/internal/scope"
)

func TestExitCodeFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{
			name:     "nil error returns success",
			err:      nil,
			wantCode: ExitSuccess,
		},
		{
			name:     "scope conflict",
			err:      scope.ErrConflict,
			wantCode: ExitScopeConflict,
		},
		{
			name:     "wrapped scope conflict",
			err:      fmt.Errorf("installing: %w", scope.ErrConflict),
			wantCode: ExitScopeConflict,
		},
		{
			name:     "partial install",
			err:      installer.ErrPartialInstall,
			wantCode: ExitPartial,
		},
		{
			name:     "partial migration",
			err:      scope.ErrPartialMigration,
			wantCode: ExitPartial,
		},
		{
			name:     "not found",
			err:      lockfile.ErrNotFound,
			wantCode: ExitNotFound,
		},
		{
			name:     "corrupt lockfile",
			err:      lockfile.ErrCorrupt,
			wantCode: ExitCorruptLockfile,
		},
		{
			name:     "explicit exit error wins",
			err:      NewExitError(lockfile.ErrNotFound, ExitGeneralError),
			wantCode: ExitGeneralError,
		},
		{
			name:     "unknown error returns general error",
			err:      errors.New("unknown error"),
			wantCode: ExitGeneralError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, ExitCodeFromError(tt.err))
		})
	}
}

func TestExitCodeName(t *testing.T) {
	assert.Equal(t, "Success", ExitCodeName(ExitSuccess))
	assert.Equal(t, "Scope Conflict", ExitCodeName(ExitScopeConflict))
	assert.Equal(t, "Corrupt Lockfile", ExitCodeName(ExitCorruptLockfile))
	assert.Equal(t, "Unknown", ExitCodeName(42))
}

func TestExitErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := NewExitError(inner, ExitGeneralError)

	assert.Equal(t, "boom", err.Error())
	assert.True(t, errors.Is(err, inner))
}
