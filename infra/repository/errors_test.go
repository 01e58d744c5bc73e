package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMapGormErrorToDomain(t *testing.T) {
	t.Parallel()

	other := errors.New("connection reset")
	tests := []struct {
		name  string
		input error
		want  error
	}{
		{"nil", nil, nil},
		{"duplicate account number", gorm.ErrDuplicatedKey, domain.ErrAlreadyExists},
		{"missing row", gorm.ErrRecordNotFound, domain.ErrNotFound},
		{"wrapped missing row", fmt.Errorf("lookup account: %w", gorm.ErrRecordNotFound), domain.ErrNotFound},
		{"joined duplicate", errors.Join(errors.New("insert"), gorm.ErrDuplicatedKey), domain.ErrAlreadyExists},
		{"foreign key", gorm.ErrForeignKeyViolated, gorm.ErrForeignKeyViolated},
		{"unmapped", other, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := MapGormErrorToDomain(tt.input)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestWrapError(t *testing.T) {
	t.Parallel()
	assert.NoError(t, WrapError(func() error { return nil }))
	assert.ErrorIs(t, WrapError(func() error { return gorm.ErrDuplicatedKey }), domain.ErrAlreadyExists)
	assert.Panics(t, func() {
		_ = WrapError(func() error { panic("boom") })
	})
}
