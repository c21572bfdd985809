package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *MatchOptions)
		wantErr bool
	}{
		{name: "defaults", mutate: func(o *MatchOptions) {}},
		{name: "large limit left to the engine", mutate: func(o *MatchOptions) { o.Limit = 250 }},
		{name: "zero limit", mutate: func(o *MatchOptions) { o.Limit = 0 }, wantErr: true},
		{name: "negative min score", mutate: func(o *MatchOptions) { o.MinScore = -0.1 }, wantErr: true},
		{name: "min score above one", mutate: func(o *MatchOptions) { o.MinScore = 1.5 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultMatchOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

type retryableErr bool

func (r retryableErr) Error() string   { return "fault" }
func (r retryableErr) Retryable() bool { return bool(r) }

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.True(t, IsRetryable(retryableErr(true)))
	assert.False(t, IsRetryable(retryableErr(false)))
	assert.True(t, IsRetryable(fmt.Errorf("failed to resolve: %w", retryableErr(true))))
}
