package options

import (
	"testing"

	"github.com/DjordjeVuckovic/perf-automation/internal/apperr"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *RunOptions)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(o *RunOptions) {}},
		{name: "zero iterations", mutate: func(o *RunOptions) { o.Iterations = 0 }, wantErr: "must be positive"},
		{
			name:    "both sync and async suppressed",
			mutate:  func(o *RunOptions) { o.NoSync, o.NoAsync = true, true },
			wantErr: "cannot set both --no-sync and --no-async",
		},
		{name: "only sync suppressed", mutate: func(o *RunOptions) { o.NoSync = true }},
		{name: "invalid services regex", mutate: func(o *RunOptions) { o.Services = "(" }, wantErr: "services: invalid regex"},
		{name: "invalid arguments regex", mutate: func(o *RunOptions) { o.Arguments = "[" }, wantErr: "arguments: invalid regex"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Default()
			tt.mutate(&o)
			err := o.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperr.IsConfig(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLanguageSelected(t *testing.T) {
	o := Default()
	assert.True(t, o.LanguageSelected(config.Cpp))

	o.Languages = []config.Language{config.Java, config.Python}
	assert.True(t, o.LanguageSelected(config.Python))
	assert.False(t, o.LanguageSelected(config.Net))
}
