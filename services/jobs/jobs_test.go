package jobs

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/caseload/core"
	logsvc "github.com/trezcool/caseload/services/logger"
)

type markerFunc func(ctx context.Context) (int64, error)

func (f markerFunc) MarkOverdue(ctx context.Context) (int64, error) { return f(ctx) }

func TestMarkOverdue(t *testing.T) {
	var calls []string
	marker := func(name string, n int64, err error) OverdueMarker {
		return markerFunc(func(context.Context) (int64, error) {
			calls = append(calls, name)
			return n, err
		})
	}

	tests := []struct {
		name    string
		markers map[string]OverdueMarker
		wantErr bool
	}{
		{
			name: "all succeed",
			markers: map[string]OverdueMarker{
				"progress reports": marker("progress reports", 2, nil),
				"due date items":   marker("due date items", 0, nil),
			},
		},
		{
			name: "one fails, others still run",
			markers: map[string]OverdueMarker{
				"progress reports": marker("progress reports", 0, errors.New("db locked")),
				"due date items":   marker("due date items", 1, nil),
			},
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			calls = nil
			conf := &core.Config{Jobs: core.JobsConfig{OverdueSpec: "0 6 * * *"}}
			s := New(conf, logsvc.Discard(), tc.markers)

			err := s.MarkOverdue(context.Background())
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.ElementsMatch(t, []string{"progress reports", "due date items"}, calls)
		})
	}
}

func TestStartRejectsInvalidSpec(t *testing.T) {
	conf := &core.Config{Jobs: core.JobsConfig{OverdueSpec: "every morning"}}
	s := New(conf, logsvc.Discard(), nil)
	assert.Error(t, s.Start())
}
