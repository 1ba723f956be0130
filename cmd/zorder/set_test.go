package main

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/zorder/internal/zorder"
)

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		arg     string
		want    assignment
		wantErr bool
	}{
		{"save=5", assignment{"save", 5}, false},
		{"open=-3", assignment{"open", -3}, false},
		{" help = 2 ", assignment{"help", 2}, false},
		{"minimap=", assignment{"minimap", zorder.Sentinel}, false},
		{"save", assignment{}, true},
		{"=4", assignment{}, true},
		{"save=high", assignment{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseAssignment(tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// fakeBackend serves a fixed tree.
type fakeBackend struct {
	children   map[string][]string
	priorities map[string]int
}

func (f *fakeBackend) Priority(_ context.Context, name string) (int, error) {
	if _, ok := f.priorities[name]; !ok {
		if _, ok := f.children[name]; !ok {
			return zorder.Sentinel, fmt.Errorf("unknown view %q", name)
		}
		return zorder.Sentinel, nil
	}
	return f.priorities[name], nil
}

func (f *fakeBackend) SetPriority(_ context.Context, name string, p int) error {
	f.priorities[name] = p
	return nil
}

func (f *fakeBackend) Order(_ context.Context, container string) ([]string, error) {
	return f.children[container], nil
}

func (f *fakeBackend) Tracked(context.Context) ([]string, error) { return nil, nil }

func (f *fakeBackend) Stats(context.Context) (zorder.Stats, error) { return zorder.Stats{}, nil }

func (f *fakeBackend) Reload(context.Context) error { return nil }

func TestRemoteSnapshot(t *testing.T) {
	b := &fakeBackend{
		children: map[string][]string{
			"main":    {"toolbar", "status"},
			"toolbar": {"save", "open"},
		},
		priorities: map[string]int{"toolbar": 2, "save": 5, "open": zorder.Sentinel, "status": zorder.Sentinel},
	}

	root, err := remoteSnapshot(context.Background(), b, "main", 0)
	require.NoError(t, err)

	assert.Equal(t, "main", root.Name)
	assert.Equal(t, "panel", root.Kind)
	assert.False(t, root.Tracked)
	require.Len(t, root.Children, 2)

	toolbar := root.Children[0]
	assert.Equal(t, "toolbar", toolbar.Name)
	assert.Equal(t, 2, toolbar.ZOrder)
	assert.True(t, toolbar.Tracked)
	require.Len(t, toolbar.Children, 2)
	assert.Equal(t, "view", toolbar.Children[0].Kind)
	assert.Equal(t, 1, toolbar.Children[1].Index)

	status := root.Children[1]
	assert.Equal(t, "view", status.Kind)
	assert.False(t, status.Tracked)

	_, err = remoteSnapshot(context.Background(), b, "missing", 0)
	assert.Error(t, err)
}
