package dbus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/zorder/internal/layout"
	"github.com/jmylchreest/zorder/internal/zorder"
)

// fakeBackend is an in-memory Backend keyed by view name.
type fakeBackend struct {
	priorities map[string]int
	orders     map[string][]string
	reloads    int
	err        error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		priorities: map[string]int{"save": 5},
		orders:     map[string][]string{"toolbar": {"save", "open"}},
	}
}

func (b *fakeBackend) lookup(name string) error {
	if b.err != nil {
		return b.err
	}
	if _, ok := b.priorities[name]; !ok && name != "open" {
		return fmt.Errorf("%w: %q", layout.ErrUnknownView, name)
	}
	return nil
}

func (b *fakeBackend) Priority(_ context.Context, name string) (int, error) {
	if err := b.lookup(name); err != nil {
		return 0, err
	}
	if p, ok := b.priorities[name]; ok {
		return p, nil
	}
	return zorder.Sentinel, nil
}

func (b *fakeBackend) SetPriority(_ context.Context, name string, priority int) error {
	if err := b.lookup(name); err != nil {
		return err
	}
	b.priorities[name] = priority
	return nil
}

func (b *fakeBackend) Order(_ context.Context, container string) ([]string, error) {
	if b.err != nil {
		return nil, b.err
	}
	order, ok := b.orders[container]
	if !ok {
		return nil, fmt.Errorf("%w: %q", layout.ErrUnknownView, container)
	}
	return order, nil
}

func (b *fakeBackend) Tracked(context.Context) ([]string, error) {
	if b.err != nil {
		return nil, b.err
	}
	return nil, nil
}

func (b *fakeBackend) Stats(context.Context) (zorder.Stats, error) {
	return zorder.Stats{Tracked: 1, Groups: 1, Recomputes: 7, Reorders: 2}, b.err
}

func (b *fakeBackend) Reload(context.Context) error {
	b.reloads++
	return b.err
}

func TestServer_Methods(t *testing.T) {
	backend := newFakeBackend()
	s := NewServer(backend, nil)

	p, dErr := s.GetPriority("save")
	require.Nil(t, dErr)
	assert.Equal(t, int32(5), p)

	require.Nil(t, s.SetPriority("open", 9))
	assert.Equal(t, 9, backend.priorities["open"])

	order, dErr := s.Order("toolbar")
	require.Nil(t, dErr)
	assert.Equal(t, []string{"save", "open"}, order)

	tracked, dErr := s.Tracked()
	require.Nil(t, dErr)
	assert.NotNil(t, tracked)
	assert.Empty(t, tracked)

	tr, groups, recomputes, reorders, dErr := s.Stats()
	require.Nil(t, dErr)
	assert.Equal(t, uint32(1), tr)
	assert.Equal(t, uint32(1), groups)
	assert.Equal(t, uint64(7), recomputes)
	assert.Equal(t, uint64(2), reorders)

	require.Nil(t, s.Reload())
	assert.Equal(t, 1, backend.reloads)
}

func TestServer_ErrorNames(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "unknown view", err: fmt.Errorf("wrapped: %w", layout.ErrUnknownView), expected: ErrorUnknownView},
		{name: "closed", err: zorder.ErrRegistryClosed, expected: ErrorClosed},
		{name: "other", err: errors.New("boom"), expected: ErrorFailed},
		{name: "deadline", err: context.DeadlineExceeded, expected: ErrorFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			backend.err = tt.err
			s := NewServer(backend, nil)

			dErr := s.SetPriority("save", 1)
			require.NotNil(t, dErr)
			assert.Equal(t, tt.expected, dErr.Name)
			assert.Contains(t, dErr.Error(), tt.err.Error())
		})
	}
}

func TestServer_UnknownView(t *testing.T) {
	s := NewServer(newFakeBackend(), nil)

	_, dErr := s.GetPriority("missing")
	require.NotNil(t, dErr)
	assert.Equal(t, ErrorUnknownView, dErr.Name)

	_, dErr = s.Order("missing")
	require.NotNil(t, dErr)
	assert.Equal(t, ErrorUnknownView, dErr.Name)
}

func TestFromDBusError(t *testing.T) {
	remote := dbus.Error{Name: ErrorUnknownView, Body: []interface{}{`unknown view: "x"`}}
	err := fromDBusError(remote)
	assert.ErrorIs(t, err, layout.ErrUnknownView)
	assert.Equal(t, `unknown view: "x"`, err.Error())

	err = fromDBusError(&dbus.Error{Name: ErrorClosed, Body: []interface{}{"closed"}})
	assert.ErrorIs(t, err, zorder.ErrRegistryClosed)

	other := dbus.Error{Name: ErrorFailed, Body: []interface{}{"boom"}}
	assert.Equal(t, error(other), fromDBusError(other))

	plain := errors.New("plain")
	assert.Equal(t, plain, fromDBusError(plain))
}

func TestServer_EmitWithoutConnection(t *testing.T) {
	s := NewServer(newFakeBackend(), nil)
	assert.ErrorIs(t, s.EmitOrderChanged("toolbar", nil), ErrNotConnected)
	assert.Nil(t, s.Connection())
	assert.NoError(t, s.Stop())
}

func TestIntrospection_MatchesExportedMethods(t *testing.T) {
	st := reflect.TypeOf(&Server{})
	dbusErrType := reflect.TypeOf(&dbus.Error{})

	for _, m := range zorderMethods() {
		t.Run(m.Name, func(t *testing.T) {
			method, ok := st.MethodByName(m.Name)
			require.True(t, ok, "method %s not implemented", m.Name)

			var in, out int
			for _, a := range m.Args {
				if a.Direction == "in" {
					in++
				} else {
					out++
				}
			}
			// Receiver is the first input.
			assert.Equal(t, in, method.Type.NumIn()-1)
			assert.Equal(t, out, method.Type.NumOut()-1)
			assert.Equal(t, dbusErrType, method.Type.Out(method.Type.NumOut()-1))
		})
	}
}
