package inject

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	typed     []string
	clipboard string
	writes    []string
	taps      []string
	writeErr  error
}

func newTestInjector(t *testing.T, method string) (*Injector, *recorder) {
	t.Helper()
	inj, err := New(method)
	require.NoError(t, err)

	r := &recorder{clipboard: "previous"}
	inj.typeText = func(s string) { r.typed = append(r.typed, s) }
	inj.readClip = func() (string, error) { return r.clipboard, nil }
	inj.writeClip = func(s string) error {
		if r.writeErr != nil {
			return r.writeErr
		}
		r.writes = append(r.writes, s)
		r.clipboard = s
		return nil
	}
	inj.keyTap = func(key string, mods ...any) error {
		r.taps = append(r.taps, key)
		return nil
	}
	return inj, r
}

func TestNewUnknownMethod(t *testing.T) {
	_, err := New("shout")
	assert.Error(t, err)
}

func TestInjectType(t *testing.T) {
	inj, r := newTestInjector(t, "type")
	require.NoError(t, inj.Inject("hello"))
	assert.Equal(t, []string{"hello"}, r.typed)
	assert.Empty(t, r.taps)
}

func TestInjectEmptyIsNoop(t *testing.T) {
	inj, r := newTestInjector(t, "type")
	require.NoError(t, inj.Inject(""))
	assert.Empty(t, r.typed)
}

func TestInjectPasteRestoresClipboard(t *testing.T) {
	inj, r := newTestInjector(t, "paste")
	require.NoError(t, inj.Inject("answer"))

	assert.Equal(t, []string{"answer", "previous"}, r.writes)
	assert.Equal(t, []string{"v"}, r.taps)
	assert.Equal(t, "previous", r.clipboard)
}

func TestInjectPasteClipboardError(t *testing.T) {
	inj, r := newTestInjector(t, "paste")
	r.writeErr = errors.New("no display")

	err := inj.Inject("answer")
	assert.ErrorContains(t, err, "no display")
	assert.Empty(t, r.taps)
}

func TestResponseOnlyWhenArmed(t *testing.T) {
	inj, r := newTestInjector(t, "type")

	inj.Response("typed in the window")
	assert.Empty(t, r.typed)

	inj.Arm()
	assert.True(t, inj.Armed())
	inj.Response("from the hotkey")
	assert.Equal(t, []string{"from the hotkey"}, r.typed)
	assert.False(t, inj.Armed())

	inj.Response("again")
	assert.Len(t, r.typed, 1, "arming covers a single response")
}

func TestErrorDisarms(t *testing.T) {
	inj, r := newTestInjector(t, "type")
	inj.Arm()
	inj.Error(errors.New("transcription failed"))
	inj.Response("late")
	assert.Empty(t, r.typed)
}
