package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/oscrouter/internal/adapters/osc"
	"github.com/okian/oscrouter/internal/adapters/udp"
	"github.com/okian/oscrouter/internal/domain/model"
	"github.com/okian/oscrouter/pkg/logger"
)

func init() {
	_ = logger.InitWithWriter(io.Discard)
}

// display is a loopback UDP listener that decodes what it receives.
func display(t *testing.T) (*udp.Listener, <-chan *osc.Message) {
	t.Helper()
	l, err := udp.Listen(context.Background(), "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	got := make(chan *osc.Message, 8)
	go func() {
		_ = l.Serve(context.Background(), func(d model.Datagram) {
			if msg, err := osc.Decode(d.Data); err == nil {
				got <- msg
			}
		})
	}()
	return l, got
}

func receive(t *testing.T, got <-chan *osc.Message) *osc.Message {
	t.Helper()
	select {
	case msg := <-got:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("nothing received")
		return nil
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"oscdiag"}, args...))
	return out.String(), err
}

func TestSend(t *testing.T) {
	l, got := display(t)
	to := "127.0.0.1:" + strconv.Itoa(l.Port())

	out, err := run(t, "send", "--to", to, "--value", "100", "--text", "True100")
	require.NoError(t, err)
	assert.Contains(t, out, to)

	msg := receive(t, got)
	assert.Equal(t, "/score", msg.Address)
	assert.Equal(t, []osc.Argument{osc.Float(100), osc.String("True100")}, msg.Arguments)
}

func TestSend_BadAddress(t *testing.T) {
	_, err := run(t, "send", "--to", "127.0.0.1:notaport")
	assert.ErrorIs(t, err, model.ErrInvalidEndpoint)
}

func TestSimulate_SplitsParts(t *testing.T) {
	l, got := display(t)

	_, err := run(t, "simulate", "--router", "127.0.0.1:"+strconv.Itoa(l.Port()), "--station", "mastermind", "--value", "1", "--text", "True100")
	require.NoError(t, err)

	first := receive(t, got)
	second := receive(t, got)
	assert.Equal(t, "/mastermind/score", first.Address)
	assert.Equal(t, []osc.Argument{osc.Float(1)}, first.Arguments)
	assert.Equal(t, []osc.Argument{osc.String("True100")}, second.Arguments)
}

func TestCheck_SelectedStation(t *testing.T) {
	l, got := display(t)
	t.Setenv("OSCROUTER_ENV_FILE", os.DevNull)
	t.Setenv("OSCROUTER_ROUTES__PLINKO", "127.0.0.1:"+strconv.Itoa(l.Port()))

	out, err := run(t, "check", "--station", "plinko")
	require.NoError(t, err)
	assert.Contains(t, out, "plinko")
	assert.Contains(t, out, "ok")

	msg := receive(t, got)
	assert.Equal(t, []osc.Argument{osc.Float(testScore)}, msg.Arguments)
}

func TestCheck_MixedCaseFileRoute(t *testing.T) {
	l, got := display(t)
	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("routes:\n  Plinko: \"127.0.0.1:"+strconv.Itoa(l.Port())+"\"\n"), 0o600))
	t.Setenv("OSCROUTER_ENV_FILE", os.DevNull)
	t.Setenv("OSCROUTER_CONFIG", path)

	out, err := run(t, "check", "--station", "PLINKO")
	require.NoError(t, err)
	assert.NotContains(t, out, "unmapped")

	msg := receive(t, got)
	assert.Equal(t, "/score", msg.Address)
}

func TestCheck_UnmappedStation(t *testing.T) {
	t.Setenv("OSCROUTER_ENV_FILE", os.DevNull)

	out, err := run(t, "check", "--station", "nowhere")
	assert.ErrorIs(t, err, errCheckFailed)
	assert.Contains(t, out, "unmapped")
}
