package programs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/continuation"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/resource"
)

// fakeRequester parks requests so the test decides when they complete.
type fakeRequester struct {
	urls    []string
	pending []continuation.Func
	err     error
}

func (f *fakeRequester) SessionRequest(ctx context.Context, url resource.URL, fn continuation.Func) error {
	if f.err != nil {
		return f.err
	}
	f.urls = append(f.urls, url.String())
	f.pending = append(f.pending, fn)
	return nil
}

func (f *fakeRequester) complete(item capability.Object, resp resource.Response) {
	pending := f.pending
	f.pending = nil
	for _, fn := range pending {
		fn(item, resp)
	}
}

func TestFileManager(t *testing.T) {
	fm := NewFileManager()
	assert.True(t, capability.Supports(fm, capability.FileManager))
	assert.False(t, capability.Supports(fm, capability.Executor))
	assert.Nil(t, fm.Entries())

	fm.Show(resource.Response{URL: resource.MustParse("file:///"), Data: []byte("a.txt\nbackground.bmp\n")})
	assert.Equal(t, []string{"a.txt", "background.bmp"}, fm.Entries())
	assert.Equal(t, "file:///", fm.Location().String())
	assert.NotEqual(t, NewFileManager().ID(), fm.ID())
}

func TestExecutorOnResponseInvokesOnce(t *testing.T) {
	exec := NewExecutor("test")
	require.Equal(t, "executor:test", exec.Name())

	var got []string
	cont := continuation.New(func(item capability.Object, resp resource.Response) {
		got = append(got, item.Name()+":"+resp.Text())
	})

	require.NoError(t, exec.OnResponse(resource.Response{Data: []byte("x")}, cont))
	assert.ErrorIs(t, exec.OnResponse(resource.Response{Data: []byte("y")}, cont), continuation.ErrInvoked)
	assert.Equal(t, []string{"executor:test:x"}, got)
	assert.Error(t, exec.OnResponse(resource.Response{}, nil))
}

func TestScriptRequestAndCallback(t *testing.T) {
	req := &fakeRequester{}
	var lines []string
	exec := NewExecutor("script", WithRequester(req), WithConsole(func(line string) {
		lines = append(lines, line)
	}))

	err := exec.Run(context.Background(), `
		const ok = request("file:///motd.txt", function (resp) {
			console.log("got", resp.size, resp.text, resp.mime);
		});
		console.log("issued", ok);
	`)
	require.NoError(t, err)
	assert.Equal(t, []string{"file:///motd.txt"}, req.urls)
	assert.Equal(t, []string{"issued true"}, lines)

	req.complete(exec, resource.Response{Data: []byte("hello"), MIME: "text/plain"})
	assert.Equal(t, []string{"issued true", "got 5 hello text/plain"}, lines)
	assert.Empty(t, exec.Errors())
}

func TestScriptChainedRequests(t *testing.T) {
	req := &fakeRequester{}
	exec := NewExecutor("chain", WithRequester(req))

	require.NoError(t, exec.Run(context.Background(), `
		request("file:///a", function () {
			request("random://uniform?n=1", function () {});
		});
	`))
	req.complete(exec, resource.Response{})
	assert.Equal(t, []string{"file:///a", "random://uniform?n=1"}, req.urls)
}

func TestScriptRequestFailure(t *testing.T) {
	req := &fakeRequester{err: errors.New("no handles")}
	var lines []string
	exec := NewExecutor("fail", WithRequester(req), WithConsole(func(line string) {
		lines = append(lines, line)
	}))

	require.NoError(t, exec.Run(context.Background(), `console.warn(request("file:///a", function () {}));`))
	assert.Equal(t, []string{"warn: false"}, lines)
}

func TestScriptErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"syntax error", `request(`},
		{"bad url", `request("no-scheme", function () {})`},
		{"callback not a function", `request("file:///a", 42)`},
		{"thrown error", `throw new Error("boom")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := NewExecutor("err", WithRequester(&fakeRequester{}))
			assert.Error(t, exec.Run(context.Background(), tt.source))
		})
	}
}

func TestScriptCallbackErrorIsRecorded(t *testing.T) {
	req := &fakeRequester{}
	exec := NewExecutor("cb", WithRequester(req))

	require.NoError(t, exec.Run(context.Background(), `request("file:///a", function () { throw new Error("bad"); });`))
	req.complete(exec, resource.Response{})
	assert.Len(t, exec.Errors(), 1)
}

func TestScriptTimeout(t *testing.T) {
	exec := NewExecutor("loop", WithTimeout(20*time.Millisecond))
	err := exec.Run(context.Background(), `for (;;) {}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}
