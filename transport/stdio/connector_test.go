package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jsonrpc"
	"github.com/viant/mcpproxy/transport"
)

const helperEnv = "MCPPROXY_STDIO_HELPER"

func TestMain(m *testing.M) {
	if mode := os.Getenv(helperEnv); mode != "" {
		os.Exit(runHelper(mode))
	}
	os.Exit(m.Run())
}

// runHelper acts as a small MCP backend when the test binary is re-executed.
func runHelper(mode string) int {
	switch mode {
	case "exit":
		return 3
	case "garbage":
		fmt.Println("this is not json")
		_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
		return 0
	case "silent":
		_, _ = io.Copy(io.Discard, os.Stdin)
		return 0
	case "stderr":
		fmt.Fprintln(os.Stderr, "diagnostic output")
	}
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		var message struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &message); err != nil || len(message.ID) == 0 {
			continue
		}
		fmt.Println(`{"jsonrpc":"2.0","method":"notifications/message","params":{"level":"info"}}`)
		result, _ := json.Marshal(map[string]any{"method": message.Method, "params": message.Params})
		fmt.Printf(`{"jsonrpc":"2.0","id":%s,"result":%s}`+"\n", message.ID, result)
	}
	if mode == "stubborn" {
		time.Sleep(time.Minute)
	}
	return 0
}

func helper(mode string, options ...Option) *Connector {
	options = append([]Option{WithEnv(helperEnv + "=" + mode)}, options...)
	return New(os.Args[0], []string{"-test.run=^$"}, options...)
}

func newRequest() *jsonrpc.Request {
	return &jsonrpc.Request{Jsonrpc: jsonrpc.Version, Id: 7, Method: "tools/list", Params: json.RawMessage(`{"cursor":"a"}`)}
}

func TestConnector_Send(t *testing.T) {
	connector := helper("echo")
	require.NoError(t, connector.Connect(context.Background()))
	defer connector.Close()

	response, err := connector.Send(context.Background(), newRequest())
	require.NoError(t, err)
	assert.EqualValues(t, 7, response.Id)
	assert.Nil(t, response.Error)
	assert.JSONEq(t, `{"method":"tools/list","params":{"cursor":"a"}}`, string(response.Result))

	require.NoError(t, connector.Close())
	require.NotNil(t, connector.cmd.ProcessState)
	assert.True(t, connector.cmd.ProcessState.Success())
	assert.NoError(t, connector.Close())
}

func TestConnector_Stderr(t *testing.T) {
	stderr := &bytes.Buffer{}
	connector := helper("stderr", WithStderr(stderr))
	require.NoError(t, connector.Connect(context.Background()))
	_, err := connector.Send(context.Background(), newRequest())
	require.NoError(t, err)
	require.NoError(t, connector.Close())
	assert.Contains(t, stderr.String(), "diagnostic output")
}

func TestConnector_Errors(t *testing.T) {
	var testCases = []struct {
		description string
		connector   *Connector
		expectKind  transport.Kind
	}{
		{
			description: "executable not found",
			connector:   New(filepath.Join(t.TempDir(), "missing-server"), nil),
			expectKind:  transport.ConnectFailed,
		},
		{
			description: "exit before responding",
			connector:   helper("exit"),
			expectKind:  transport.ConnectFailed,
		},
		{
			description: "unparsable line",
			connector:   helper("garbage"),
			expectKind:  transport.MalformedResponse,
		},
	}
	for _, testCase := range testCases {
		_, err := testCase.connector.Send(context.Background(), newRequest())
		assert.ErrorIs(t, err, testCase.expectKind, testCase.description)
		assert.NoError(t, testCase.connector.Close(), testCase.description)
		if testCase.connector.cmd != nil {
			assert.NotNil(t, testCase.connector.cmd.ProcessState, testCase.description)
		}
	}
}

func TestConnector_CloseKillsAfterGrace(t *testing.T) {
	connector := helper("stubborn", WithGracePeriod(100*time.Millisecond))
	_, err := connector.Send(context.Background(), newRequest())
	require.NoError(t, err)

	started := time.Now()
	require.NoError(t, connector.Close())
	assert.Less(t, time.Since(started), 10*time.Second)
	require.NotNil(t, connector.cmd.ProcessState)
	assert.False(t, connector.cmd.ProcessState.Success())
}

func TestConnector_CloseWithoutGrace(t *testing.T) {
	connector := helper("stubborn", WithGracePeriod(0))
	_, err := connector.Send(context.Background(), newRequest())
	require.NoError(t, err)

	started := time.Now()
	require.NoError(t, connector.Close())
	assert.Less(t, time.Since(started), 5*time.Second)
	require.NotNil(t, connector.cmd.ProcessState)
	assert.False(t, connector.cmd.ProcessState.Success())
}

func TestConnector_Cancel(t *testing.T) {
	connector := helper("silent", WithGracePeriod(100*time.Millisecond))
	require.NoError(t, connector.Connect(context.Background()))
	defer connector.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := connector.Send(ctx, newRequest())
	assert.ErrorIs(t, err, transport.SendFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConnector_Notify(t *testing.T) {
	connector := helper("echo")
	defer connector.Close()
	require.NoError(t, connector.Notify(context.Background(), &jsonrpc.Notification{Method: "notifications/initialized"}))
	response, err := connector.Send(context.Background(), newRequest())
	require.NoError(t, err)
	assert.EqualValues(t, 7, response.Id)
}

func TestConnector_CloseBeforeConnect(t *testing.T) {
	connector := helper("echo")
	assert.NoError(t, connector.Close())
	_, err := connector.Send(context.Background(), newRequest())
	assert.ErrorIs(t, err, transport.ConnectFailed)
}
