package smarthq

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type recordedEvents struct {
	lists   int
	initial []string
	updates []map[ErdCode]string
}

func newRecordingClient() (*WebsocketClient, *recordedEvents) {
	rec := &recordedEvents{}
	c := NewWebsocketClient(Credentials{}, EventHandlers{
		OnApplianceList: func(appliances []*Appliance) { rec.lists++ },
		OnInitialUpdate: func(a *Appliance) { rec.initial = append(rec.initial, a.MacAddr()) },
		OnUpdateReceived: func(a *Appliance, changed map[ErdCode]string) {
			rec.updates = append(rec.updates, changed)
		},
	}, zap.NewNop())
	return c, rec
}

func TestHandleApplianceList(t *testing.T) {
	c, rec := newRecordingClient()

	c.handleFrame([]byte(`{"kind":"websocket#api","id":"List-appliances","code":200,
		"body":{"items":[{"applianceId":"d828c9000001","type":"Oven","online":"ONLINE"},
		{"applianceId":"d828c9000002","type":"Fridge","online":"OFFLINE"}]}}`))

	assert.Equal(t, 1, rec.lists)
	require.Len(t, c.Appliances(), 2)
	assert.True(t, c.appliance("d828c9000001").Available())
	assert.False(t, c.appliance("D828C9000002").Available())
}

func TestFullErdListInitializes(t *testing.T) {
	c, rec := newRecordingClient()

	// pushes before the full list only fill the cache
	c.handleFrame([]byte(`{"kind":"publish#erd","item":{"applianceId":"d828c9000001","erd":"0x0009","value":"00"}}`))
	assert.Empty(t, rec.initial)
	assert.Empty(t, rec.updates)

	c.handleFrame([]byte(`{"kind":"websocket#api","id":"d828c9000001-allErd","code":200,
		"body":{"items":[{"erd":"0x0008","value":"07"},{"erd":"0x0002","value":"4142"}]}}`))
	assert.Equal(t, []string{"D828C9000001"}, rec.initial)
	a := c.appliance("d828c9000001")
	assert.True(t, a.Initialized())
	assert.Equal(t, ApplianceTypeOven, a.ApplianceType())

	c.handleFrame([]byte(`{"kind":"publish#erd","item":{"applianceId":"d828c9000001","erd":"0x0009","value":"01"}}`))
	require.Len(t, rec.updates, 1)
	assert.Equal(t, map[ErdCode]string{ErdSabbathMode: "01"}, rec.updates[0])

	// unchanged values are not reported
	c.handleFrame([]byte(`{"kind":"publish#erd","item":{"applianceId":"d828c9000001","erd":"0x0009","value":"01"}}`))
	assert.Len(t, rec.updates, 1)
}

func TestClearedHandlersAreSilent(t *testing.T) {
	c, rec := newRecordingClient()
	c.ClearEventHandlers()
	c.handleFrame([]byte(`{"kind":"websocket#api","id":"List-appliances","code":200,"body":{"items":[]}}`))
	assert.Equal(t, 0, rec.lists)
}

func TestSendWhileDisconnected(t *testing.T) {
	c, _ := newRecordingClient()
	assert.ErrorIs(t, c.RequestApplianceList(context.Background()), ErrNotConnected)
	assert.NoError(t, c.Disconnect())
}

func TestClassifyTokenError(t *testing.T) {
	mk := func(status int) error {
		return &oauth2.RetrieveError{
			Response: &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewReader(nil))},
			Body:     []byte("nope"),
		}
	}
	assert.ErrorIs(t, classifyTokenError(mk(http.StatusUnauthorized)), ErrAuthFailed)
	assert.ErrorIs(t, classifyTokenError(mk(http.StatusBadRequest)), ErrAuthFailed)
	assert.ErrorIs(t, classifyTokenError(mk(http.StatusBadGateway)), ErrServer)
	err := classifyTokenError(mk(http.StatusTeapot))
	assert.NotErrorIs(t, err, ErrAuthFailed)
	assert.NotErrorIs(t, err, ErrServer)
}

func TestTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "token.json")
	expiry := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, WriteToken(path, &oauth2.Token{AccessToken: "a", RefreshToken: "r", Expiry: expiry}))

	token, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "r", token.RefreshToken)
	assert.True(t, expiry.Equal(token.Expiry))

	_, err = LoadToken("")
	assert.Error(t, err)
}

func TestSilentSocketTimesOut(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for i := 0; i < 3; i++ {
			time.Sleep(60 * time.Millisecond)
			if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"kind":"`+kindPong+`"}`)); err != nil {
				return
			}
		}
		<-release
	}))
	defer srv.Close()

	disconnected := make(chan error, 1)
	c := NewWebsocketClient(Credentials{}, EventHandlers{
		OnDisconnected: func(err error) { disconnected <- err },
	}, zap.NewNop())
	c.readWait = 100 * time.Millisecond

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	done := make(chan struct{})
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.done = done
	c.mu.Unlock()

	start := time.Now()
	go c.readLoop(conn, done)

	select {
	case err := <-disconnected:
		// each pong pushed the deadline past the next one
		assert.GreaterOrEqual(t, time.Since(start), 250*time.Millisecond)
		var netErr net.Error
		require.ErrorAs(t, err, &netErr)
		assert.True(t, netErr.Timeout())
	case <-time.After(2 * time.Second):
		t.Fatal("silent socket was not closed")
	}
	assert.False(t, c.Connected())
}
