package smarthq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	keepaliveInterval = 30 * time.Second
	writeTimeout      = 10 * time.Second
	// a socket silent for two keepalive rounds is dead
	readTimeout = 2 * keepaliveInterval
)

// WebsocketClient talks to the SmartHQ cloud over its websocket API. All appliance
// state arrives as pushes, requests are fire-and-forget frames answered on the
// same socket.
type WebsocketClient struct {
	auth       *Authenticator
	apiURL     string
	httpClient *http.Client
	dialer     *websocket.Dialer
	logger     *zap.Logger
	readWait   time.Duration

	mu         sync.RWMutex
	handlers   EventHandlers
	conn       *websocket.Conn
	connected  bool
	done       chan struct{}
	appliances map[string]*Appliance

	writeMu sync.Mutex
}

func NewWebsocketClient(creds Credentials, handlers EventHandlers, logger *zap.Logger) *WebsocketClient {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return &WebsocketClient{
		auth:       NewAuthenticator(creds, httpClient),
		apiURL:     DefaultAPIURL,
		httpClient: httpClient,
		dialer:     websocket.DefaultDialer,
		logger:     logger.With(zap.String("target", "smarthq")),
		readWait:   readTimeout,
		handlers:   handlers,
		appliances: map[string]*Appliance{},
	}
}

func (c *WebsocketClient) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *WebsocketClient) Appliances() []*Appliance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	list := make([]*Appliance, 0, len(c.appliances))
	for _, a := range c.appliances {
		list = append(list, a)
	}
	return list
}

// ClearEventHandlers detaches all handlers, nothing is delivered afterwards.
func (c *WebsocketClient) ClearEventHandlers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = EventHandlers{}
}

func (c *WebsocketClient) eventHandlers() EventHandlers {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handlers
}

// Connect logs in, opens the socket, subscribes to erd pushes and asks for the
// appliance list.
func (c *WebsocketClient) Connect(ctx context.Context) error {
	if c.Connected() {
		return nil
	}
	token, err := c.auth.Token(ctx)
	if err != nil {
		return err
	}
	endpoint, err := c.websocketEndpoint(ctx, token.AccessToken)
	if errors.Is(err, ErrNotAuthenticated) {
		c.auth.Invalidate()
	}
	if err != nil {
		return err
	}
	conn, resp, err := c.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil && resp.StatusCode >= 500 {
			return fmt.Errorf("%w: websocket dial %d", ErrServer, resp.StatusCode)
		}
		return fmt.Errorf("websocket dial: %w", err)
	}

	done := make(chan struct{})
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.done = done
	c.mu.Unlock()

	if err := c.send(ctx, subscribeMessage{
		Kind:      kindSubscribe,
		Action:    "subscribe",
		Resources: []string{"/appliance/*/erd/*"},
	}); err != nil {
		c.closeConn(err)
		return err
	}

	go c.readLoop(conn, done)
	go c.keepalive(done)

	c.logger.Info("connected", zap.String("endpoint", endpoint))
	c.eventHandlers().connected()
	return c.RequestApplianceList(ctx)
}

// Disconnect closes the socket. Handlers still attached see OnDisconnected.
func (c *WebsocketClient) Disconnect() error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return nil
	}
	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.writeMu.Unlock()
	c.closeConn(nil)
	return nil
}

func (c *WebsocketClient) RequestApplianceList(ctx context.Context) error {
	return c.send(ctx, newAPIRequest(http.MethodGet, "/v1/appliance", requestIdApplianceList, nil))
}

// RequestUpdate asks for the full erd set of one appliance.
func (c *WebsocketClient) RequestUpdate(ctx context.Context, macAddr string) error {
	return c.send(ctx, newAPIRequest(http.MethodGet, applianceErdPath(macAddr), macAddr+requestIdAllErdSuffix, nil))
}

func (c *WebsocketClient) SetErdValue(ctx context.Context, macAddr string, code ErdCode, value string) error {
	body := erdSetBody{
		Kind:        kindErdListItem,
		ApplianceId: macAddr,
		Erd:         string(code),
		Value:       value,
		AckTimeout:  10,
	}
	path := fmt.Sprintf("%s/%s", applianceErdPath(macAddr), code)
	return c.send(ctx, newAPIRequest(http.MethodPost, path, uuid.NewString(), body))
}

func (c *WebsocketClient) websocketEndpoint(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/v1/websocket", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("websocket endpoint: %w", err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", fmt.Errorf("%w: websocket endpoint", ErrNotAuthenticated)
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: websocket endpoint %d", ErrServer, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("websocket endpoint: unexpected status %d", resp.StatusCode)
	}
	var body endpointResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("websocket endpoint: %w", err)
	}
	if body.Endpoint == "" {
		return "", errors.New("websocket endpoint: empty endpoint")
	}
	return body.Endpoint, nil
}

func (c *WebsocketClient) send(ctx context.Context, msg any) error {
	c.mu.RLock()
	conn := c.conn
	connected := c.connected
	c.mu.RUnlock()
	if !connected || conn == nil {
		return ErrNotConnected
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(writeTimeout)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

// readLoop pushes the read deadline forward on every frame, pongs included.
func (c *WebsocketClient) readLoop(conn *websocket.Conn, done chan struct{}) {
	extend := func() error {
		return conn.SetReadDeadline(time.Now().Add(c.readWait))
	}
	conn.SetPongHandler(func(string) error {
		return extend()
	})
	for {
		if err := extend(); err != nil {
			c.closeConn(err)
			return
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-done:
				// closed locally
			default:
				c.logger.Warn("read failed", zap.Error(err))
				c.closeConn(err)
			}
			return
		}
		c.handleFrame(data)
	}
}

func (c *WebsocketClient) keepalive(done chan struct{}) {
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := c.send(ctx, pingMessage{Kind: kindPing, Id: requestIdKeepalive, Action: "ping"})
			cancel()
			if err != nil {
				c.logger.Warn("keepalive failed", zap.Error(err))
			}
		}
	}
}

func (c *WebsocketClient) closeConn(cause error) {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return
	}
	c.connected = false
	conn := c.conn
	c.conn = nil
	close(c.done)
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	c.logger.Info("disconnected", zap.Error(cause))
	c.eventHandlers().disconnected(cause)
}

func (c *WebsocketClient) appliance(macAddr string) *Appliance {
	key := strings.ToUpper(macAddr)
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.appliances[key]
	if !ok {
		a = NewAppliance(key)
		c.appliances[key] = a
	}
	return a
}

func (c *WebsocketClient) handleFrame(data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn("unparseable frame", zap.Error(err))
		return
	}
	switch msg.Kind {
	case kindPublishErd:
		var item erdItem
		if err := json.Unmarshal(msg.Item, &item); err != nil {
			c.logger.Warn("bad erd publish", zap.Error(err))
			return
		}
		c.applyErdValues(item.ApplianceId, []erdItem{item}, false)
	case kindAPI:
		c.handleAPIResponse(msg)
	case kindPong:
	default:
		c.logger.Debug("ignored frame", zap.String("kind", msg.Kind))
	}
}

func (c *WebsocketClient) handleAPIResponse(msg inboundMessage) {
	if msg.Code >= 400 {
		c.logger.Warn("api request failed", zap.String("id", msg.Id), zap.Int("code", msg.Code))
		return
	}
	switch {
	case msg.Id == requestIdApplianceList:
		var body applianceListBody
		if err := json.Unmarshal(msg.Body, &body); err != nil {
			c.logger.Warn("bad appliance list", zap.Error(err))
			return
		}
		list := make([]*Appliance, 0, len(body.Items))
		for _, item := range body.Items {
			a := c.appliance(item.ApplianceId)
			a.SetAvailable(strings.EqualFold(item.Online, "ONLINE"))
			list = append(list, a)
		}
		c.eventHandlers().applianceList(list)
		for _, a := range list {
			if !a.Initialized() {
				if err := c.RequestUpdate(context.Background(), a.MacAddr()); err != nil {
					c.logger.Warn("cannot request appliance state", zap.String("mac", a.MacAddr()), zap.Error(err))
				}
			}
		}
	case strings.HasSuffix(msg.Id, requestIdAllErdSuffix):
		var body allErdBody
		if err := json.Unmarshal(msg.Body, &body); err != nil {
			c.logger.Warn("bad erd list", zap.Error(err))
			return
		}
		c.applyErdValues(strings.TrimSuffix(msg.Id, requestIdAllErdSuffix), body.Items, true)
	}
}

// applyErdValues updates the cache. Only a full erd list initializes an appliance,
// pushes received before that just fill the cache.
func (c *WebsocketClient) applyErdValues(macAddr string, items []erdItem, full bool) {
	a := c.appliance(macAddr)
	values := make(map[ErdCode]string, len(items))
	for _, item := range items {
		values[NormalizeErdCode(item.Erd)] = item.Value
	}
	changed := a.UpdateErdValues(values)
	if !a.Initialized() {
		if full {
			a.SetInitialized(true)
			c.eventHandlers().initialUpdate(a)
		}
		return
	}
	if len(changed) > 0 {
		c.eventHandlers().updateReceived(a, changed)
	}
}
