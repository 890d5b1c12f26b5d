package realtime

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/fundlens/internal/contracts"
	"github.com/wonny/fundlens/pkg/logger"
	"github.com/wonny/fundlens/pkg/metrics"
)

const (
	// Ping/Pong settings
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second

	maxCommandBytes = 4096
)

// QuoteProvider is the quote source of the stream
type QuoteProvider interface {
	Quotes(ctx context.Context, codes []string) (map[string]*contracts.FundQuote, error)
}

// Stream pushes quotes of subscribed funds over websocket
// ⭐ SSOT: 실시간 시세 푸시는 여기서만
type Stream struct {
	provider QuoteProvider
	interval time.Duration
	maxCodes int
	valid    func(string) bool
	upgrader websocket.Upgrader
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// NewStream creates the stream handler. interval is the push period.
func NewStream(provider QuoteProvider, interval time.Duration, maxCodes int, valid func(string) bool, m *metrics.Metrics, log *logger.Logger) *Stream {
	if log == nil {
		log = logger.Nop()
	}
	if valid == nil {
		valid = func(code string) bool { return code != "" }
	}
	return &Stream{
		provider: provider,
		interval: interval,
		maxCodes: maxCodes,
		valid:    valid,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// 단일 사용자 로컬 서비스: 모든 Origin 허용
			CheckOrigin: func(*http.Request) bool { return true },
		},
		metrics: m,
		logger:  log.WithComponent("stream"),
	}
}

// ServeHTTP upgrades GET /ws/quotes?codes=a,b and streams until the client leaves
func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	subs := newSubscription(s.maxCodes, s.valid)
	subs.add(strings.Split(r.URL.Query().Get("codes"), ","))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	if s.metrics != nil {
		s.metrics.WSClients.Inc()
		defer s.metrics.WSClients.Dec()
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &client{conn: conn}
	go s.readLoop(ctx, cancel, c, subs)
	s.writeLoop(ctx, c, subs)
}

// readLoop applies subscribe/unsubscribe commands; exits on close or read error
func (s *Stream) readLoop(ctx context.Context, cancel context.CancelFunc, c *client, subs *subscription) {
	defer cancel()

	c.conn.SetReadLimit(maxCommandBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.WithError(err).Debug("WebSocket read failed")
			}
			return
		}

		switch cmd.Action {
		case ActionSubscribe:
			subs.add(cmd.Codes)
			subs.wake()
		case ActionUnsubscribe:
			subs.remove(cmd.Codes)
		default:
			c.write(Message{Type: MessageError, Error: "unknown action: " + string(cmd.Action), Time: time.Now()})
		}

		if ctx.Err() != nil {
			return
		}
	}
}

func (s *Stream) writeLoop(ctx context.Context, c *client, subs *subscription) {
	push := time.NewTicker(s.interval)
	defer push.Stop()
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	s.push(ctx, c, subs)
	for {
		select {
		case <-ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case <-ping.C:
			if err := c.ping(); err != nil {
				return
			}
		case <-subs.changed:
			if err := s.push(ctx, c, subs); err != nil {
				return
			}
		case <-push.C:
			if err := s.push(ctx, c, subs); err != nil {
				return
			}
		}
	}
}

func (s *Stream) push(ctx context.Context, c *client, subs *subscription) error {
	codes := subs.codes()
	if len(codes) == 0 {
		return nil
	}

	quotes, err := s.provider.Quotes(ctx, codes)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.WithError(err).Warn("Quote push failed")
		return c.write(Message{Type: MessageError, Error: err.Error(), Time: time.Now()})
	}
	return c.write(Message{Type: MessageQuotes, Quotes: quotes, Time: time.Now()})
}

// client serialises writes (gorilla allows one concurrent writer)
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

func (c *client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// subscription is the code set of one connection
type subscription struct {
	mu      sync.Mutex
	set     map[string]bool
	max     int
	valid   func(string) bool
	changed chan struct{}
}

func newSubscription(limit int, valid func(string) bool) *subscription {
	return &subscription{
		set:     make(map[string]bool),
		max:     limit,
		valid:   valid,
		changed: make(chan struct{}, 1),
	}
}

// add ignores invalid codes and anything past max
func (s *subscription) add(codes []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, code := range codes {
		code = strings.TrimSpace(code)
		if !s.valid(code) || s.set[code] {
			continue
		}
		if s.max > 0 && len(s.set) >= s.max {
			return
		}
		s.set[code] = true
	}
}

func (s *subscription) remove(codes []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, code := range codes {
		delete(s.set, strings.TrimSpace(code))
	}
}

func (s *subscription) codes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.set))
	for code := range s.set {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// wake triggers an immediate push (non-blocking)
func (s *subscription) wake() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}
