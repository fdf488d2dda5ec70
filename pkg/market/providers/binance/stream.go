package binance

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zeromicro/go-zero/core/logx"

	"signalforge/pkg/market"
)

const (
	defaultMaxReconnects  = 5
	defaultReconnectDelay = time.Second
	defaultHealthyConnAge = 30 * time.Second
	updateBuffer          = 64
)

// Streams maintains one persistent socket per (symbol, timeframe)
// subscription. Each stream reconnects independently with exponential
// backoff; a global Close suppresses all further reconnection attempts.
type Streams struct {
	streamURL     string
	dialer        *websocket.Dialer
	maxReconnects int
	baseDelay     time.Duration
	healthyAge    time.Duration

	mu     sync.Mutex
	subs   map[string]*stream
	latest map[string]market.Kline
	closed bool
}

type stream struct {
	key     string
	path    string
	updates chan market.CandleUpdate
	done    chan struct{}
	refs    int

	closeOnce sync.Once
}

// shutdown closes the stream's done channel exactly once. Both the last
// subscriber's cancel and the manager's Close land here, in either order.
func (st *stream) shutdown() {
	st.closeOnce.Do(func() { close(st.done) })
}

// NewStreams constructs a streaming manager against the given websocket URL.
func NewStreams(streamURL string) *Streams {
	if streamURL == "" {
		streamURL = defaultStreamURL
	}
	return &Streams{
		streamURL:     streamURL,
		dialer:        websocket.DefaultDialer,
		maxReconnects: defaultMaxReconnects,
		baseDelay:     defaultReconnectDelay,
		healthyAge:    defaultHealthyConnAge,
		subs:          make(map[string]*stream),
		latest:        make(map[string]market.Kline),
	}
}

func streamKey(symbol string, timeframe market.Timeframe) string {
	return strings.ToUpper(symbol) + "|" + string(timeframe)
}

// Subscribe opens the stream for (symbol, timeframe) or reuses an existing
// one; duplicate subscriptions share a socket. The returned cancel function
// releases this subscriber; the socket closes when the last one leaves.
func (s *Streams) Subscribe(symbol string, timeframe market.Timeframe) (<-chan market.CandleUpdate, func(), error) {
	interval, err := intervalFor(timeframe)
	if err != nil {
		return nil, nil, err
	}
	key := streamKey(symbol, timeframe)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, nil, fmt.Errorf("binance: stream manager is closed")
	}
	if st, ok := s.subs[key]; ok {
		st.refs++
		return st.updates, s.cancelFunc(st), nil
	}

	st := &stream{
		key:     key,
		path:    strings.ToLower(symbol) + "@kline_" + interval,
		updates: make(chan market.CandleUpdate, updateBuffer),
		done:    make(chan struct{}),
		refs:    1,
	}
	s.subs[key] = st
	go s.run(st)
	return st.updates, s.cancelFunc(st), nil
}

func (s *Streams) cancelFunc(st *stream) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			st.refs--
			last := st.refs <= 0
			if last {
				delete(s.subs, st.key)
			}
			s.mu.Unlock()
			if last {
				st.shutdown()
			}
		})
	}
}

// Latest returns the most recent (possibly still forming) candle seen on the
// stream for (symbol, timeframe).
func (s *Streams) Latest(symbol string, timeframe market.Timeframe) (market.Kline, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.latest[streamKey(symbol, timeframe)]
	return k, ok
}

// Close tears down every stream and prevents reconnection.
func (s *Streams) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	streams := make([]*stream, 0, len(s.subs))
	for _, st := range s.subs {
		streams = append(streams, st)
	}
	s.subs = make(map[string]*stream)
	s.mu.Unlock()

	for _, st := range streams {
		st.shutdown()
	}
}

func (s *Streams) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func done(st *stream) bool {
	select {
	case <-st.done:
		return true
	default:
		return false
	}
}

// run owns the stream's connection lifecycle: dial, read until failure,
// reconnect with exponential backoff up to the ceiling, then give up and
// close the update channel. Dial failures and mid-read disconnects count
// against the same ceiling; only a connection that stayed up long enough
// resets it, so a server that accepts and immediately drops still backs off.
func (s *Streams) run(st *stream) {
	defer close(st.updates)

	attempt := 0
	for {
		if done(st) || s.isClosed() {
			return
		}
		conn, _, err := s.dialer.Dial(s.streamURL+"/"+st.path, nil)
		if err != nil {
			if !s.delayReconnect(st, &attempt, err) {
				return
			}
			continue
		}
		connectedAt := time.Now()
		logx.Infof("binance stream %s: connected", st.key)

		watcherStop := make(chan struct{})
		go func() {
			select {
			case <-st.done:
				conn.Close()
			case <-watcherStop:
			}
		}()

		readErr := s.readLoop(st, conn)
		close(watcherStop)
		conn.Close()

		if done(st) || s.isClosed() {
			return
		}
		logx.Infof("binance stream %s: disconnected: %v", st.key, readErr)

		if time.Since(connectedAt) >= s.healthyAge {
			attempt = 0
		}
		if !s.delayReconnect(st, &attempt, readErr) {
			return
		}
	}
}

// delayReconnect counts one failed attempt and waits out the backoff delay.
// It returns false once the ceiling is reached or the stream is canceled.
func (s *Streams) delayReconnect(st *stream, attempt *int, cause error) bool {
	*attempt++
	if *attempt > s.maxReconnects {
		logx.Errorf("binance stream %s: reconnect ceiling reached, giving up: %v", st.key, cause)
		return false
	}
	delay := s.baseDelay * time.Duration(1<<uint(*attempt-1))
	logx.Infof("binance stream %s: reconnecting in %s (attempt %d/%d)", st.key, delay, *attempt, s.maxReconnects)
	select {
	case <-st.done:
		return false
	case <-time.After(delay):
		return true
	}
}

func (s *Streams) readLoop(st *stream, conn *websocket.Conn) error {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var env streamEnvelope
		if err := json.Unmarshal(payload, &env); err != nil {
			logx.Errorf("binance stream %s: malformed message: %v", st.key, err)
			continue
		}
		if err := env.validate(); err != nil {
			logx.Errorf("binance stream %s: rejected message: %v", st.key, err)
			continue
		}

		kline := env.Kline.toKline()
		update := market.CandleUpdate{
			Symbol:    env.Symbol,
			Timeframe: market.Timeframe(env.Kline.Interval),
			Kline:     kline,
			Final:     env.Kline.IsFinal,
			Received:  time.Now(),
		}

		s.mu.Lock()
		s.latest[st.key] = kline
		s.mu.Unlock()

		select {
		case st.updates <- update:
		default:
			// Slow consumer: drop rather than stall the socket.
		}
	}
}
