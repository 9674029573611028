package terminal

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"github.com/antibyte/retrobasic/pkg/configuration"
	"github.com/antibyte/retrobasic/pkg/logger"
	"github.com/antibyte/retrobasic/pkg/shared"
	"github.com/antibyte/retrobasic/pkg/tinybasic"
)

// MaxInputLength is the longest accepted input line.
const MaxInputLength = 255

var errClientClosed = errors.New("client connection closed")

// Hilfsfunktionen für WebSocket-Konfigurationswerte
func getWriteWait() time.Duration {
	return configuration.GetDuration("Network", "write_wait_timeout", 10*time.Second)
}

func getPongWait() time.Duration {
	return configuration.GetDuration("Network", "pong_timeout", 60*time.Second)
}

func getPingPeriod() time.Duration {
	return (getPongWait() * 9) / 10
}

func getMaxMessageSize() int64 {
	return int64(configuration.GetInt("Network", "max_message_size_kb", 64) * 1024)
}

func getInputBuffer() int {
	return configuration.GetInt("Network", "input_buffer", 16)
}

// Client is one websocket connection. It is the teletype of the session's
// interpreter: output becomes Text messages, ReadLine waits for Input
// messages and a Break message raises the cancel token.
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	lines     chan string
	keys      chan rune
	breaks    chan struct{}
	handler   *TerminalHandler
	ipAddress string
	sessionID string
	owner     string
	username  string
	cancel    tinybasic.CancelToken
	shutdown  chan struct{}
	closeOnce sync.Once
	lastSeen  atomic.Int64 // unix nanoseconds of the last client message
}

var (
	_ tinybasic.Teletype      = (*Client)(nil)
	_ tinybasic.ScreenClearer = (*Client)(nil)
)

func newClient(conn *websocket.Conn, h *TerminalHandler) *Client {
	c := &Client{
		conn:     conn,
		send:     make(chan []byte, 256),
		lines:    make(chan string, getInputBuffer()),
		keys:     make(chan rune, getInputBuffer()),
		breaks:   make(chan struct{}, 1),
		handler:  h,
		shutdown: make(chan struct{}),
	}
	c.touch()
	return c
}

func (c *Client) touch() {
	c.lastSeen.Store(time.Now().UnixNano())
}

// LastActivity is the time of the last message from the browser.
func (c *Client) LastActivity() time.Time {
	return time.Unix(0, c.lastSeen.Load())
}

// sendMessage queues msg for the write pump. It blocks while the queue is
// full, which throttles a printing program to the client's speed.
func (c *Client) sendMessage(msg shared.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case c.send <- data:
		return nil
	case <-c.shutdown:
		return errClientClosed
	}
}

// ReadLine shows the prompt and waits for an Input message. A Break while
// waiting returns an empty line; a closed connection returns io.EOF.
func (c *Client) ReadLine(prompt string) (string, error) {
	select {
	case <-c.breaks:
	default:
	}
	mode := shared.ModeInput
	if prompt == c.handler.options.Prompt {
		mode = shared.ModeReady
	}
	if err := c.sendMessage(shared.Message{
		Type:         shared.MessageTypePrompt,
		PromptSymbol: prompt,
		InputEnabled: shared.Bool(true),
		Mode:         mode,
	}); err != nil {
		return "", io.EOF
	}

	var line string
	select {
	case line = <-c.lines:
	case <-c.breaks:
	case <-c.shutdown:
		return "", io.EOF
	}
	if err := c.sendMessage(shared.Message{
		Type:         shared.MessageTypeInputControl,
		InputEnabled: shared.Bool(false),
		Mode:         shared.ModeRunning,
	}); err != nil {
		return "", io.EOF
	}
	return line, nil
}

// Write sends text without a line break of its own. BEL characters become
// Beep messages.
func (c *Client) Write(text string) error {
	for text != "" {
		before, after, bell := strings.Cut(text, "\a")
		if before != "" {
			if err := c.sendMessage(shared.Message{Type: shared.MessageTypeText, Content: before, NoNewline: true}); err != nil {
				return err
			}
		}
		if bell {
			if err := c.sendMessage(shared.Message{Type: shared.MessageTypeBeep}); err != nil {
				return err
			}
		}
		text = after
	}
	return nil
}

// ReadChar waits for a KeyDown message.
func (c *Client) ReadChar() (rune, error) {
	select {
	case r := <-c.keys:
		return r, nil
	case <-c.shutdown:
		return 0, io.EOF
	}
}

// ClearScreen sends a Clear message for HOME.
func (c *Client) ClearScreen() error {
	return c.sendMessage(shared.Message{Type: shared.MessageTypeClear})
}

// Cancellation returns the break token.
func (c *Client) Cancellation() *tinybasic.CancelToken {
	return &c.cancel
}

// close ends the session once: pending reads return io.EOF and a running
// program is interrupted.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.cancel.Cancel()
		close(c.shutdown)
	})
}

// sanitizeInput drops control characters and limits the length.
func sanitizeInput(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "?")
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	if utf8.RuneCountInString(s) > MaxInputLength {
		s = string([]rune(s)[:MaxInputLength])
	}
	return s
}

// readPump pumpt Nachrichten vom WebSocket zum Interpreter
func (c *Client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(getMaxMessageSize())
	c.conn.SetReadDeadline(time.Now().Add(getPongWait()))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(getPongWait()))
		return nil
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logger.WebSocketWarn("unexpected close for session %s: %v", c.sessionID, err)
			} else {
				logger.WebSocketDebug("session %s closed: %v", c.sessionID, err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		msg, err := shared.ParseClientMessage(data)
		if err != nil {
			logger.SecurityWarn("rejected message from %s: %v", c.ipAddress, err)
			continue
		}
		c.touch()

		switch msg.Type {
		case shared.MessageTypeInput:
			select {
			case c.lines <- sanitizeInput(msg.InputStr):
			default:
				logger.WebSocketWarn("input buffer full for session %s, line dropped", c.sessionID)
			}
		case shared.MessageTypeKeyDown:
			if r, _ := utf8.DecodeRuneInString(msg.Content); r != utf8.RuneError {
				select {
				case c.keys <- r:
				default:
				}
			}
		case shared.MessageTypeBreak:
			logger.Debug(logger.AreaTerminal, "break for session %s", c.sessionID)
			c.cancel.Cancel()
			select {
			case c.breaks <- struct{}{}:
			default:
			}
		}
	}
}

// writePump pumpt Nachrichten vom Interpreter zum WebSocket
func (c *Client) writePump() {
	ticker := time.NewTicker(getPingPeriod())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	write := func(data []byte) error {
		c.conn.SetWriteDeadline(time.Now().Add(getWriteWait()))
		return c.conn.WriteMessage(websocket.TextMessage, data)
	}

	for {
		select {
		case data := <-c.send:
			if err := write(data); err != nil {
				logger.WebSocketDebug("write to session %s failed: %v", c.sessionID, err)
				c.close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(getWriteWait()))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.WebSocketDebug("ping to session %s failed: %v", c.sessionID, err)
				c.close()
				return
			}
		case <-c.shutdown:
			// Flush what the interpreter queued before it ended.
			for {
				select {
				case data := <-c.send:
					if write(data) != nil {
						return
					}
				default:
					c.conn.SetWriteDeadline(time.Now().Add(getWriteWait()))
					c.conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
					return
				}
			}
		}
	}
}
