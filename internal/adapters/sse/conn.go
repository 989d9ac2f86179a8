// Package sse pushes room events to browsers over Server-Sent Events.
package sse

import (
	"io"
	"sync"
	"time"

	"github.com/dkeye/clicker/internal/core"
	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const DefaultBuffer = 64

// Conn is a core.Connection backed by a buffered channel that Stream drains
// into the HTTP response.
type Conn struct {
	send chan core.Event
	done chan struct{}
	once sync.Once
}

func NewConn(buffer int) *Conn {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Conn{send: make(chan core.Event, buffer), done: make(chan struct{})}
}

func (c *Conn) Send(ev core.Event) error {
	select {
	case <-c.done:
		return core.ErrConnectionClosed
	default:
	}
	select {
	case c.send <- ev:
		return nil
	default:
		return core.ErrBackpressure
	}
}

// Abort ends the stream once pending events are flushed.
func (c *Conn) Abort() {
	c.once.Do(func() { close(c.done) })
}

func (c *Conn) Done() <-chan struct{} { return c.done }

// Stream writes events to the client until the connection is aborted or the
// client goes away. A zero heartbeat disables keepalive comments.
func (c *Conn) Stream(ctx *gin.Context, heartbeat time.Duration) {
	h := ctx.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	var tick <-chan time.Time
	if heartbeat > 0 {
		t := time.NewTicker(heartbeat)
		defer t.Stop()
		tick = t.C
	}
	gone := ctx.Request.Context().Done()

	ctx.Stream(func(w io.Writer) bool {
		select {
		case ev := <-c.send:
			return write(w, ev)
		case <-tick:
			_, err := io.WriteString(w, ": ping\n\n")
			return err == nil
		case <-c.done:
			c.flush(w)
			return false
		case <-gone:
			return false
		}
	})
}

func (c *Conn) flush(w io.Writer) {
	for {
		select {
		case ev := <-c.send:
			if !write(w, ev) {
				return
			}
		default:
			return
		}
	}
}

func write(w io.Writer, ev core.Event) bool {
	if err := sse.Encode(w, sse.Event{Event: string(ev.Name), Data: ev.Data}); err != nil {
		log.Warn().Err(err).Str("module", "adapters.sse").Str("event", string(ev.Name)).Msg("encode failed")
		return false
	}
	return true
}
