// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package singleton

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/bureau-foundation/procsingleton/lib/clock"
	"github.com/bureau-foundation/procsingleton/lib/netutil"
	"github.com/bureau-foundation/procsingleton/lib/singleton/wire"
)

// StartWatching accepts connections on the listener opened by Create
// and passes each forwarded command line to the notification
// callback. Socket I/O runs on one goroutine per connection; the
// callback runs on a single dispatch goroutine, so notifications are
// handled one at a time in arrival order.
//
// Watching stops when ctx is cancelled or Cleanup is called. After
// that, connections that already delivered a complete message are
// answered SHUTDOWN, and silent ones are closed. Wait blocks until
// everything has exited.
func (s *Singleton) StartWatching(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ErrNotCreated
	}
	if s.watcher != nil {
		return ErrAlreadyWatching
	}
	if s.onNotification == nil {
		return errors.New("singleton: StartWatching requires OnNotification")
	}

	w := &watcher{
		logger:   s.logger,
		clock:    s.clock,
		recorder: s.recorder,
		timeout:  s.readerTimeout,
		callback: s.onNotification,
		listener: s.listener,
		queue:    make(chan *reader),
		stopping: make(chan struct{}),
		readers:  make(map[*reader]struct{}),
	}
	s.watcher = w

	w.wg.Add(2)
	go w.acceptLoop()
	go w.dispatchLoop(ctx)
	go func() {
		select {
		case <-ctx.Done():
			w.stop()
		case <-w.stopping:
		}
	}()

	s.logger.Info("watching for forwarded command lines")
	return nil
}

// Wait blocks until the goroutines started by StartWatching have
// exited, including those of watchers already stopped by Cleanup. It
// returns immediately if StartWatching was never called.
func (s *Singleton) Wait() {
	s.mu.Lock()
	watchers := append([]*watcher(nil), s.retired...)
	if s.watcher != nil {
		watchers = append(watchers, s.watcher)
	}
	s.mu.Unlock()

	for _, w := range watchers {
		w.wg.Wait()
	}

	s.mu.Lock()
	s.retired = slices.DeleteFunc(s.retired, func(w *watcher) bool {
		return slices.Contains(watchers, w)
	})
	s.mu.Unlock()
}

// ActiveReaders returns the number of accepted connections that have
// not finished yet.
func (s *Singleton) ActiveReaders() int {
	s.mu.Lock()
	w := s.watcher
	s.mu.Unlock()
	if w == nil {
		return 0
	}
	return w.activeReaders()
}

type watcher struct {
	logger   *slog.Logger
	clock    clock.Clock
	recorder Recorder
	timeout  time.Duration
	callback NotificationFunc
	listener *net.UnixListener

	// queue hands readers with a complete message to the dispatcher.
	// It is unbuffered: a successful send means the dispatcher will
	// answer on the reader's verdict channel.
	queue    chan *reader
	stopping chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu      sync.Mutex
	readers map[*reader]struct{}
}

type reader struct {
	conn *net.UnixConn

	// state is guarded by watcher.mu.
	state ReaderState

	// timer is set before the reader goroutine starts and may be nil
	// only inside the timer callback itself.
	timer *clock.Timer

	startup wire.Startup
	verdict chan bool
}

func (w *watcher) stop() {
	w.stopOnce.Do(func() {
		close(w.stopping)
		if err := w.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			w.logger.Warn("closing singleton listener failed", "error", err)
		}

		w.mu.Lock()
		defer w.mu.Unlock()
		for r := range w.readers {
			if r.state == ReaderWaitingForData {
				r.conn.Close()
			}
		}
	})
}

func (w *watcher) isStopping() bool {
	select {
	case <-w.stopping:
		return true
	default:
		return false
	}
}

func (w *watcher) activeReaders() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.readers)
}

func (w *watcher) acceptLoop() {
	defer w.wg.Done()
	defer w.stop()

	for {
		conn, err := w.listener.AcceptUnix()
		if err != nil {
			if w.isStopping() || errors.Is(err, net.ErrClosed) {
				return
			}
			w.logger.Error("accepting singleton connection failed", "error", err)
			continue
		}
		w.startReader(conn)
	}
}

func (w *watcher) startReader(conn *net.UnixConn) {
	r := &reader{
		conn:    conn,
		state:   ReaderWaitingForData,
		verdict: make(chan bool, 1),
	}

	w.mu.Lock()
	if w.isStopping() {
		w.mu.Unlock()
		conn.Close()
		return
	}
	w.readers[r] = struct{}{}
	w.mu.Unlock()

	r.timer = w.clock.AfterFunc(w.timeout, func() { w.expire(r) })

	w.wg.Add(1)
	go w.read(r)
}

// expire closes a connection that sent nothing complete before the
// inactivity timeout. The callback is never invoked for it.
func (w *watcher) expire(r *reader) {
	w.mu.Lock()
	if _, ok := w.readers[r]; !ok || r.state != ReaderWaitingForData {
		w.mu.Unlock()
		return
	}
	r.state = ReaderTimedOut
	delete(w.readers, r)
	w.mu.Unlock()

	w.logger.Warn("closing singleton connection that sent no message",
		"timeout", w.timeout,
	)
	r.conn.Close()
	w.recorder.ReaderFinished(ReaderTimedOut)
}

func (w *watcher) read(r *reader) {
	defer w.wg.Done()

	// The sender half-closes after its message, so reading to EOF
	// yields exactly one message.
	data, err := io.ReadAll(io.LimitReader(r.conn, wire.MaxMessageLength+1))
	if err != nil {
		switch {
		case w.isStopping():
			w.finish(r, ReaderClosed)
		default:
			if !netutil.IsExpectedCloseError(err) {
				w.logger.Warn("reading singleton connection failed", "error", err)
			}
			w.finish(r, ReaderRejected)
		}
		return
	}
	if len(data) > wire.MaxMessageLength {
		w.logger.Warn("rejecting oversized startup message", "limit", wire.MaxMessageLength)
		w.finish(r, ReaderRejected)
		return
	}

	startup, err := wire.ParseStartup(data)
	if err != nil {
		w.logger.Warn("rejecting startup message", "error", err, "length", len(data))
		w.finish(r, ReaderRejected)
		return
	}

	w.mu.Lock()
	if r.state != ReaderWaitingForData {
		// Timed out while the last bytes were arriving.
		w.mu.Unlock()
		return
	}
	r.state = ReaderGotMessage
	w.mu.Unlock()
	r.timer.Stop()
	r.startup = startup

	select {
	case w.queue <- r:
	case <-w.stopping:
		w.reply(r, false)
		return
	}
	w.reply(r, <-r.verdict)
}

func (w *watcher) dispatchLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case r := <-w.queue:
			handled := w.callback(ctx, Notification{
				CommandLine: r.startup.Argv,
				CurrentDir:  r.startup.CurrentDir,
			})
			r.verdict <- handled
		case <-w.stopping:
			return
		}
	}
}

// reply writes ACK or SHUTDOWN and closes the connection.
func (w *watcher) reply(r *reader, handled bool) {
	state := ReaderAckSent
	if err := r.conn.SetWriteDeadline(time.Now().Add(w.timeout)); err != nil {
		w.logger.Warn("setting reply deadline failed", "error", err)
	}
	if _, err := r.conn.Write(wire.ReplyToken(handled)); err != nil {
		if !netutil.IsExpectedCloseError(err) {
			w.logger.Warn("writing singleton reply failed", "error", err)
		}
		state = ReaderRejected
	} else if err := netutil.CloseWrite(r.conn); err != nil && !netutil.IsExpectedCloseError(err) {
		w.logger.Warn("half-closing singleton reply failed", "error", err)
	}
	w.finish(r, state)
}

// finish removes r from the active set and closes its connection. It
// is a no-op for a reader the timer already removed.
func (w *watcher) finish(r *reader, state ReaderState) {
	w.mu.Lock()
	if _, ok := w.readers[r]; !ok {
		w.mu.Unlock()
		return
	}
	r.state = state
	delete(w.readers, r)
	w.mu.Unlock()

	r.timer.Stop()
	r.conn.Close()
	w.recorder.ReaderFinished(state)
	w.logger.Debug("singleton connection finished", "state", state.String())
}
