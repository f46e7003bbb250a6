package cmd

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"
	"sync"
)

// lineRouter owns a reader of user input. A line typed while a prompt waits
// answers the prompt; any other line goes to the watcher reading Lines, and
// is dropped when nobody watches.
type lineRouter struct {
	r     *bufio.Reader
	start sync.Once
	lines chan string

	mu       sync.Mutex
	answer   chan string
	watching <-chan struct{}
	eof      bool
}

func newLineRouter(r io.Reader) *lineRouter {
	return &lineRouter{r: bufio.NewReader(r), lines: make(chan string)}
}

// input is the router over os.Stdin shared by prompts and the quote watcher.
var input = newLineRouter(os.Stdin)

func (l *lineRouter) run() {
	l.start.Do(func() { go l.loop() })
}

func (l *lineRouter) loop() {
	for {
		line, err := l.r.ReadString('\n')
		if err == nil || line != "" {
			l.dispatch(strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			l.close()
			return
		}
	}
}

func (l *lineRouter) dispatch(line string) {
	l.mu.Lock()
	if ans := l.answer; ans != nil {
		l.answer = nil
		l.mu.Unlock()
		ans <- line
		return
	}
	done := l.watching
	l.mu.Unlock()
	if done == nil {
		return
	}
	select {
	case l.lines <- line:
	case <-done:
	}
}

func (l *lineRouter) close() {
	l.mu.Lock()
	l.eof = true
	ans := l.answer
	l.answer = nil
	l.mu.Unlock()
	if ans != nil {
		close(ans)
	}
	close(l.lines)
}

// Lines streams lines not claimed by a prompt until ctx ends or input hits
// EOF, when the channel is closed.
func (l *lineRouter) Lines(ctx context.Context) <-chan string {
	l.mu.Lock()
	l.watching = ctx.Done()
	l.mu.Unlock()
	l.run()
	return l.lines
}

// Ask returns the next line typed after the call. ok is false at EOF or when
// ctx ends first.
func (l *lineRouter) Ask(ctx context.Context) (line string, ok bool) {
	ans := make(chan string, 1)
	l.mu.Lock()
	if l.eof {
		l.mu.Unlock()
		return "", false
	}
	l.answer = ans
	l.mu.Unlock()
	l.run()

	select {
	case line, ok = <-ans:
		return line, ok
	case <-ctx.Done():
		l.mu.Lock()
		if l.answer == ans {
			l.answer = nil
		}
		l.mu.Unlock()
		return "", false
	}
}

func (l *lineRouter) asking() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.answer != nil
}
