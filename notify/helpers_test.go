package notify

import (
	"context"
	"fmt"
	"sync"
)

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) log(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+" "+format+" "+fmt.Sprint(args...))
}

func (l *recordingLogger) Debug(format string, args ...any) { l.log("DEBUG", format, args...) }
func (l *recordingLogger) Info(format string, args ...any)  { l.log("INFO", format, args...) }
func (l *recordingLogger) Warn(format string, args ...any)  { l.log("WARN", format, args...) }
func (l *recordingLogger) Error(format string, args ...any) { l.log("ERROR", format, args...) }

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, line := range l.lines {
		if len(line) > len(level) && line[:len(level)] == level {
			n++
		}
	}
	return n
}

type recordingSender struct {
	mu    sync.Mutex
	sent  []Envelope
	fail  map[string]error
	block chan struct{}
}

func (s *recordingSender) Name() string { return "recording" }

func (s *recordingSender) Send(ctx context.Context, env Envelope) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.fail[env.To]; ok {
		return err
	}
	s.sent = append(s.sent, env)
	return nil
}

func (s *recordingSender) delivered() []Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Envelope, len(s.sent))
	copy(out, s.sent)
	return out
}

type recordingQueue struct {
	messages []Message
}

func (q *recordingQueue) Dispatch(msg Message) bool {
	q.messages = append(q.messages, msg)
	return true
}

func readyConfig() Config {
	return Config{
		Provider:      ProviderSendGrid,
		APIKey:        "SG.test",
		DefaultSender: "no-reply@hirewell.test",
		Workers:       2,
		QueueSize:     8,
	}
}
