package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/fpt/go-expert-panel/pkg/agent/domain"
	"github.com/fpt/go-expert-panel/pkg/agent/state"
)

const (
	colorReset = "\x1b[0m"
	colorGray  = "\x1b[90m"
	colorCyan  = "\x1b[36m"
	colorGreen = "\x1b[32m"
)

// TranscriptPrinter prints transcript entries as they arrive on a channel
type TranscriptPrinter struct {
	out   io.Writer
	color bool
}

// NewTranscriptPrinter creates a printer writing to out. color enables ANSI
// colours and should only be set for terminals.
func NewTranscriptPrinter(out io.Writer, color bool) *TranscriptPrinter {
	return &TranscriptPrinter{out: out, color: color}
}

// StartListening prints every entry received on ch.
// It blocks until ch is closed.
func (p *TranscriptPrinter) StartListening(ch <-chan state.Entry) {
	for entry := range ch {
		p.Print(entry)
	}
}

// Print writes one entry. Empty entries are skipped.
func (p *TranscriptPrinter) Print(entry state.Entry) {
	if entry.IsEmpty() {
		return
	}

	header := fmt.Sprintf("%s %s (%s)", roleIcon(entry.Role), entry.Speaker, entry.Timestamp.Format("15:04:05"))
	body := strings.TrimSpace(entry.Content)
	if p.color {
		headerColor := colorCyan
		if entry.Role == domain.RoleModerator {
			headerColor = colorGreen
		}
		header = headerColor + header + colorReset
		if entry.Role == domain.RoleCoordinator {
			body = colorGray + body + colorReset
		}
	}
	fmt.Fprintf(p.out, "%s\n%s\n\n", header, body)
}

// CreateTranscriptChannel starts a printer goroutine and returns the channel
// to feed it. Closing the channel stops the printer; done is closed once the
// last entry has been written.
func CreateTranscriptChannel(out io.Writer, color bool) (ch chan<- state.Entry, done <-chan struct{}) {
	entries := make(chan state.Entry, 16)
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		NewTranscriptPrinter(out, color).StartListening(entries)
	}()

	return entries, finished
}

func roleIcon(role domain.ParticipantRole) string {
	switch role {
	case domain.RoleCoordinator:
		return "📋"
	case domain.RoleModerator:
		return "🎙️"
	default:
		return "💬"
	}
}
