package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"chinampa/chat"
	"chinampa/layout"
	"chinampa/models"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var chatWidth int

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the farming assistant",
	Long:  `chat reads one message per line from stdin and prints the assistant's replies. /salir ends the session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		t := chat.NewHTTPTransport(cfg.APIURL)
		return runChat(cmd.Context(), t, cmd.InOrStdin(), cmd.OutOrStdout(), chatWidth)
	},
}

func init() {
	chatCmd.Flags().IntVar(&chatWidth, "width", layout.DefaultTextarea.Width, "Chat column width")
}

var (
	userStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("36")).Padding(0, 1)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	whoStyle   = lipgloss.NewStyle().Bold(true)
)

// transcript prints session events to a terminal.
type transcript struct {
	out   io.Writer
	width int
	md    *glamour.TermRenderer
	input layout.Textarea
}

func newTranscript(out io.Writer, width int) *transcript {
	if width <= 0 {
		width = layout.DefaultTextarea.Width
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("notty"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		logger.Warn("markdown renderer unavailable", zap.Error(err))
	}
	input := layout.DefaultTextarea
	input.Width = width
	return &transcript{out: out, width: width, md: md, input: input}
}

func (t *transcript) print(ev chat.Event) {
	switch ev.Kind {
	case chat.Failed:
		msg := ev.Err.Error()
		var se *chat.SendError
		if errors.As(ev.Err, &se) {
			msg = se.Message()
		}
		fmt.Fprintln(t.out, errorStyle.Render(msg))
	case chat.Appended:
		fmt.Fprintln(t.out, t.render(ev.Message))
	}
}

func (t *transcript) render(m models.ChatMessage) string {
	if m.Sender == models.SenderUser {
		box := userStyle.Width(t.width).Height(t.input.Rows(m.Text))
		return whoStyle.Render("Tú") + "\n" + box.Render(m.Text)
	}
	body := m.Text
	if t.md != nil {
		if out, err := t.md.Render(m.Text); err == nil {
			body = strings.TrimRight(out, "\n")
		}
	}
	return whoStyle.Render("Asistente") + "\n" + body
}

// runChat feeds stdin lines to a session until EOF or /salir, then waits
// for replies still in flight.
func runChat(ctx context.Context, t chat.Transport, in io.Reader, out io.Writer, width int) error {
	sess := chat.NewSession(t, chat.Options{Logger: logger.Named("chat")})
	defer sess.Close()

	view := newTranscript(out, width)
	events, unsubscribe := sess.Subscribe(32)
	defer unsubscribe()
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for ev := range events {
			view.print(ev)
		}
	}()

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "/salir" {
			break
		}
		sess.SetInput(line)
		if _, err := sess.SendInput(); err != nil && !errors.Is(err, chat.ErrEmptyMessage) {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, 90*time.Second)
	defer cancel()
	if err := sess.Wait(waitCtx); err != nil {
		logger.Warn("replies still pending at exit", zap.Error(err))
	}
	sess.Close()
	<-printed
	return nil
}
