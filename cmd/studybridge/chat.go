package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/studybridge/client-go/internal/errors"
	"github.com/studybridge/client-go/internal/model"
	"github.com/studybridge/client-go/internal/poller"
	"github.com/studybridge/client-go/internal/sync"
)

func newChatCmd(a *app) *cobra.Command {
	var studentToken string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the support conversation",
		Long: "Opens the conversation with your admin. Admins pass --student to\n" +
			"open the conversation with one of their students.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			var client *sync.Client
			var viewer model.Role
			if studentToken != "" {
				if _, ok := a.sessions.Admin(); !ok {
					return apperrors.NoSession("admin")
				}
				client = sync.NewAdminClient(a.api, a.sessions, studentToken, a.cfg.SendRetries)
				viewer = model.RoleAdmin
			} else {
				if _, ok := a.sessions.Student(); !ok {
					return apperrors.NoSession("student")
				}
				client = sync.NewStudentClient(a.api, a.sessions, a.cfg.SendRetries)
				viewer = model.RoleStudent
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "type a message and press enter, /quit to leave")

			p := poller.New(client, a.cfg.PollInterval())
			p.Start()
			defer p.Stop()

			r := &renderer{out: out, viewer: viewer}
			renderDone := make(chan struct{})
			go func() {
				defer close(renderDone)
				ticker := time.NewTicker(200 * time.Millisecond)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						r.render(client.Snapshot())
					}
				}
			}()
			defer func() {
				cancel()
				<-renderDone
			}()

			lines := make(chan string)
			go func() {
				defer close(lines)
				scanner := bufio.NewScanner(cmd.InOrStdin())
				for scanner.Scan() {
					lines <- scanner.Text()
				}
			}()

			for {
				select {
				case <-ctx.Done():
					return nil
				case line, ok := <-lines:
					if !ok || strings.TrimSpace(line) == "/quit" {
						return nil
					}
					if strings.TrimSpace(line) == "" {
						continue
					}
					restore, err := client.Send(ctx, line)
					if err != nil {
						fmt.Fprintf(out, "! send failed (%v)\n", err)
						if restore != "" {
							fmt.Fprintf(out, "! your draft: %s\n", restore)
						}
					}
				}
			}
		},
	}

	cmd.Flags().StringVar(&studentToken, "student", "", "student token (admin only)")
	return cmd
}

// renderer prints the conversation incrementally: appended messages print as
// new lines, anything else triggers a full redraw.
type renderer struct {
	out      io.Writer
	viewer   model.Role
	last     []model.Message
	rendered bool
}

func (r *renderer) render(snap sync.Snapshot) {
	if !snap.Fetched && len(snap.Messages) == 0 {
		return
	}
	if !r.rendered {
		r.rendered = true
		if snap.Absent {
			fmt.Fprintln(r.out, "(no messages yet, say hello)")
		}
	}

	if r.isExtension(snap.Messages) {
		for _, m := range snap.Messages[len(r.last):] {
			r.printMessage(m)
		}
	} else {
		fmt.Fprintln(r.out, "--- conversation updated ---")
		for _, m := range snap.Messages {
			r.printMessage(m)
		}
	}
	r.last = snap.Messages
}

func (r *renderer) isExtension(msgs []model.Message) bool {
	if len(msgs) < len(r.last) {
		return false
	}
	for i, m := range r.last {
		if msgs[i].Content != m.Content || msgs[i].Direction != m.Direction {
			return false
		}
	}
	return true
}

func (r *renderer) printMessage(m model.Message) {
	who := "them"
	if m.Direction.Mine(r.viewer) {
		who = "you"
	}
	stamp := ""
	if !m.SentAt.IsZero() {
		stamp = m.SentAt.Local().Format("15:04 ")
	}
	fmt.Fprintf(r.out, "%s[%s] %s\n", stamp, who, m.Content)
}
