// Command hubtc-chat is a terminal client for the portal chat API: it mints
// development tokens, lists conversations and runs a live conversation view.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/urfave/cli/v2"

	"github.com/hubtc/portal/internal/app/models"
	"github.com/hubtc/portal/internal/app/models/dto"
	"github.com/hubtc/portal/internal/bootstrap"
	"github.com/hubtc/portal/internal/chatsync"
	"github.com/hubtc/portal/internal/config"
	"github.com/hubtc/portal/internal/pkg/auth"
	"github.com/hubtc/portal/internal/pkg/helpers"
	"github.com/hubtc/portal/internal/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "hubtc-chat",
		Usage: "talk to the HubTC portal chat API from a terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api", Value: "http://localhost:8080/api/v1", EnvVars: []string{"HUBTC_API_URL"}, Usage: "API base URL"},
			&cli.StringFlag{Name: "token", EnvVars: []string{"HUBTC_TOKEN"}, Usage: "session token (see the token command)"},
			&cli.StringFlag{Name: "log-level", Value: "warn", EnvVars: []string{"LOG_LEVEL"}},
		},
		Before: func(c *cli.Context) error {
			logger.Configure(logger.Config{
				Level:  logger.LogLevel(c.String("log-level")),
				Pretty: true,
				Output: os.Stderr,
			})
			return nil
		},
		Commands: []*cli.Command{
			tokenCommand(),
			conversationsCommand(),
			watchCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "mint a development session token with the configured JWT secret",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "user", Required: true, Usage: "user id"},
			&cli.StringFlag{Name: "email", Usage: "email claim"},
			&cli.StringFlag{Name: "config", Value: bootstrap.ConfigPath(), Usage: "configuration file"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return err
			}
			jwtService := auth.NewJWTService(auth.JWTConfig{
				SecretKey:      cfg.JWT.Secret,
				AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 12*time.Hour),
				TokenIssuer:    cfg.JWT.Issuer,
			})
			token, expiresIn, err := jwtService.GenerateAccessToken(&models.User{
				ID:       c.Int64("user"),
				Email:    c.String("email"),
				RoleType: models.RoleEmployee,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, token)
			fmt.Fprintf(c.App.ErrWriter, "valid for %s\n", time.Duration(expiresIn)*time.Second)
			return nil
		},
	}
}

func conversationsCommand() *cli.Command {
	return &cli.Command{
		Name:  "conversations",
		Usage: "list your conversations",
		Action: func(c *cli.Context) error {
			client, err := newClient(c)
			if err != nil {
				return err
			}
			conversations, err := client.ListConversations(c.Context)
			if err != nil {
				return err
			}
			for _, conv := range conversations {
				fmt.Fprintln(c.App.Writer, conversationLine(conv))
			}
			return nil
		},
	}
}

func conversationLine(conv chatsync.Conversation) string {
	title := ""
	if conv.Name != nil {
		title = *conv.Name
	}
	if title == "" {
		for i, p := range conv.Participants {
			if i > 0 {
				title += ", "
			}
			title += p.FirstName + " " + p.LastName
		}
	}
	line := fmt.Sprintf("%4d  %s", conv.ID, title)
	if conv.Settings.IsMuted {
		line += "  (muted)"
	}
	if conv.LastMessage != nil {
		line += "  | " + chatsync.Body(*conv.LastMessage)
	}
	return line
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "open a conversation: poll for changes and send what you type",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "conversation", Aliases: []string{"c"}, Required: true},
			&cli.DurationFlag{Name: "poll", Value: 3 * time.Second, Usage: "snapshot poll interval"},
			&cli.DurationFlag{Name: "typing-debounce", Value: 2 * time.Second},
			&cli.BoolFlag{Name: "stream", Value: true, Usage: "also listen to the websocket change stream"},
		},
		Action: func(c *cli.Context) error {
			client, err := newClient(c)
			if err != nil {
				return err
			}
			userID, err := tokenUserID(c.String("token"))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			v := &view{out: c.App.Writer, rendered: map[int64]string{}}
			session := chatsync.NewSession(client, c.Int64("conversation"), userID, chatsync.SessionConfig{
				PollInterval:   c.Duration("poll"),
				TypingDebounce: c.Duration("typing-debounce"),
				OnChange:       v.refresh,
			}, logger.Component("session"))
			v.session = session

			go session.Run(ctx)
			if c.Bool("stream") {
				stream, err := chatsync.NewStream(client, session, logger.Component("stream"))
				if err != nil {
					return err
				}
				go stream.Run(ctx)
			}

			fmt.Fprintln(c.App.Writer, "type /help for commands")
			return readLoop(ctx, os.Stdin, client, session, v)
		},
	}
}

func newClient(c *cli.Context) (*chatsync.Client, error) {
	token := c.String("token")
	if token == "" {
		return nil, errors.New("a session token is required (--token or HUBTC_TOKEN)")
	}
	return chatsync.NewClient(c.String("api"), token, logger.Component("client")), nil
}

// tokenUserID reads the user id claim. The server verifies the token; the client only needs to know who it is.
func tokenUserID(token string) (int64, error) {
	claims := &auth.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return 0, fmt.Errorf("unreadable token: %w", err)
	}
	if claims.UserID <= 0 {
		return 0, errors.New("token carries no user id")
	}
	return claims.UserID, nil
}

// view prints messages whose rendering changed since the last refresh
type view struct {
	mu       sync.Mutex
	out      io.Writer
	session  *chatsync.Session
	rendered map[int64]string
	typing   string
}

func (v *view) refresh() {
	v.mu.Lock()
	defer v.mu.Unlock()

	messages := v.session.Messages()
	for _, m := range messages {
		line := chatsync.Line(messages, m)
		if v.rendered[m.ID] == line {
			continue
		}
		v.rendered[m.ID] = line
		fmt.Fprintln(v.out, line)
	}

	if typing := chatsync.TypingLine(v.session.TypingUsers()); typing != v.typing {
		v.typing = typing
		if typing != "" {
			fmt.Fprintln(v.out, "  ..."+typing)
		}
	}
}

func (v *view) printf(format string, args ...interface{}) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, format+"\n", args...)
}

func readLoop(ctx context.Context, in io.Reader, client *chatsync.Client, session *chatsync.Session, v *view) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			cmd, err := parseCommand(line)
			if err != nil {
				v.printf("! %v", err)
				continue
			}
			if cmd.name == "quit" {
				return nil
			}
			if err := execute(ctx, cmd, client, session, v); err != nil {
				v.printf("! %s", describe(err))
			}
		}
	}
}

func execute(ctx context.Context, cmd command, client *chatsync.Client, session *chatsync.Session, v *view) error {
	switch cmd.name {
	case "send":
		content := cmd.arg
		_, err := session.Send(ctx, dto.SendMessageRequest{Content: &content})
		return err
	case "reply":
		_, err := session.Reply(ctx, cmd.messageID, cmd.arg)
		return err
	case "edit":
		_, err := session.Edit(ctx, cmd.messageID, cmd.arg)
		return err
	case "delete":
		return session.Delete(ctx, cmd.messageID)
	case "react":
		_, err := session.React(ctx, cmd.messageID, cmd.arg)
		return err
	case "unreact":
		return session.RemoveReaction(ctx, cmd.messageID, cmd.arg)
	case "jump":
		if i, ok := session.Locate(cmd.messageID); ok {
			messages := session.Messages()
			v.printf("> %s", chatsync.Line(messages, messages[i]))
		}
		return nil
	case "typing":
		_, err := session.Typing(ctx)
		return err
	case "mute", "unmute":
		settings, err := client.SetMuted(ctx, session.ConversationID(), cmd.name == "mute")
		if err != nil {
			return err
		}
		v.printf("muted: %t", settings.IsMuted)
		return nil
	case "pause":
		session.Pause()
		return nil
	case "resume":
		session.Resume()
		return nil
	case "help":
		v.printf("%s", helpText)
		return nil
	}
	return fmt.Errorf("unhandled command %s", cmd.name)
}

// describe turns an API failure into a one-line notice
func describe(err error) string {
	var apiErr *chatsync.APIError
	switch {
	case errors.As(err, &apiErr) && chatsync.IsValidation(err):
		return apiErr.Message
	case chatsync.IsNotFound(err):
		return "not found: " + err.Error()
	case chatsync.IsTransient(err):
		return "could not reach the server, try again: " + err.Error()
	default:
		return err.Error()
	}
}
