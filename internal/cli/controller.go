// Package cli is the interactive console layer: it parses typed commands,
// calls into the core services, and renders results. It also implements the
// sweeper's delivery callback for the currently active session.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"shortlink/internal/config"
	"shortlink/internal/entity"
	"shortlink/internal/service"
)

// Controller reads commands from in and writes results to out. One command
// is handled at a time; the only concurrency it faces is the sweeper calling
// Deliver, which touches the session under the controller's mutex.
type Controller struct {
	links  *service.LinkService
	owners *service.OwnerService
	notifs *service.NotificationService
	cfg    *config.Config
	in     io.Reader
	out    io.Writer
	logger zerolog.Logger

	mu      sync.Mutex
	session uuid.UUID
	active  bool
}

func NewController(
	links *service.LinkService,
	owners *service.OwnerService,
	notifs *service.NotificationService,
	cfg *config.Config,
	in io.Reader,
	out io.Writer,
	logger zerolog.Logger,
) *Controller {
	return &Controller{
		links:  links,
		owners: owners,
		notifs: notifs,
		cfg:    cfg,
		in:     in,
		out:    out,
		logger: logger,
	}
}

// Run reads input lines until the context is cancelled, input ends, or the
// exit command is entered.
func (c *Controller) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, "Short link service is running.")
	fmt.Fprintln(c.out, "Type help for the command list. Any other input is treated as a short URL to follow.")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := c.route(line); quit {
				return nil
			}
		}
	}
}

// route parses one input line and dispatches it. Returns true on exit.
func (c *Controller) route(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "login":
		c.handleLogin(args)
	case "logout":
		c.handleLogout()
	case "shorten":
		c.handleShorten(args)
	case "list":
		c.handleList()
	case "stats":
		c.handleStats(args)
	case "manage":
		c.handleManage(args)
	case "delete":
		c.handleDelete(args)
	case "help":
		c.handleHelp()
	case "exit":
		fmt.Fprintln(c.out, "Shutting down, state will be saved.")
		return true
	default:
		c.handleRedirect(strings.TrimSpace(line))
	}
	return false
}

// Deliver implements the sweeper delivery callback: it pulls the unread
// notifications for the active session, renders them, and marks them
// delivered. Without an active session it is a no-op.
func (c *Controller) Deliver() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active {
		return
	}
	unread := c.notifs.UnreadFor(c.session)
	if len(unread) == 0 {
		return
	}

	fmt.Fprintf(c.out, "You have %d notification(s):\n", len(unread))
	for _, n := range unread {
		link := n.Link()
		switch n.Kind() {
		case entity.NotificationExpired:
			fmt.Fprintf(c.out, "  - %s%s expired and was removed (destination was %s)\n",
				c.cfg.BaseURL, link.ShortID, link.OriginalURL)
		case entity.NotificationLimitReached:
			fmt.Fprintf(c.out, "  - %s%s reached its usage limit of %d\n",
				c.cfg.BaseURL, link.ShortID, link.UsageLimit)
		}
	}
	c.notifs.MarkDelivered(unread)
}

// currentSession returns the active owner token, if any.
func (c *Controller) currentSession() (uuid.UUID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session, c.active
}

func (c *Controller) setSession(token uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = token
	c.active = true
}

func (c *Controller) clearSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = uuid.UUID{}
	c.active = false
}

// splitShortURL strips the service base URL (or a recognized legacy base URL)
// from a full short link, leaving the short code.
func (c *Controller) splitShortURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if code, ok := strings.CutPrefix(raw, c.cfg.BaseURL); ok && code != "" {
		return code, true
	}
	for _, legacy := range c.cfg.LegacyBaseURLs {
		if code, ok := strings.CutPrefix(raw, legacy); ok && code != "" {
			return code, true
		}
	}
	return "", false
}

func (c *Controller) shortURL(code string) string {
	return c.cfg.BaseURL + code
}
