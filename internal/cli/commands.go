package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"shortlink/internal/entity"
)

const timeLayout = "Mon 02.01.2006 15:04"

func (c *Controller) handleLogin(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: login your_token")
		return
	}
	token, err := uuid.Parse(args[0])
	if err != nil {
		fmt.Fprintln(c.out, "The token is not a valid UUID.")
		return
	}
	if _, ok := c.owners.Get(token); !ok {
		fmt.Fprintln(c.out, "Unknown token. Use shorten to get a token together with your first link.")
		return
	}
	c.setSession(token)
	fmt.Fprintf(c.out, "Logged in as %s.\n", token)
}

func (c *Controller) handleLogout() {
	c.clearSession()
	fmt.Fprintln(c.out, "Logged out.")
}

func (c *Controller) handleShorten(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: shorten URL_to_shorten (include the protocol)")
		return
	}

	var owner *entity.Owner
	isNew := false
	if token, ok := c.currentSession(); ok {
		if existing, found := c.owners.Get(token); found {
			owner = existing
		}
	}
	if owner == nil {
		owner = c.owners.Issue()
		isNew = true
	}

	draft, err := c.links.NewDraft(args[0], owner.Token())
	if err != nil {
		c.renderError(err)
		return
	}
	if err := c.owners.AcquireSlot(owner); err != nil {
		fmt.Fprintln(c.out, "You reached the maximum number of active links per owner. Delete old links first.")
		return
	}
	link, err := c.links.Publish(draft)
	if err != nil {
		c.owners.ReleaseSlot(owner.Token())
		c.renderError(err)
		return
	}

	if isNew {
		c.setSession(owner.Token())
		fmt.Fprintf(c.out, "Your new owner token (keep it to manage your links): %s\n", owner.Token())
	}
	fmt.Fprintf(c.out, "Short link for %s: %s\n", link.OriginalURL(), c.shortURL(link.ShortID()))
}

func (c *Controller) handleList() {
	token, ok := c.currentSession()
	if !ok {
		fmt.Fprintln(c.out, "Log in first: login your_token")
		return
	}
	links := c.links.LinksByOwner(token)
	if len(links) == 0 {
		fmt.Fprintln(c.out, "You have no active links.")
		return
	}
	for _, link := range links {
		fmt.Fprintf(c.out, "%s -> %s (created %s, expires %s)\n",
			c.shortURL(link.ShortID()), link.OriginalURL(),
			link.CreatedAt().Format(timeLayout), link.ExpiresAt().Format(timeLayout))
	}
}

func (c *Controller) handleStats(args []string) {
	token, ok := c.currentSession()
	if !ok {
		fmt.Fprintln(c.out, "Log in first: login your_token")
		return
	}

	links := c.links.LinksByOwner(token)
	if len(args) == 1 {
		code, recognized := c.splitShortURL(args[0])
		if !recognized {
			fmt.Fprintln(c.out, "The given URL was not created by this service.")
			return
		}
		filtered := links[:0:0]
		for _, link := range links {
			if link.ShortID() == code {
				filtered = append(filtered, link)
			}
		}
		if len(filtered) == 0 {
			fmt.Fprintln(c.out, "No such active link among your links.")
			return
		}
		links = filtered
	}

	for _, link := range links {
		fmt.Fprintf(c.out, "%s: %d/%d uses, expires %s\n",
			c.shortURL(link.ShortID()), link.UsageCount(), link.UsageLimit(),
			link.ExpiresAt().Format(timeLayout))
	}
}

func (c *Controller) handleManage(args []string) {
	if len(args) != 4 || args[1] != "set" {
		fmt.Fprintln(c.out, "Usage: manage short_URL set limit|original_url|ttl value")
		return
	}
	token, ok := c.currentSession()
	if !ok {
		fmt.Fprintln(c.out, "Log in first: login your_token")
		return
	}
	code, recognized := c.splitShortURL(args[0])
	if !recognized {
		fmt.Fprintln(c.out, "The given URL was not created by this service.")
		return
	}

	switch args[2] {
	case "limit":
		newLimit, err := strconv.Atoi(args[3])
		if err != nil {
			fmt.Fprintln(c.out, "The limit value must be a number.")
			return
		}
		if _, err := c.links.SetUsageLimit(code, token, newLimit); err != nil {
			c.renderError(err)
			return
		}
		fmt.Fprintf(c.out, "New usage limit for %s: %d.\n", args[0], newLimit)
	case "original_url":
		if _, err := c.links.SetOriginalURL(code, token, args[3]); err != nil {
			c.renderError(err)
			return
		}
		fmt.Fprintf(c.out, "New destination for %s: %s.\n", args[0], args[3])
	case "ttl":
		units, err := strconv.Atoi(args[3])
		if err != nil {
			fmt.Fprintln(c.out, "The TTL value must be a number of time units.")
			return
		}
		expiresAt, err := c.links.SetExpiration(code, token, units)
		if err != nil {
			c.renderError(err)
			return
		}
		fmt.Fprintf(c.out, "%s now expires at %s.\n", args[0], expiresAt.Format(timeLayout))
	default:
		fmt.Fprintln(c.out, "Unknown parameter. Supported: limit, original_url, ttl.")
	}
}

func (c *Controller) handleDelete(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: delete short_URL")
		return
	}
	token, ok := c.currentSession()
	if !ok {
		fmt.Fprintln(c.out, "Log in first: login your_token")
		return
	}
	code, recognized := c.splitShortURL(args[0])
	if !recognized {
		fmt.Fprintln(c.out, "The given URL was not created by this service.")
		return
	}

	removed, err := c.links.Delete(code, token)
	if err != nil {
		c.renderError(err)
		return
	}
	if removed {
		c.owners.ReleaseSlot(token)
		fmt.Fprintf(c.out, "Deleted %s.\n", args[0])
	} else {
		fmt.Fprintf(c.out, "Nothing to delete for %s.\n", args[0])
	}
}

func (c *Controller) handleRedirect(raw string) {
	code, recognized := c.splitShortURL(raw)
	if !recognized {
		fmt.Fprintln(c.out, "Input was not recognized as a command or a short URL of this service. Type help.")
		return
	}

	dest, err := c.links.Redirect(code)
	if err != nil {
		c.renderError(err)
		return
	}
	fmt.Fprintf(c.out, "Redirecting to %s\n", dest)
}

func (c *Controller) handleHelp() {
	fmt.Fprint(c.out, `Commands:
  shorten URL                                 create a short link (issues a token on first use)
  login TOKEN                                 activate a session for your token
  logout                                      end the session
  list                                        list your active links
  stats [short_URL]                           usage statistics for your links
  manage short_URL set limit N                change the usage limit
  manage short_URL set original_url URL       change the destination
  manage short_URL set ttl N                  move expiry to creation time + N time units
  delete short_URL                            delete a link
  exit                                        save state and quit
Any other input is treated as a short URL to follow.
`)
}

// renderError turns a typed core error into a console message. All core
// errors are recoverable; unknown ones are logged and shown generically.
func (c *Controller) renderError(err error) {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		fmt.Fprintln(c.out, "This short link does not exist or its lifetime is over.")
	case errors.Is(err, entity.ErrNotOwner):
		fmt.Fprintln(c.out, "This link belongs to another token.")
	case errors.Is(err, entity.ErrInvalidOriginalLink):
		fmt.Fprintln(c.out, "The URL is malformed or has an unrecognized scheme. Include the protocol.")
	case errors.Is(err, entity.ErrExhausted):
		fmt.Fprintln(c.out, "The usage limit of this link is exhausted. It will be removed when it expires, or delete it yourself.")
	case errors.Is(err, entity.ErrExpired):
		fmt.Fprintln(c.out, "This link has expired and will be removed shortly.")
	case errors.Is(err, entity.ErrInvalidParameter):
		fmt.Fprintln(c.out, "Invalid value:", err)
	default:
		c.logger.Error().Err(err).Msg("unexpected error")
		fmt.Fprintln(c.out, "Something went wrong, see the log.")
	}
}
