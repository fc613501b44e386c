package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherdeck/weatherdeck/internal/geolocation"
	"github.com/weatherdeck/weatherdeck/internal/session"
)

const helpText = `Commands:
  <city>            search a city
  :units            toggle metric/imperial
  :here <lat> <lon> weather at a position
  :here             use location (refused)
  :refresh          reload the current city
  :recent           list recent searches
  :quit             exit
`

// Config holds configuration for a Console.
type Config struct {
	Session *session.Session
	Out     io.Writer
	Logger  zerolog.Logger

	// Location is used to display times. Defaults to time.Local.
	Location *time.Location
}

// Console reads commands and renders the session after each operation.
// Operations run in the background so input is never blocked by the network;
// results of superseded operations are not rendered.
type Console struct {
	sess   *session.Session
	logger zerolog.Logger
	loc    *time.Location

	outMu sync.Mutex
	out   io.Writer

	wg sync.WaitGroup
}

// New creates a Console.
func New(cfg Config) *Console {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Console{
		sess:   cfg.Session,
		logger: cfg.Logger,
		loc:    loc,
		out:    cfg.Out,
	}
}

// Run reads commands from in until EOF, :quit or ctx is done, then waits
// for in-flight operations to settle.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	defer c.wg.Wait()

	done := make(chan struct{})
	defer close(done)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("reading input: %w", err)
					}
				default:
				}
				return nil
			}
			if !c.Execute(ctx, line) {
				return nil
			}
		}
	}
}

// Execute handles one input line. It returns false when the console should exit.
func (c *Console) Execute(ctx context.Context, line string) bool {
	cmd, err := ParseCommand(line)
	if err != nil {
		c.printf("? %v (type :help)\n", err)
		return true
	}

	switch cmd.Kind {
	case KindNone:
	case KindQuit:
		return false
	case KindHelp:
		c.printf("%s", helpText)
	case KindRecent:
		c.write(func(w io.Writer) { RenderRecent(w, c.sess.RecentSearches()) })
	case KindSearch:
		c.printf("Searching %s...\n", cmd.City)
		c.background(ctx, session.OpSearch, func(ctx context.Context) error {
			return c.sess.SearchCity(ctx, cmd.City)
		})
	case KindUnits:
		c.background(ctx, session.OpToggle, c.sess.ToggleUnit)
	case KindRefresh:
		c.background(ctx, session.OpRefresh, c.sess.Refresh)
	case KindLocate:
		c.background(ctx, session.OpLocate, func(ctx context.Context) error {
			return c.sess.UseLocation(ctx, geolocation.Fixed(cmd.Coords))
		})
	case KindLocateDenied:
		c.background(ctx, session.OpLocate, func(ctx context.Context) error {
			return c.sess.UseLocation(ctx, geolocation.Denied())
		})
	}
	return true
}

// Wait blocks until all background operations have settled.
func (c *Console) Wait() {
	c.wg.Wait()
}

// background runs op and renders the session when it settles, unless a newer
// operation superseded it.
func (c *Console) background(ctx context.Context, name string, op func(context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		err := op(ctx)
		if errors.Is(err, session.ErrSuperseded) {
			c.logger.Debug().Str("operation", name).Msg("superseded")
			return
		}
		if err != nil {
			c.logger.Debug().Err(err).Str("operation", name).Msg("operation failed")
		}
		c.write(func(w io.Writer) { Render(w, c.sess.State(), c.loc) })
	}()
}

func (c *Console) printf(format string, args ...interface{}) {
	c.write(func(w io.Writer) { fmt.Fprintf(w, format, args...) })
}

func (c *Console) write(fn func(io.Writer)) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fn(c.out)
}
