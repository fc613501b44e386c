// Package console is a line-oriented terminal front-end for a single weather session.
package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/weatherdeck/weatherdeck/internal/weather"
)

// ErrUnknownCommand is returned by ParseCommand for an unrecognised ":" command.
var ErrUnknownCommand = errors.New("unknown command")

// Kind identifies a console command.
type Kind int

const (
	KindNone Kind = iota
	KindSearch
	KindUnits
	KindLocate
	KindLocateDenied
	KindRefresh
	KindRecent
	KindHelp
	KindQuit
)

// Command is one parsed input line.
type Command struct {
	Kind   Kind
	City   string
	Coords weather.Coordinates
}

// ParseCommand parses one input line. Anything not starting with ':' is a
// city search; a blank line is KindNone.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{Kind: KindNone}, nil
	}
	if !strings.HasPrefix(line, ":") {
		return Command{Kind: KindSearch, City: line}, nil
	}

	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case ":units", ":u":
		return Command{Kind: KindUnits}, nil
	case ":refresh", ":r":
		return Command{Kind: KindRefresh}, nil
	case ":recent":
		return Command{Kind: KindRecent}, nil
	case ":help", ":h", ":?":
		return Command{Kind: KindHelp}, nil
	case ":quit", ":q", ":exit":
		return Command{Kind: KindQuit}, nil
	case ":here":
		return parseHere(fields[1:])
	default:
		return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, fields[0])
	}
}

// parseHere handles ":here" (location refused) and ":here <lat> <lon>".
func parseHere(args []string) (Command, error) {
	switch len(args) {
	case 0:
		return Command{Kind: KindLocateDenied}, nil
	case 2:
		lat, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return Command{}, fmt.Errorf("invalid latitude %q", args[0])
		}
		lon, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return Command{}, fmt.Errorf("invalid longitude %q", args[1])
		}
		coords := weather.Coordinates{Lat: lat, Lon: lon}
		if err := coords.Validate(); err != nil {
			return Command{}, err
		}
		return Command{Kind: KindLocate, Coords: coords}, nil
	default:
		return Command{}, errors.New("usage: :here [<lat> <lon>]")
	}
}
