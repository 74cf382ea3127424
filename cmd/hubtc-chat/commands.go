package main

import (
	"fmt"
	"strconv"
	"strings"
)

// command is one parsed stdin line of the watch loop
type command struct {
	name      string
	messageID int64
	arg       string
}

// commands that take a message id, and whether they need trailing text
var messageCommands = map[string]bool{
	"edit":    true,
	"reply":   true,
	"react":   true,
	"unreact": true,
	"delete":  false,
	"jump":    false,
}

var bareCommands = map[string]bool{
	"typing": true,
	"mute":   true,
	"unmute": true,
	"pause":  true,
	"resume": true,
	"quit":   true,
	"help":   true,
}

// parseCommand turns a line into a command. Lines not starting with "/" are sent as messages.
func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return command{}, fmt.Errorf("empty line")
	}
	if !strings.HasPrefix(line, "/") {
		return command{name: "send", arg: line}, nil
	}

	fields := strings.SplitN(line[1:], " ", 3)
	name := strings.ToLower(fields[0])

	if bareCommands[name] {
		return command{name: name}, nil
	}

	needsText, ok := messageCommands[name]
	if !ok {
		return command{}, fmt.Errorf("unknown command /%s, try /help", name)
	}
	if len(fields) < 2 {
		return command{}, fmt.Errorf("/%s needs a message id", name)
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || id <= 0 {
		return command{}, fmt.Errorf("invalid message id %q", fields[1])
	}

	cmd := command{name: name, messageID: id}
	if needsText {
		if len(fields) < 3 || strings.TrimSpace(fields[2]) == "" {
			return command{}, fmt.Errorf("/%s needs text after the message id", name)
		}
		cmd.arg = strings.TrimSpace(fields[2])
	}
	return cmd, nil
}

const helpText = `Type a line to send it. Commands:
  /reply ID text    reply to a message
  /edit ID text     edit one of your messages
  /delete ID        delete one of your messages
  /react ID emoji   toggle a reaction
  /unreact ID emoji remove a reaction
  /jump ID          show a loaded message
  /typing           signal that you are typing
  /mute, /unmute    toggle notifications for this conversation
  /pause, /resume   stop or restart polling
  /quit`
