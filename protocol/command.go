package protocol

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var ErrUnknownMessage = errors.New("unknown message ID")

// CommandHandler handles one message. It decodes its own arguments from data
// and must leave data positioned after them.
type CommandHandler func(data *[]byte) error

// Command describes one message in the dictionary
type Command struct {
	ID      MessageID
	Name    string
	Format  string // e.g. "pin=%u level=%c"
	Args    int
	Handler CommandHandler
}

// CommandRegistry maps message IDs to their description and handler.
// A registry returned by NewCommandRegistry already knows every pin message.
type CommandRegistry struct {
	mu       sync.RWMutex
	commands []*Command
	nameToID map[string]MessageID
}

// NewCommandRegistry returns a registry holding the pin message set
func NewCommandRegistry() *CommandRegistry {
	r := &CommandRegistry{nameToID: make(map[string]MessageID)}
	for _, m := range messages {
		r.register(m.name, m.format)
	}
	return r
}

func (r *CommandRegistry) register(name, format string) MessageID {
	id := MessageID(len(r.commands))
	r.commands = append(r.commands, &Command{
		ID:     id,
		Name:   name,
		Format: format,
		Args:   strings.Count(format, "%"),
	})
	r.nameToID[name] = id
	return id
}

// Handle attaches a handler to a registered message
func (r *CommandRegistry) Handle(id MessageID, h CommandHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if int(id) >= len(r.commands) {
		return fmt.Errorf("%w: %d", ErrUnknownMessage, id)
	}
	r.commands[id].Handler = h
	return nil
}

// Lookup returns the message registered under name
func (r *CommandRegistry) Lookup(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.nameToID[name]
	if !ok {
		return nil, false
	}
	return r.commands[id], true
}

// Command returns the message with the given ID
func (r *CommandRegistry) Command(id MessageID) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.commands) {
		return nil, false
	}
	return r.commands[id], true
}

// Count returns the number of registered messages
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch decodes the message ID at the front of data and runs its handler
func (r *CommandRegistry) Dispatch(data *[]byte) error {
	raw, err := DecodeVLQUint(data)
	if err != nil {
		return err
	}
	cmd, ok := r.Command(MessageID(raw))
	if !ok || cmd.Handler == nil {
		return fmt.Errorf("%w: %d", ErrUnknownMessage, raw)
	}
	return cmd.Handler(data)
}

// DecodeArgs decodes the message at the front of data into its ID and
// arguments, using the registered format to know how many to read.
func (r *CommandRegistry) DecodeArgs(data *[]byte) (MessageID, []uint32, error) {
	raw, err := DecodeVLQUint(data)
	if err != nil {
		return 0, nil, err
	}
	cmd, ok := r.Command(MessageID(raw))
	if !ok {
		return 0, nil, fmt.Errorf("%w: %d", ErrUnknownMessage, raw)
	}
	args := make([]uint32, cmd.Args)
	for i := range args {
		if args[i], err = DecodeVLQUint(data); err != nil {
			return 0, nil, fmt.Errorf("%s: %w", cmd.Name, err)
		}
	}
	return cmd.ID, args, nil
}

// Dictionary returns one "name format" line per message in ID order
func (r *CommandRegistry) Dictionary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b strings.Builder
	for _, cmd := range r.commands {
		b.WriteString(cmd.Name)
		if cmd.Format != "" {
			b.WriteByte(' ')
			b.WriteString(cmd.Format)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
