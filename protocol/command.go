package protocol

import "fmt"

// Op is the operation requested by a client.
type Op int

// Supported operations.
const (
	OpGet Op = iota + 1
	OpSet
)

func (o Op) String() string {
	switch o {
	case OpGet:
		return "get"
	case OpSet:
		return "set"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Command is the parsed form of a client request.
type Command struct {
	Op    Op
	Key   string
	Value string // only set for OpSet
}

// NewGetCommand returns a command that reads the value of key.
func NewGetCommand(key string) Command {
	return Command{Op: OpGet, Key: key}
}

// NewSetCommand returns a command that stores val under key.
func NewSetCommand(key, val string) Command {
	return Command{Op: OpSet, Key: key, Value: val}
}

// FormatGet returns the request line for reading key.
func FormatGet(key string) string {
	return fmt.Sprintf("%s%s HTTP/1.1\r\n\r\n", getPrefix, key)
}

// FormatSet returns the request line for storing val under key.
func FormatSet(key, val string) string {
	return fmt.Sprintf("%s%s=%s HTTP/1.1\r\n\r\n", setPrefix, key, val)
}
