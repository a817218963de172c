package domain

import "fmt"

// ServerMode decides who owns the voice backend lifecycle. In shared mode a
// host process starts and stops the backend and the engine's own lifecycle
// operations are unsupported.
type ServerMode string

const (
	ModeExclusive ServerMode = "exclusive"
	ModeShared    ServerMode = "shared"
)

func ParseServerMode(s string) (ServerMode, error) {
	switch ServerMode(s) {
	case ModeExclusive, ModeShared:
		return ServerMode(s), nil
	case "":
		return ModeExclusive, nil
	}
	return "", fmt.Errorf("%w: unknown server mode %q", ErrInvalidArgument, s)
}
