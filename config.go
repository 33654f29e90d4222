package actor

import (
	"fmt"
	"os"
	"time"

	"github.com/multiformats/go-multiaddr"
)

// Config holds the configuration for bootstrapping a wsnet-backed actor.
type Config struct {
	// ListenAddress is the multiaddr this actor listens on.
	// Fallback: ACTOR_LISTEN_ADDRESS environment variable.
	ListenAddress string

	// PeerSeed is a string identifying this actor's peer.ID, mainly for
	// tests and examples that need a stable peer.ID across restarts.
	// resolveConfig generates no identity: if neither this field nor the
	// environment sets it, it stays empty.
	// Fallback: ACTOR_PEER_SEED environment variable.
	PeerSeed string

	// DialTimeout bounds how long wsnet waits to establish an outbound
	// connection to a peer before giving up.
	// Fallback: ACTOR_DIAL_TIMEOUT environment variable (Go duration syntax).
	DialTimeout time.Duration
}

const defaultDialTimeout = 10 * time.Second

// ResolveConfig fills empty fields from environment variables, applies
// defaults, validates required fields, and parses ListenAddress into a
// multiaddr.Multiaddr.
func ResolveConfig(cfg Config) (Config, multiaddr.Multiaddr, error) {
	return resolveConfig(cfg)
}

func resolveConfig(cfg Config) (Config, multiaddr.Multiaddr, error) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = os.Getenv("ACTOR_LISTEN_ADDRESS")
	}
	if cfg.PeerSeed == "" {
		cfg.PeerSeed = os.Getenv("ACTOR_PEER_SEED")
	}
	if cfg.DialTimeout == 0 {
		if raw := os.Getenv("ACTOR_DIAL_TIMEOUT"); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return cfg, nil, fmt.Errorf("ACTOR_DIAL_TIMEOUT: %w", err)
			}
			cfg.DialTimeout = d
		}
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaultDialTimeout
	}

	if cfg.ListenAddress == "" {
		return cfg, nil, fmt.Errorf("ListenAddress is required (set in Config or ACTOR_LISTEN_ADDRESS env)")
	}

	addr, err := multiaddr.NewMultiaddr(cfg.ListenAddress)
	if err != nil {
		return cfg, nil, fmt.Errorf("invalid ListenAddress %q: %w", cfg.ListenAddress, err)
	}

	return cfg, addr, nil
}
