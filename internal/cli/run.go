package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tessro/syncstream/internal/core"
	"github.com/tessro/syncstream/internal/discovery"
	syncerrors "github.com/tessro/syncstream/internal/errors"
	"github.com/tessro/syncstream/internal/media"
	"github.com/tessro/syncstream/internal/player"
	"github.com/tessro/syncstream/internal/session"
	"github.com/tessro/syncstream/internal/tui"
	"github.com/tessro/syncstream/internal/wizard"
)

// nodeID builds the identity announced on the wire. Hostname plus pid keeps
// two nodes on one machine distinguishable during testing.
func nodeID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "node"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

// sessionLogger routes the session log. With the dashboard on screen, stderr
// would corrupt the UI, so logs go to the configured file or nowhere.
func sessionLogger(uiActive bool) (*log.Logger, func(), error) {
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return log.New(f, "", log.LstdFlags), func() { f.Close() }, nil
	}
	if uiActive {
		return log.New(io.Discard, "", 0), func() {}, nil
	}
	return log.New(os.Stderr, "", log.LstdFlags), func() {}, nil
}

// runSession wires the socket, engine and UI together for either role and
// blocks until the session ends.
func runSession(role core.Role) error {
	tracks, err := media.Scan(cfg.Media.Dir)
	if err != nil {
		return err
	}

	useUI := !noUI && wizard.IsTerminal()

	if role == core.RoleLeader && useUI {
		tracks, err = wizard.PromptTracks(tracks)
		if err != nil {
			return err
		}
		if len(tracks) == 0 {
			return syncerrors.ErrNoTracks
		}
	}

	logger, closeLog, err := sessionLogger(useUI)
	if err != nil {
		return err
	}
	defer closeLog()

	id := nodeID()
	sock, err := discovery.Listen(cfg.Network.Port, cfg.Network.BroadcastAddr, id, logger)
	if err != nil {
		return err
	}
	defer sock.Close()

	engine, err := session.New(session.Options{
		NodeID:        id,
		Role:          role,
		Tracks:        tracks,
		Player:        player.NewSilent(),
		Transport:     sock,
		Packets:       sock.Packets(),
		Logger:        logger,
		Heartbeat:     cfg.Network.Heartbeat(),
		Stale:         cfg.Network.Stale(),
		Departed:      cfg.Network.Departed(),
		RetryInterval: cfg.Network.DiscoveryRetry(),
		RetryCount:    cfg.Network.DiscoveryRetryCount,
		EpsilonSoft:   cfg.Sync.Soft(),
		EpsilonHard:   cfg.Sync.Hard(),
		DedupWindow:   cfg.Sync.DedupWindow,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sock.Run(ctx)

	runErr := make(chan error, 1)
	go func() { runErr <- engine.Run(ctx) }()

	if useUI {
		uiErr := tui.Run(tui.NewApp(engine, cfg.TUI.Refresh()))
		cancel()
		engErr := <-runErr
		if uiErr != nil {
			return uiErr
		}
		if fatal := engine.Err(); fatal != nil {
			return fatal
		}
		if engErr != nil && !errors.Is(engErr, context.Canceled) {
			return engErr
		}
		return nil
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case <-sig:
		cancel()
		<-runErr
		return nil
	case engErr := <-runErr:
		if engErr != nil && !errors.Is(engErr, context.Canceled) {
			return engErr
		}
		return nil
	}
}
