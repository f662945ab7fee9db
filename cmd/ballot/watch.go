package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/alfredjeanlab/ballot/internal/events"
	"github.com/alfredjeanlab/ballot/internal/model"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Print events as they are created or receive votes",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		once, _ := cmd.Flags().GetBool("once")
		natsURL, _ := cmd.Flags().GetString("nats")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		w := &watcher{out: cmd.OutOrStdout(), seen: make(map[model.EventID]int64)}
		if err := w.refresh(ctx); err != nil {
			return err
		}
		if once {
			return nil
		}

		if natsURL == "" {
			natsURL = os.Getenv("BALLOT_NATS_URL")
		}
		if natsURL == "" {
			natsURL = activeProfile().NATSURL
		}
		if natsURL != "" {
			return w.watchNATS(ctx, natsURL)
		}
		return w.watchPoll(ctx, interval)
	},
}

// watcher prints events whose vote count changed since the last refresh.
type watcher struct {
	out  io.Writer
	seen map[model.EventID]int64
}

// watchNATS re-queries on bus notifications with a short debounce.
func (w *watcher) watchNATS(ctx context.Context, natsURL string) error {
	// Re-query immediately after a reconnect to catch missed notifications.
	reconnectCh := make(chan struct{}, 1)

	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats: disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("nats: reconnected")
			select {
			case reconnectCh <- struct{}{}:
			default:
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(events.TopicAll)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer cancel()

	debounce := time.NewTimer(0)
	debounce.Stop()
	select {
	case <-debounce.C:
	default:
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-ch:
			if !ok {
				return nil
			}
			if _, err := n.Decode(); err != nil {
				log.Printf("nats: ignoring notice: %v", err)
				continue
			}
			debounce.Reset(200 * time.Millisecond)
		case <-reconnectCh:
			debounce.Reset(0)
		case <-debounce.C:
			if err := w.refresh(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *watcher) watchPoll(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
		if err := w.refresh(ctx); err != nil {
			return err
		}
	}
}

func (w *watcher) refresh(ctx context.Context) error {
	list, err := ledgerClient.ListEvents(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("listing events: %w", err)
	}
	changed := diffEvents(list, w.seen)
	if len(changed) == 0 {
		return nil
	}
	if jsonOutput {
		return printJSON(w.out, changed)
	}
	printEventListTable(w.out, changed)
	return nil
}

// diffEvents returns events that are new or whose vote count differs from
// the seen map, and updates seen in place. Vote counts only grow, so a
// changed count is the only change an event can undergo.
func diffEvents(list []model.Event, seen map[model.EventID]int64) []model.Event {
	var changed []model.Event
	for _, e := range list {
		prev, ok := seen[e.ID]
		if !ok || prev != e.TotalVotes {
			changed = append(changed, e)
		}
		seen[e.ID] = e.TotalVotes
	}
	return changed
}

func init() {
	watchCmd.Flags().Duration("interval", 5*time.Second, "poll interval when NATS is unavailable")
	watchCmd.Flags().Bool("once", false, "print the current events and exit")
	watchCmd.Flags().String("nats", "", "NATS URL (defaults to BALLOT_NATS_URL or the active remote)")
}
