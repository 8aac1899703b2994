package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/scott-cotton/cli"
	"github.com/yacchi/propyaml"
	"github.com/yacchi/propyaml/format"
	"github.com/yacchi/propyaml/source/fs"
	"github.com/yacchi/propyaml/watcher"
)

func watch(cfg *WatchConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Watch.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: watch takes exactly one file", cli.ErrUsage)
	}
	src := args[0]
	if _, err := format.Detect(src); err != nil {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conv, p, err := cfg.setup(ctx, cc)
	if err != nil {
		return err
	}

	fetch := func(ctx context.Context) ([]byte, error) {
		return fs.Load(ctx, src)
	}
	var w watcher.Watcher
	if cfg.Poll > 0 {
		w = watcher.NewPolling(fetch, watcher.WithPollInterval(cfg.Poll))
	} else {
		subscribe := func(ctx context.Context, notify watcher.NotifyFunc) (watcher.StopFunc, error) {
			return fs.Subscribe(ctx, src, notify)
		}
		w = watcher.NewSubscription(subscribe, fetch)
	}

	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop(context.Background())

	runWatch(ctx, conv, p, w, src, cfg.Output)
	return nil
}

// runWatch converts src on every result until the watcher ends or ctx is
// done. Failures are reported and watching continues.
func runWatch(ctx context.Context, conv *propyaml.Converter, p *printer, w watcher.Watcher, src, dst string) {
	for {
		select {
		case r, ok := <-w.Results():
			if !ok {
				return
			}
			if r.Err != nil {
				p.failed(src, r.Err)
				continue
			}
			out, err := conv.ConvertFile(ctx, src, dst)
			if err != nil {
				p.failed(src, err)
				continue
			}
			p.converted(src, out)
		case <-ctx.Done():
			return
		}
	}
}
