package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/loom-ui/loom/v2/internal/config"
	"github.com/loom-ui/loom/v2/internal/diag"
	"github.com/loom-ui/loom/v2/pkg/devtools"
	"github.com/loom-ui/loom/v2/pkg/memdom"
	"github.com/loom-ui/loom/v2/pkg/patch"
	"github.com/loom-ui/loom/v2/pkg/reactive"
	"github.com/loom-ui/loom/v2/pkg/vdom"
)

func inspectCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Run a demo render loop with the devtools server",
		Long: `Drive a small reactive counter through the render loop and expose
metrics and the live patch stream per the loom.json devtools settings.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			cfg, err := config.Load(wd)
			if err != nil {
				return err
			}
			return runInspect(cfg, interval)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Mutation interval")

	return cmd
}

func runInspect(cfg *config.Config, interval time.Duration) error {
	diag.DevMode = cfg.Dev
	reactive.SetMaxUpdateCount(cfg.MaxUpdateCount)

	metrics := devtools.NewMetrics(devtools.WithNamespace(cfg.Devtools.Namespace))
	reactive.SetFlushObserver(metrics.FlushObserver())

	var srv *devtools.Server
	trace := metrics.PatchTrace()
	if cfg.Devtools.Enabled {
		srv = devtools.NewServer(cfg.Devtools.Addr)
		stream := srv.PatchTrace()
		inner := trace
		trace = func(op patch.Op) {
			inner(op)
			stream(op)
		}
		go func() {
			if err := srv.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "devtools server: %v\n", err)
			}
		}()
		fmt.Printf("devtools listening on http://%s\n", cfg.Devtools.Addr)
	}

	state := reactive.NewObject(map[string]any{
		"count": 0,
		"items": reactive.NewArray(nil),
	})

	p := patch.NewPatcher(memdom.Ops{},
		patch.WithModules(memdom.AttrsModule()),
		patch.WithTrace(trace),
	)
	r := patch.NewRenderer(p, func() *vdom.VNode {
		count := state.Get("count").(int)
		items := state.Get("items").(*reactive.Array)
		children := []*vdom.VNode{
			vdom.New("h1", nil, vdom.NewTextf("count: %d", count)),
		}
		lis := make([]*vdom.VNode, 0, items.Len())
		for i := 0; i < items.Len(); i++ {
			li := vdom.New("li", nil, vdom.NewTextf("%v", items.Get(i)))
			li.Key = items.Get(i)
			lis = append(lis, li)
		}
		children = append(children, vdom.New("ul", nil, lis...))
		return vdom.New("div", &vdom.Data{Attrs: map[string]any{"class": "app"}}, children...)
	})

	root := memdom.NewElement("body")
	r.Mount(root)
	defer r.Destroy()
	fmt.Println(root.HTML())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			reactive.Batch(func() {
				n := state.Get("count").(int) + 1
				state.Set("count", n)
				items := state.Get("items").(*reactive.Array)
				items.Push(n)
				if items.Len() > 10 {
					items.Shift()
				}
			})
			fmt.Println(root.HTML())
		case <-stop:
			if srv != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			}
			return nil
		}
	}
}
