package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/loom-ui/loom/v2/pkg/memdom"
	"github.com/loom-ui/loom/v2/pkg/patch"
	"github.com/loom-ui/loom/v2/pkg/reactive"
	"github.com/loom-ui/loom/v2/pkg/vdom"
)

func benchCmd() *cobra.Command {
	var iters int
	var widths, heights, listSizes []int

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run reactivity and reconciliation benchmarks",
		Long: `Measure dependency propagation through watcher chains and keyed
child-list diffing against the in-memory backend.`,
		Run: func(cmd *cobra.Command, args []string) {
			benchPropagate(iters, widths, heights)
			benchDiff(iters, listSizes)
		},
	}

	cmd.Flags().IntVar(&iters, "iters", 100, "Iterations per benchmark case")
	cmd.Flags().IntSliceVar(&widths, "widths", []int{1, 10, 100}, "Watcher chain counts")
	cmd.Flags().IntSliceVar(&heights, "heights", []int{1, 10, 100}, "Watcher chain depths")
	cmd.Flags().IntSliceVar(&listSizes, "list-sizes", []int{10, 100, 1000}, "Keyed list sizes")

	return cmd
}

// computed builds a lazy watcher over getter and returns a tracked reader
// for it.
func computed(getter func() any) func() any {
	w := reactive.NewWatcher(nil, getter, nil, &reactive.WatcherOptions{Lazy: true})
	return func() any {
		w.EvaluateIfDirty()
		w.Depend()
		return w.Value()
	}
}

func benchPropagate(iters int, widths, heights []int) {
	tbl := table.NewWriter()
	tbl.SetTitle("Propagation")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, w := range widths {
		for _, h := range heights {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			src := reactive.NewObject(map[string]any{"n": 0})
			watchers := make([]*reactive.Watcher, 0, w)
			for i := 0; i < w; i++ {
				read := func() any { return src.Get("n") }
				for j := 0; j < h; j++ {
					prev := read
					read = computed(func() any {
						return prev().(int) + 1
					})
				}
				last := read
				watchers = append(watchers, reactive.NewWatcher(nil, func(any) any {
					return last()
				}, nil, nil))
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				reactive.Batch(func() {
					src.Set("n", i+1)
				})
				tach.AddTime(time.Since(start))
			}

			for _, watcher := range watchers {
				watcher.Teardown()
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	tbl.Render()
}

func benchDiff(iters int, listSizes []int) {
	tbl := table.NewWriter()
	tbl.SetTitle("Keyed child diff")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max", "nodes reused"})

	for _, n := range listSizes {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})

		counting := &memdom.CountingOps{Inner: memdom.Ops{}}
		p := patch.NewPatcher(counting)
		root := memdom.NewElement("div")

		list := func(offset, n int) *vdom.VNode {
			children := make([]*vdom.VNode, n)
			for i := 0; i < n; i++ {
				k := (i + offset) % n
				children[i] = vdom.New("li", &vdom.Data{Attrs: map[string]any{"id": k}},
					vdom.NewTextf("item %d", k))
				children[i].Key = k
			}
			return vdom.New("ul", nil, children...)
		}

		prev := list(0, n)
		p.Patch(nil, prev)
		memdom.Ops{}.AppendChild(root, prev.Elm)
		counting.Reset()

		for i := 0; i < iters; i++ {
			next := list(i+1, n)
			start := time.Now()
			p.Patch(prev, next)
			tach.AddTime(time.Since(start))
			prev = next
		}

		created := counting.N.CreateElement + counting.N.CreateText
		total := iters * n
		reused := total - created

		calc := tach.Calc()
		tbl.AppendRows([]table.Row{
			{
				fmt.Sprintf("rotate: %d items", n),
				calc.Time.Avg,
				calc.Time.Min,
				calc.Time.P75,
				calc.Time.P99,
				calc.Time.Max,
				fmt.Sprintf("%s / %s", humanize.Comma(int64(reused)), humanize.Comma(int64(total))),
			},
		})
	}

	tbl.Render()
}
