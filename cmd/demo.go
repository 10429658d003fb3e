package cmd

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/loojk2008/ferrugo/gc"
	"github.com/loojk2008/ferrugo/heap"
	"github.com/loojk2008/ferrugo/runtime"
	"github.com/loojk2008/ferrugo/scenario"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the S1-S6 end-to-end scenarios against a fresh VM",
	RunE:  runDemo,
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()
	defer logger.Sync()

	var out bytes.Buffer
	jvm := runtime.NewJVM(logger, &out)
	jvm.GC.SetThreshold(cfg.GCThresholdBytes)
	if cfg.GCDisabled {
		jvm.GC.Disable()
	}

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(heap.NewCollector(jvm.World.Registry), gc.NewCollector(jvm.GC))
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go http.ListenAndServe(cfg.MetricsAddr, mux)
		fmt.Fprintf(cmd.OutOrStdout(), "metrics listening on %s\n", cfg.MetricsAddr)
	}

	reports := scenario.RunAll(jvm, &out)

	fmt.Fprint(cmd.OutOrStdout(), out.String())
	fmt.Fprintln(cmd.OutOrStdout(), "---")
	allOK := true
	for _, r := range reports {
		status := "ok"
		if !r.OK {
			status = "FAIL"
			allOK = false
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %-4s %s\n", r.Name, status, r.Note)
	}
	if !allOK {
		return fmt.Errorf("one or more scenarios failed")
	}
	return nil
}
