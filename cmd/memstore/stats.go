package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/memstore/internal/repository"
)

// processStats is the resource usage of the running CLI process.
type processStats struct {
	PID        int32   `json:"pid"`
	RSSBytes   uint64  `json:"rss_bytes"`
	VMSBytes   uint64  `json:"vms_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
	Threads    int32   `json:"threads"`
	Goroutines int     `json:"goroutines"`
}

func collectProcessStats() (*processStats, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect process: %w", err)
	}
	ps := &processStats{PID: proc.Pid, Goroutines: runtime.NumGoroutine()}

	if mem, err := proc.MemoryInfo(); err == nil {
		ps.RSSBytes = mem.RSS
		ps.VMSBytes = mem.VMS
	}
	ps.CPUPercent, _ = proc.CPUPercent()
	ps.Threads, _ = proc.NumThreads()
	return ps, nil
}

func newStatsCmd(a *app) *cobra.Command {
	var demo bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show pool, collection and process statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDatabase()
			if err != nil {
				return err
			}
			if demo {
				if err := seedDemo(cmd.Context(), db); err != nil {
					return fmt.Errorf("failed to seed demo data: %w", err)
				}
			}

			ps, err := collectProcessStats()
			if err != nil {
				return err
			}
			return printJSON(struct {
				repository.Stats
				Retention string              `json:"retention"`
				Indexes   map[string][]string `json:"indexes"`
				Process   *processStats       `json:"process"`
			}{
				Stats:     db.Stats(),
				Retention: db.Store().Retention().String(),
				Indexes:   indexesByCollection(db),
				Process:   ps,
			})
		},
	}
	cmd.Flags().BoolVar(&demo, "demo", false, "Populate demo data first")
	return cmd
}

func indexesByCollection(db *repository.Database) map[string][]string {
	out := make(map[string][]string)
	st := db.Store()
	for _, name := range st.Collections() {
		if ix := st.Indexes(name); len(ix) > 0 {
			out[name] = ix
		}
	}
	return out
}
