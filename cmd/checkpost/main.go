// Command checkpost loads traffic-stop CSV exports into a relational table
// and serves reports over it.
//
//	checkpost load data/traffic_stops.csv
//	checkpost serve --addr :8080
//	checkpost report arrest-rate-by-age-group --from 2020-01-01
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	// register all backends with the storage factory; storage.kind picks one.
	_ "checkpost/internal/storage/all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
