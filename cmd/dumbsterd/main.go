// Command dumbsterd is the thin CLI entry point around the dumbster package: bind a port, poll
// the capture queue, print a one-line summary of each received message, and shut down cleanly on
// SIGINT/SIGTERM. Modeled on laitos's TestSMTPD harness and its daemon start/stop lifecycle,
// trimmed to a standalone binary rather than a test helper.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chrisime/dumbster"
	"github.com/chrisime/dumbster/config"
)

const pollInterval = 200 * time.Millisecond

func main() {
	os.Exit(run())
}

func run() int {
	flags := config.ParseFlags()
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dumbsterd:", err)
		return 1
	}
	cfg = config.ApplyFlags(cfg, flags)

	server, err := dumbster.StartWithConfig(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dumbsterd:", err)
		return 1
	}
	fmt.Printf("dumbsterd: listening on port %d\n", server.Port())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go pollReceived(server, done)

	<-sig
	close(done)
	server.Stop()
	fmt.Println("dumbsterd: shut down")
	return 0
}

func pollReceived(server *dumbster.Server, done <-chan struct{}) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			for _, msg := range server.Received().Poll() {
				subject := ""
				if v := msg.HeaderValue("Subject"); v != nil {
					subject = *v
				}
				from := ""
				if v := msg.HeaderValue("From"); v != nil {
					from = *v
				}
				to := ""
				if v := msg.HeaderValue("To"); v != nil {
					to = *v
				}
				fmt.Printf("received '%s' from: %s to: %s\n", subject, from, to)
			}
		}
	}
}
