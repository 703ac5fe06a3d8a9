// Command netsimctl is the CLI surface of spec §6: help / crash <node_id> /
// spawn <csv_node_ids> / exit, plus a `run` subcommand that bootstraps a
// fleet from a TOML config and blocks. Built with spf13/cobra, grounded on
// postalsys-Muti-Metroo/cmd/muti-metroo's cobra root-command wiring, and
// charmbracelet/lipgloss for styled REPL output.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/config"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/control"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/core"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/internal/logging"
	"github.com/CawaAlreadyTaken/uni.advanced-programming.project/sim"
)

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	logLevel  string
	logFormat string
	metricsAddr string
)

func main() {
	root := &cobra.Command{
		Use:     "netsimctl",
		Short:   "Operate a simulated drone/client/server packet-switched overlay",
		Version: "dev",
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn, error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "text or json")
	root.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve /metrics on (empty disables it)")

	root.AddCommand(runCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <config.toml>",
		Short: "Bootstrap a fleet and drop into the interactive controller REPL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			log := logging.New(logLevel, logFormat)
			fleet, err := sim.Bootstrap(cfg, sim.Options{Logger: log})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go func() {
				if err := fleet.Run(ctx); err != nil {
					log.Error("fleet run exited with error", "error", err)
				}
			}()

			if metricsAddr != "" {
				go func() {
					if err := fleet.ServeMetrics(ctx, metricsAddr); err != nil {
						log.Error("metrics server exited with error", "error", err)
					}
				}()
			}

			ctrl := control.New(fleet)
			runREPL(ctx, ctrl)
			return nil
		},
	}
}

// runREPL implements spec §6's CLI surface: help, crash <node_id>,
// spawn <csv_node_ids>, exit — mirroring the original implementation's
// simulation_controller::cli::run_cli read-eval-print loop.
func runREPL(ctx context.Context, ctrl *control.Controller) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("[netsimctl] > "))
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "help":
			printHelp()
		case "crash":
			handleCrash(ctrl, fields)
		case "spawn":
			handleSpawn(ctx, ctrl, fields)
		case "topology":
			handleTopology(ctrl, fields)
		case "exit":
			fmt.Println(okStyle.Render("exiting"))
			return
		default:
			fmt.Println(errStyle.Render("unknown command: " + fields[0] + ". Type 'help' for available commands."))
		}
	}
}

func printHelp() {
	fmt.Println("Available commands:")
	fmt.Println("  help                 - show this help message")
	fmt.Println("  crash <node_id>      - crash a running drone")
	fmt.Println("  spawn <csv_node_ids> - spawn new drones with the given ids")
	fmt.Println("  topology <node_id>   - print a client/server's discovered topology")
	fmt.Println("  exit                 - exit the controller")
}

func handleCrash(ctrl *control.Controller, fields []string) {
	if len(fields) != 2 {
		fmt.Println(errStyle.Render("usage: crash <node_id>"))
		return
	}
	id, err := parseNodeId(fields[1])
	if err != nil {
		fmt.Println(errStyle.Render(err.Error()))
		return
	}
	if err := ctrl.Crash(id); err != nil {
		fmt.Println(errStyle.Render(err.Error()))
		return
	}
	fmt.Println(okStyle.Render(fmt.Sprintf("crash requested for node %d", id)))
}

func handleSpawn(ctx context.Context, ctrl *control.Controller, fields []string) {
	if len(fields) != 2 {
		fmt.Println(errStyle.Render("usage: spawn <csv_node_ids>"))
		return
	}
	for _, raw := range strings.Split(fields[1], ",") {
		id, err := parseNodeId(raw)
		if err != nil {
			fmt.Println(errStyle.Render(err.Error()))
			continue
		}
		ctrl.Spawn(ctx, id, 0)
		fmt.Println(okStyle.Render(fmt.Sprintf("spawned drone %d", id)))
	}
}

func handleTopology(ctrl *control.Controller, fields []string) {
	if len(fields) != 2 {
		fmt.Println(errStyle.Render("usage: topology <node_id>"))
		return
	}
	id, err := parseNodeId(fields[1])
	if err != nil {
		fmt.Println(errStyle.Render(err.Error()))
		return
	}
	topo, err := ctrl.Topology(id)
	if err != nil {
		fmt.Println(errStyle.Render(err.Error()))
		return
	}
	for _, n := range topo.Nodes() {
		fmt.Printf("  %d: %v\n", n, topo.Neighbors(n))
	}
}

func parseNodeId(raw string) (core.NodeId, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid node id %q", raw)
	}
	return core.NodeId(v), nil
}
