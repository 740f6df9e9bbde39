package main

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/offerly/storefront/config"
	"github.com/offerly/storefront/logger"
	"github.com/offerly/storefront/web"
	"github.com/offerly/storefront/web/gate"

	"github.com/op/go-logging"
	"github.com/spf13/cobra"
)

func initLogger() {
	switch config.GetLogLevel() {
	case config.Debug:
		logger.InitLogger(logging.DEBUG)
	case config.Info:
		logger.InitLogger(logging.INFO)
	case config.Notice:
		logger.InitLogger(logging.NOTICE)
	case config.Warn:
		logger.InitLogger(logging.WARNING)
	case config.Error:
		logger.InitLogger(logging.ERROR)
	default:
		log.Fatal("unknown log level:", config.GetLogLevel())
	}
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())
	initLogger()
	defer logger.CloseLogger()

	server := web.NewServer()
	if err := server.Start(); err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, os.Interrupt)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			logger.Info("received SIGHUP, restarting")
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			server = web.NewServer()
			if err := server.Start(); err != nil {
				log.Println(err)
				return
			}
		default:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			return
		}
	}
}

func printRoutes() {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tKIND\tROLE")
	for _, r := range gate.NewTable().Describe() {
		role := string(r.Role)
		if role == "" {
			role = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Path, r.Kind, role)
	}
	_ = w.Flush()
}

func checkPath(path, cookie string) {
	id, err := gate.DecodeIdentity(url.QueryEscape(cookie), cookie != "")
	switch {
	case id != nil:
		fmt.Println("identity:", id.Role)
	case errors.Is(err, gate.ErrMalformedIdentity):
		fmt.Println("identity: anonymous (malformed cookie)")
	default:
		fmt.Println("identity: anonymous")
	}

	table := gate.NewTable()
	for _, gated := range []struct {
		name     string
		decision gate.Decision
	}{
		{"edge", table.Edge(path, id)},
		{"client", table.Client(path, id)},
	} {
		d := gated.decision
		if d.Allowed() {
			fmt.Printf("%-6s %s forward (%s, %s)\n", gated.name, d.Route.Path, d.Route.Kind, d.Reason)
		} else {
			fmt.Printf("%-6s %s redirect %s (%s, %s)\n", gated.name, d.Route.Path, d.Location, d.Route.Kind, d.Reason)
		}
	}
}

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Println("load .env:", err)
	}

	var cookie string

	rootCmd := &cobra.Command{
		Use:   config.GetName(),
		Short: "Storefront web server with edge and client access gates",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	routesCmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the route table the gates classify against",
		Run: func(cmd *cobra.Command, args []string) {
			printRoutes()
		},
	}

	checkCmd := &cobra.Command{
		Use:   "check <path>",
		Short: "Show the edge and client gate decisions for a path",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			checkPath(args[0], cookie)
		},
	}
	checkCmd.Flags().StringVar(&cookie, "cookie", "", `identity cookie JSON, e.g. '{"role":"admin"}'`)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.GetVersion())
		},
	}

	rootCmd.AddCommand(runCmd, routesCmd, checkCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
