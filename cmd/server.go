package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cargas/db/sp"
	"cargas/web"
)

func serverCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long:  `This command starts the load board API with the configured store, fleet source and event queue.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cmd)
		},
	}

	cmd.Flags().Bool("dev", true, "Run in development mode")
	cmd.Flags().String("port", "", "Port to run the web server on (overrides config)")
	cmd.Flags().String("mq", "", "Message queue mode (none, go_chan, rabbitmq, gcp_pub_sub)")

	return cmd
}

func runServer(ctx context.Context, cmd *cobra.Command) error {
	a, err := newApp(ctx, appOptions{withEvents: true, override: func(a *app) {
		if cmd.Flags().Changed("dev") {
			a.cfg.Server.Dev, _ = cmd.Flags().GetBool("dev")
		}
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			a.cfg.Server.Port = port
		}
		if mode, _ := cmd.Flags().GetString("mq"); mode != "" {
			a.cfg.MQ.Mode = mode
		}
	}})
	if err != nil {
		return err
	}
	defer a.Close()

	deps := web.Deps{
		Synchronizer: a.sync,
		Store:        a.store,
		Events:       a.events,
		Logger:       a.logger,
	}
	if a.spClient != nil {
		deps.Proxy = a.spClient
		deps.Lists = sp.NewListResolver(a.cfg.SharePoint)
	}

	err = web.Serve(ctx, web.ServiceConfig{
		IsDev:     a.cfg.Server.Dev,
		Port:      a.cfg.Server.Port,
		RateLimit: a.cfg.Server.RateLimit,
	}, deps)
	if err != nil {
		a.logger.Error("http server stopped", zap.Error(err))
		return err
	}
	a.logger.Info("http server stopped")
	return nil
}
