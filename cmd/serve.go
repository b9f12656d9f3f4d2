package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/tabviz/internal/server"
)

var (
	srvHost        string
	srvPort        int
	srvMaxUploadMB int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web app",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := *settings()
		f := cmd.Flags()
		if f.Changed("host") {
			c.Host = srvHost
		}
		if f.Changed("port") {
			c.Port = srvPort
		}
		if f.Changed("max-upload-mb") {
			c.MaxUploadMB = srvMaxUploadMB
		}
		if err := c.Validate(); err != nil {
			return err
		}

		logger := newLogger(&c)
		defer func() { _ = logger.Sync() }()
		logger.Info("starting tabviz",
			zap.String("addr", c.Addr()),
			zap.Int("max_upload_mb", c.MaxUploadMB),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.New(server.FromConfig(&c), logger).Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvHost, "host", "0.0.0.0", "listen host (overrides config)")
	serveCmd.Flags().IntVar(&srvPort, "port", 5000, "listen port (overrides config)")
	serveCmd.Flags().IntVar(&srvMaxUploadMB, "max-upload-mb", 16, "maximum upload size in MiB (overrides config)")
}
