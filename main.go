package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"social_post_publisher/config"
	"social_post_publisher/logging"
	"social_post_publisher/publisher"
)

var (
	configPath string
	verbose    bool

	heading   string
	material  string
	platforms []string
	testMode  bool
	addr      string

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "social-publisher",
	Short: "Generate platform-specific social posts with an LLM and publish them",
	Long: `social-publisher rewrites one piece of material into posts tuned for
Facebook, Instagram, LinkedIn, TikTok and WhatsApp, and publishes them to
Facebook, Instagram and LinkedIn.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(config.ResolvePath(configPath))
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Development, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var transformCmd = &cobra.Command{
	Use:     "transform",
	Short:   "Rewrite material for each platform and print the result",
	Example: `  social-publisher transform --heading "Nuevo café" --material "..." --platforms facebook,instagram,tiktok`,
	RunE:    runTransform,
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Generate content with image suggestions and HTML previews",
	RunE:  runPreview,
}

var commandCmd = &cobra.Command{
	Use:     "command [text]",
	Short:   "Run a natural-language publishing command",
	Example: `  social-publisher command "Publica en Instagram sobre nuestro café" --test-mode`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runCommand,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics",
	Short: "Print the configuration check with secrets masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJSON(cmd.OutOrStdout(), cfg.Diagnostics(publisher.Publishable()))
	},
}

func init() {
	rootCmd.SilenceUsage = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default "+config.DefaultPath+" or $SOCIAL_PUBLISHER_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logs")

	for _, c := range []*cobra.Command{transformCmd, previewCmd} {
		c.Flags().StringVar(&heading, "heading", "", "post heading (required)")
		c.Flags().StringVar(&material, "material", "", "source material (required)")
		c.Flags().StringSliceVar(&platforms, "platforms", []string{"facebook", "instagram"}, "target platform ids")
		_ = c.MarkFlagRequired("heading")
		_ = c.MarkFlagRequired("material")
	}
	commandCmd.Flags().BoolVar(&testMode, "test-mode", false, "generate content and image without publishing")
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")

	rootCmd.AddCommand(transformCmd, previewCmd, commandCmd, serveCmd, diagnosticsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runTransform(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	result, err := a.transformer.TransformAll(cmd.Context(), heading, material, platforms)
	if perr := printJSON(cmd.OutOrStdout(), result); perr != nil {
		return perr
	}
	return err
}

func runPreview(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	report, err := a.content.Preview(cmd.Context(), heading, material, platforms)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), report)
}

func runCommand(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	report := a.commands.Process(cmd.Context(), strings.Join(args, " "), testMode)
	if err := printJSON(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if !report.Success {
		return errors.New(report.Error)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	srv, err := a.server()
	if err != nil {
		return err
	}
	listen := cfg.Server.Addr
	if addr != "" {
		listen = addr
	}

	httpSrv := &http.Server{
		Addr:              listen,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting web server", zap.String("addr", listen))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
