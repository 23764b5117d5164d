package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lanchat/conf"
	"lanchat/device"
	"lanchat/dispatch"
	"lanchat/logs"
	"lanchat/network/udp"
	"lanchat/ui"
)

var version = "dev"

const (
	exitOK        = 0
	exitFailure   = 1
	exitUsage     = 2
	exitInterrupt = 130
)

var errUsage = errors.New("invalid arguments")

func main() {
	os.Exit(run())
}

func run() int {
	var cfg conf.Config
	ranCommand := false

	rootCmd := &cobra.Command{
		Use:           "lanchat --ip <ipv4> --port <port>",
		Short:         "LAN chat over UDP broadcast",
		Long:          "Broadcasts chat messages to everyone on the local network segment\nand renders the conversation in the terminal.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ranCommand = true
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("%w: %v", errUsage, err)
			}
			return chat(cmd.Context(), cfg)
		},
	}
	rootCmd.Flags().StringVar(&cfg.IP, "ip", "", "IPv4 address of the interface to send from")
	rootCmd.Flags().IntVar(&cfg.Port, "port", 0, "UDP port shared by all chat participants")
	rootCmd.Flags().BoolVar(&cfg.FileLog, "log", false, "write a log file under "+conf.DefaultLogDir+"/")
	rootCmd.Flags().BoolVar(&cfg.Verbose, "verbose", false, "log at debug level")
	_ = rootCmd.MarkFlagRequired("ip")
	_ = rootCmd.MarkFlagRequired("port")

	ctx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	err := rootCmd.ExecuteContext(ctx)
	switch {
	case err == nil && ctx.Err() != nil:
		fmt.Fprintln(os.Stderr, "[lanchat] interrupted")
		return exitInterrupt
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(os.Stderr, "[lanchat] interrupted")
		return exitInterrupt
	case errors.Is(err, errUsage):
		fmt.Fprintf(os.Stderr, "[lanchat] %v\n", err)
		return exitUsage
	default:
		fmt.Fprintf(os.Stderr, "[lanchat] %v\n", err)
		if !ranCommand {
			return exitUsage
		}
		return exitFailure
	}
}

func chat(ctx context.Context, cfg conf.Config) error {
	logger, closeLog, logPath, err := logs.Setup(conf.DefaultLogDir, cfg.FileLog, cfg.Verbose)
	if err != nil {
		return err
	}
	defer closeLog()
	defer logs.Scope(logger, "chat")()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("ip", cfg.IP),
		zap.Int("port", cfg.Port),
		zap.String("logfile", logPath))

	tr, err := udp.Open(cfg.IP, cfg.Port)
	if err != nil {
		return fmt.Errorf("open sockets: %w", err)
	}
	defer tr.Close()
	logger.Info("sockets open",
		zap.String("listen", tr.GetStatus().ListenAddr),
		zap.String("broadcast", tr.GetStatus().BroadcastAddr))

	term, err := device.OpenTerminal()
	if err != nil {
		return err
	}
	defer term.Restore()

	eng := ui.NewEngine(term, logger)
	disp := dispatch.New(tr, eng, logger)
	eng.Bind(disp.Inbound(), disp.SendMessage)
	eng.SetStatus(fmt.Sprintf("listening on %s, pick a nickname to join", cfg.ListenAddr()))

	if err := disp.Start(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		disp.Stop()
		return ctx.Err()
	case <-disp.Done():
		disp.Stop()
		return nil
	}
}
