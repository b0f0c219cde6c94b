package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cheggaaa/pb"
	"github.com/jessevdk/go-flags"
	"github.com/rubenv/fgdtiles/fgdtiles"
	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

type GlobalOptions struct {
	Config  string `short:"c" long:"config" description:"Config file path" default:"fgdtiles.yaml"`
	Verbose bool   `short:"v" long:"verbose" description:"Enable debug logging"`
}

var globalOpts = GlobalOptions{}
var parser = flags.NewParser(&globalOpts, flags.HelpFlag|flags.PassDoubleDash)

func Run() error {
	_, err := parser.Parse()
	if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		parser.WriteHelp(os.Stdout)
		return nil
	}
	return err
}

// LoadConfig reads the config file and sets up logging.
func (g *GlobalOptions) LoadConfig() (*fgdtiles.Config, error) {
	config, err := fgdtiles.ReadConfig(g.Config)
	if err != nil {
		return nil, err
	}

	level := config.Level()
	if g.Verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	log.SetFormatter(&prefixed.TextFormatter{
		FullTimestamp: true,
	})
	fgdtiles.SetLogger(log.StandardLogger())

	return config, nil
}

// interruptible returns a context that is cancelled on SIGINT or SIGTERM.
func interruptible() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM)
	signal.Notify(stop, syscall.SIGINT)

	go func() {
		select {
		case <-stop:
			log.Warn("Interrupted, finishing running work")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(stop)
	}()

	return ctx, cancel
}

func newBar(total int, prefix string) *pb.ProgressBar {
	bar := pb.New(total).Prefix(prefix)
	bar.Output = os.Stderr
	return bar.Start()
}
