package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tabrail/tabrail/internal/config"
	"github.com/tabrail/tabrail/internal/ui"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	fs := flag.NewFlagSet("tabrail", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultPath(), "Path to config.toml")
	theme := fs.String("theme", "", "Theme for this run: auto, dark, or light (overrides the config)")
	demo := fs.Bool("demo", false, "Feed the rail with scripted demo traffic")
	debug := fs.Bool("debug", false, "Log debug detail")
	showVersion := fs.Bool("version", false, "Print the version and exit")

	fs.Usage = func() {
		fmt.Println("Usage: tabrail [options]")
		fmt.Println()
		fmt.Println("Run the tab rail in the current terminal.")
		fmt.Println()
		fmt.Println("Options:")
		fs.PrintDefaults()
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  tabrail")
		fmt.Println("  tabrail -demo")
		fmt.Println("  tabrail -theme light -config ./config.toml")
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Error: unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		os.Exit(1)
	}

	if *showVersion {
		fmt.Printf("tabrail %s\n", version)
		return
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: tabrail needs an interactive terminal")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, continuing with defaults\n", err)
	}
	if *theme != "" {
		switch next := config.Theme(*theme); next {
		case config.ThemeAuto, config.ThemeDark, config.ThemeLight:
			cfg.Theme = next
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown theme %q\n", *theme)
			os.Exit(1)
		}
	}

	log.SetOutput(&lumberjack.Logger{
		Filename:   cfg.LogPath(*configPath),
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     14,
		Compress:   true,
	})

	verbose := *debug || cfg.Log.Debug
	if verbose {
		log.Printf("[MAIN] tabrail %s starting, config=%s theme=%s", version, *configPath, cfg.Theme)
	}

	ui.SetVersion(version)
	app := ui.NewApp(cfg, *configPath, verbose)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseAllMotion())

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	runCtx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	g, ctx := errgroup.WithContext(runCtx)

	if watcher, err := config.NewWatcher(*configPath); err != nil {
		log.Printf("[MAIN] config watching disabled: %v", err)
	} else {
		g.Go(func() error { return watcher.Start(ctx) })
		g.Go(func() error {
			for {
				select {
				case next, ok := <-watcher.Updates():
					if !ok {
						return nil
					}
					p.Send(ui.ConfigReloadedMsg{Config: next})
				case <-ctx.Done():
					return nil
				}
			}
		})
	}

	if *demo {
		feed := ui.NewFeed()
		g.Go(func() error { return feed.Run(ctx, p.Send) })
	}

	// A signal or a failed helper ends ctx; fold that into the program.
	g.Go(func() error {
		<-ctx.Done()
		p.Quit()
		return nil
	})

	g.Go(func() error {
		_, err := p.Run()
		cancel()
		return err
	})

	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
