// Command soundshelf is the thin control surface spec.md §5 describes: a
// terminal browser over the catalog that does nothing but hydrate
// queue.Item trees and post Commands, the same contract MPRIS uses.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/mgilbert/soundshelf/internal/catalog"
	"github.com/mgilbert/soundshelf/internal/config"
	"github.com/mgilbert/soundshelf/internal/decoder"
	"github.com/mgilbert/soundshelf/internal/engine"
	"github.com/mgilbert/soundshelf/internal/errmsg"
	"github.com/mgilbert/soundshelf/internal/mpris"
	"github.com/mgilbert/soundshelf/internal/playback"
)

const appName = "soundshelf"

func main() {
	scan := flag.Bool("scan", false, "scan configured library sources before starting")
	flag.Parse()

	if err := run(*scan); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(scan bool) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpInitialize, err))
	}

	dbPath, err := xdg.DataFile(filepath.Join(appName, "catalog.db"))
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpInitialize, err))
	}
	cat, err := catalog.Open(dbPath)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpCatalogOpen, err))
	}
	defer cat.Close()

	if scan && len(cfg.LibrarySources) > 0 {
		progress := make(chan catalog.ScanProgress, 16)
		done := make(chan error, 1)
		go func() { done <- cat.Scan(cfg.LibrarySources, progress) }()
		for p := range progress {
			fmt.Fprintln(os.Stderr, p.Summary())
		}
		if err := <-done; err != nil {
			return errors.New(errmsg.Format(errmsg.OpCatalogScan, err))
		}
	}

	ctx := playback.NewContext(20)
	cmds := playback.NewCommandChannel()
	eng := engine.New(ctx, cmds, openFile, cfg.DeviceSampleRate, 2)

	sampleRate := beep.SampleRate(cfg.DeviceSampleRate)
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return errors.New(errmsg.Format(errmsg.OpInitialize, err))
	}
	speaker.Play(engine.NewBeepStreamer(eng))

	var mprisAdapter *mpris.Adapter
	if cfg.EnableMPRIS {
		mprisAdapter, err = mpris.New(ctx, cmds)
		if err != nil {
			slog.Warn("soundshelf: MPRIS unavailable", "err", err)
		} else {
			defer mprisAdapter.Close()
		}
	}

	m, err := newModel(cat, ctx, cmds)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpInitialize, err))
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return errors.New(errmsg.Format(errmsg.OpInitialize, err))
	}

	cmds.Send(playback.Command{Kind: playback.CmdShutdown})
	return nil
}

func openFile(path string) (decoder.ReadSeekCloser, error) {
	return os.Open(path)
}

var playerBarStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("240"))
