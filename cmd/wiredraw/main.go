// Command wiredraw edits wiring diagrams in the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/glog"
	"github.com/spf13/pflag"

	"wiredraw/internal/clipboard"
	"wiredraw/internal/config"
	"wiredraw/internal/control"
	"wiredraw/internal/editor"
	"wiredraw/internal/persist"
)

func main() {
	var (
		configPath  = pflag.StringP("config", "c", "", "settings file (default ~/"+config.DefaultFileName+")")
		catalogPath = pflag.String("catalog", "", "parts file merged over the built-in library")
		newName     = pflag.StringP("new", "n", "", "create a document with this name and open it")
		saveDir     = pflag.String("dir", "", "document directory, overriding the settings file")
	)
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] [document-id]\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	pflag.Parse()
	_ = flag.CommandLine.Parse(nil)
	defer glog.Flush()

	if err := run(*configPath, *catalogPath, *saveDir, *newName, pflag.Args()); err != nil {
		glog.Error(err)
		fmt.Fprintln(os.Stderr, "wiredraw:", err)
		glog.Flush()
		os.Exit(1)
	}
}

func run(configPath, catalogPath, saveDir, newName string, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if saveDir != "" {
		cfg.SaveDirectory = saveDir
	}
	if catalogPath != "" {
		cfg.Catalog = catalogPath
	}

	store, err := persist.NewFileStore(cfg.DocumentDir())
	if err != nil {
		return err
	}
	catalog := persist.DefaultCatalog()
	if cfg.Catalog != "" {
		if catalog, err = persist.LoadCatalog(cfg.Catalog); err != nil {
			return err
		}
	}

	ed := editor.New(editor.Deps{
		Documents: store,
		Parts:     catalog,
		Identity:  persist.StaticIdentity(cfg.User),
		Views:     store,
		Clipboard: clipboard.SystemBackend{},
	}, editorOptions(cfg))
	defer func() {
		if err := ed.Shutdown(context.Background()); err != nil {
			glog.Errorf("wiredraw: shutdown: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := store.Watch(ctx); err != nil {
		glog.Warningf("wiredraw: edits from other processes will not show: %v", err)
	}

	m := newModel(cfg, ed, store, catalog)
	switch {
	case newName != "":
		if _, err := ed.Create(ctx, newName); err != nil {
			return err
		}
		m.mode = ModeNormal
	case len(args) > 0:
		if err := ed.Open(ctx, args[0]); err != nil {
			return err
		}
		m.mode = ModeNormal
	default:
		m.scanDocuments()
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	posts := newPostQueue(p.Send)
	defer posts.Close()
	ed.SetEnqueue(posts.Post)
	_, err = p.Run()
	return err
}

func editorOptions(cfg *config.Config) editor.Options {
	opts := editor.DefaultOptions()
	opts.Zoom = control.ZoomOptions(cfg.Zoom)
	opts.PickRadius = cfg.PickRadius
	opts.GridExtent = cfg.GridExtent
	opts.HistoryDepth = cfg.HistoryDepth
	opts.Writer.Wait = cfg.Persist.DebounceWait
	opts.Writer.MaxWait = cfg.Persist.MaxWait
	opts.Writer.Timeout = cfg.Persist.Timeout
	return opts
}
