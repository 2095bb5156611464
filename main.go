// Package main provides the entry point for the voxpage CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	gap "github.com/muesli/go-app-paths"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/voxpage/voxpage/extract"
	"github.com/voxpage/voxpage/reader"
	"github.com/voxpage/voxpage/reader/synth"
	"github.com/voxpage/voxpage/store"
	"github.com/voxpage/voxpage/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string

	rootCmd = &cobra.Command{
		Use:   "voxpage",
		Short: "Listen to your books from the terminal",
		Long: paragraph(
			fmt.Sprintf("\nTurn PDF books into %s, one page at a time, with a word-by-word highlight.", keyword("narrated audio")),
		),
		SilenceErrors: false,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
	}
)

// envOverrides are environment settings that take precedence over the
// config file.
type envOverrides struct {
	Endpoint string `env:"VOXPAGE_SYNTH_ENDPOINT"`
	APIKey   string `env:"VOXPAGE_API_KEY"`
}

var addCmd = &cobra.Command{
	Use:   "add <file.pdf>",
	Short: "Add a PDF book to the library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := extract.WaitReady(ctx); err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("unable to read file: %w", err)
		}
		doc, err := extract.Extract(data)
		if err != nil {
			return err
		}

		title := doc.Title
		if title == "" {
			base := filepath.Base(args[0])
			title = strings.TrimSuffix(base, filepath.Ext(base))
		}

		lib, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer lib.Close() //nolint:errcheck

		meta := store.Metadata{
			ID:    store.NewID(),
			Title: title,
			Pages: len(doc.PageTexts),
			Voice: viper.GetString("voice"),
			Size:  int64(len(data)),
		}
		if err := lib.Put(ctx, meta, data, doc.CoverImage); err != nil {
			return fmt.Errorf("unable to store book: %w", err)
		}

		fmt.Printf("Added %q (%d pages) as %s\n", title, meta.Pages, shortID(meta.ID))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List books in the library",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		lib, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer lib.Close() //nolint:errcheck

		books, err := lib.GetAll(ctx)
		if err != nil {
			return err
		}
		if len(books) == 0 {
			fmt.Println("The library is empty. Add a book with: voxpage add <file.pdf>")
			return nil
		}

		fmt.Printf("%-10s %-40s %9s %6s %10s  %s\n", "ID", "TITLE", "PROGRESS", "VOICE", "SIZE", "ADDED")
		for _, b := range books {
			fmt.Printf("%-10s %-40s %5d/%-3d %6s %10s  %s\n",
				shortID(b.ID),
				truncateTitle(b.Title, 40),
				b.Progress+1, b.Pages,
				b.Voice,
				humanize.Bytes(uint64(b.Size)), //nolint:gosec
				humanize.Time(b.AddedAt))
		}
		return nil
	},
}

var readCmd = &cobra.Command{
	Use:   "read [id or title]",
	Short: "Open a book and start the narrated reader",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("the reader needs an interactive terminal")
		}

		ctx := cmd.Context()
		lib, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer lib.Close() //nolint:errcheck

		query := ""
		if len(args) == 1 {
			query = args[0]
		}
		meta, err := findBook(ctx, lib, query)
		if err != nil {
			return err
		}
		book, err := lib.Get(ctx, meta.ID)
		if err != nil {
			return err
		}
		return runReader(ctx, lib, book)
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a book from the library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		lib, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer lib.Close() //nolint:errcheck

		meta, err := findBook(ctx, lib, args[0])
		if err != nil {
			return err
		}
		if err := lib.Delete(ctx, meta.ID); err != nil {
			return err
		}
		fmt.Printf("Removed %q (%s)\n", meta.Title, shortID(meta.ID))
		return nil
	},
}

// findBook resolves a query to a stored book: empty query picks the most
// recently added, otherwise an id prefix match wins, then a fuzzy title
// match.
func findBook(ctx context.Context, lib *store.Store, query string) (store.Metadata, error) {
	books, err := lib.GetAll(ctx)
	if err != nil {
		return store.Metadata{}, err
	}
	return matchBook(books, query)
}

func matchBook(books []store.Metadata, query string) (store.Metadata, error) {
	if len(books) == 0 {
		return store.Metadata{}, errors.New("the library is empty")
	}
	if query == "" {
		return books[0], nil
	}

	for _, b := range books {
		if b.ID == query || strings.HasPrefix(b.ID, query) {
			return b, nil
		}
	}

	titles := make([]string, len(books))
	for i, b := range books {
		titles[i] = b.Title
	}
	matches := fuzzy.Find(query, titles)
	if len(matches) == 0 {
		return store.Metadata{}, fmt.Errorf("no book matches %q", query)
	}
	return books[matches[0].Index], nil
}

func runReader(ctx context.Context, lib *store.Store, book store.Book) error {
	doc, err := extract.Extract(book.File)
	if err != nil {
		return err
	}
	if len(doc.PageTexts) == 0 {
		return errors.New("book has no pages")
	}

	voiceName := book.Voice
	if voiceName == "" {
		voiceName = viper.GetString("voice")
	}
	voice := reader.ParseVoice(voiceName)
	startPage := book.Progress
	if startPage < 0 || startPage >= len(doc.PageTexts) {
		startPage = 0
	}

	device, err := reader.NewOtoDevice()
	if err != nil {
		return err
	}

	engine := buildEngine()
	if !engine.Available() {
		log.Warn("synthesis engine is not fully configured", "engine", engine.Name())
	}

	events := ui.NewEvents()
	session, err := reader.NewSession(reader.Config{
		PageTexts: doc.PageTexts,
		StartPage: startPage,
		Voice:     voice,
		AutoPlay:  viper.GetBool("autoplay"),
		Volume:    viper.GetFloat64("volume"),
		Engine:    engine,
		Device:    device,
		Callbacks: ui.Callbacks(events),
	})
	if err != nil {
		return err
	}

	model := ui.New(session, book.Title, events)
	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("unable to run reader: %w", err)
	}

	// Save where the reader left off.
	last := final.(ui.Model).CurrentPage()
	if err := lib.UpdateField(ctx, book.ID, "progress", last); err != nil {
		log.Warn("could not save reading progress", "book", shortID(book.ID), "error", err)
	}
	if v := session.CurrentVoice().String(); v != book.Voice {
		if err := lib.UpdateField(ctx, book.ID, "voice", v); err != nil {
			log.Warn("could not save voice", "book", shortID(book.ID), "error", err)
		}
	}
	return nil
}

// buildEngine picks the synthesis backend from config. Without an endpoint
// the offline mock engine speaks silence, which still exercises the whole
// reading flow.
func buildEngine() synth.Engine {
	overrides, err := env.ParseAs[envOverrides]()
	if err != nil {
		log.Warn("could not parse environment", "error", err)
	}

	endpoint := overrides.Endpoint
	if endpoint == "" {
		endpoint = viper.GetString("synth.endpoint")
	}
	apiKey := overrides.APIKey
	if apiKey == "" {
		apiKey = viper.GetString("synth.api_key")
	}

	if endpoint == "" {
		log.Warn("no synthesis endpoint configured, using the offline engine")
		return synth.NewMockEngine()
	}
	return synth.NewHTTPEngine(synth.HTTPConfig{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Timeout:  viper.GetDuration("synth.timeout"),
	})
}

func openLibrary(ctx context.Context) (*store.Store, error) {
	path := viper.GetString("library")
	if path == "" {
		scope := gap.NewScope(gap.User, "voxpage")
		dir, err := scope.DataPath("")
		if err != nil {
			return nil, fmt.Errorf("could not resolve data directory: %w", err)
		}
		path = filepath.Join(dir, "library.db")
	}
	return store.Open(ctx, path)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncateTitle(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return s[:width-1] + "…"
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	readCmd.Flags().String("voice", "", "synthesis voice (amber or onyx)")
	readCmd.Flags().Bool("autoplay", false, "keep reading page after page")
	readCmd.Flags().Float64("volume", 1.0, "playback volume (0.0 to 1.0)")

	_ = viper.BindPFlag("voice", readCmd.Flags().Lookup("voice"))
	_ = viper.BindPFlag("autoplay", readCmd.Flags().Lookup("autoplay"))
	_ = viper.BindPFlag("volume", readCmd.Flags().Lookup("volume"))

	viper.SetDefault("voice", "amber")
	viper.SetDefault("autoplay", false)
	viper.SetDefault("volume", 1.0)
	viper.SetDefault("synth.endpoint", "")
	viper.SetDefault("synth.api_key", "")
	viper.SetDefault("synth.timeout", "10s")
	viper.SetDefault("library", "")

	rootCmd.AddCommand(addCmd, listCmd, readCmd, rmCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "voxpage")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find the configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "voxpage")}, dirs...)
	}

	if c := os.Getenv("VOXPAGE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("voxpage")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("voxpage")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "voxpage.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
