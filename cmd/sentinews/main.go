package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/spf13/cobra"

	"github.com/sentinews/sentinews/internal/config"
	"github.com/sentinews/sentinews/internal/database"
	"github.com/sentinews/sentinews/internal/pipeline"
	"github.com/sentinews/sentinews/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "sentinews",
	Short:   "Sentiment map of Polish regional news",
	Long:    "Sentinews collects Polish news feeds, scores them for sentiment and regional relevance, and serves a per-voivodeship sentiment map.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("sentinews", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/sentinews/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure feeds, the LLM provider, and geocoding.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Articles:")
		fmt.Printf("  Total collected: %d\n", stats.TotalArticles)
		fmt.Printf("  With coordinates: %d\n", stats.WithLocation)
		fmt.Printf("  Registered feeds: %d\n", stats.Feeds)

		if len(stats.ByRegion) > 0 {
			fmt.Println("\nArticles by region:")
			regions := make([]string, 0, len(stats.ByRegion))
			for name := range stats.ByRegion {
				regions = append(regions, name)
			}
			sort.Strings(regions)
			for _, name := range regions {
				fmt.Printf("  %s: %d\n", name, stats.ByRegion[name])
			}
		}
		return nil
	},
}

// --- sync command ---

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch feeds, enrich new articles, and store them",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Println("Syncing feeds...")
		engine := pipeline.New(cfg, db)
		result, err := engine.Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println("\nSync complete:")
		fmt.Printf("  Feeds fetched: %d (%d failed)\n", result.Feeds, result.FeedErrors)
		fmt.Printf("  Entries seen: %d\n", result.TotalEntries)
		fmt.Printf("  New articles: %d\n", result.Added)
		fmt.Printf("  Already known: %d\n", result.Skipped)
		if result.GeocodeErrors > 0 {
			fmt.Printf("  Geocoding failures: %d\n", result.GeocodeErrors)
		}
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the JSON API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		syncJob := func() {
			engine := pipeline.New(cfg, db)
			if _, err := engine.Run(context.Background()); err != nil {
				log.Printf("Background sync failed: %v", err)
			}
		}

		srv := server.New(db, syncJob, cfg.Window())
		httpSrv := &http.Server{
			Addr:              server.ListenAddr(port),
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		var g run.Group
		g.Add(func() error {
			log.Printf("Server listening on http://%s", httpSrv.Addr)
			return httpSrv.ListenAndServe()
		}, func(error) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpSrv.Shutdown(ctx)
		})
		g.Add(run.SignalHandler(cmd.Context(), os.Interrupt, syscall.SIGTERM))

		err = g.Run()
		if _, ok := err.(run.SignalError); ok {
			log.Println("Shutting down")
			return nil
		}
		return err
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "sentinews.db")
	return database.Open(dbPath)
}
