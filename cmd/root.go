package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kdimtricp/facewatch/internal/config"
	"github.com/kdimtricp/facewatch/internal/database"
	"github.com/kdimtricp/facewatch/internal/detect"
)

// Version is the application version.
const Version = "0.1.0"

var (
	cfgFile      string
	detectorPath string

	// cfg is the loaded configuration shared by subcommands.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:     "facewatch",
	Short:   "Incremental face detection over decoded video frames",
	Version: Version,
	Long: `Facewatch turns a directory of decoded video frames into an ordered
stream of face detection results. It can watch a directory while frames are
still being written, process a fixed batch of images, or serve detection
over HTTP.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load .env file if present (ignore errors)
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if detectorPath != "" {
			cfg.DetectorPath = detectorPath
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&detectorPath, "detector", "", "Path to the detector executable")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openDB connects to the session store configured for this run.
func openDB() (*database.DB, error) {
	dbConfig := database.Config{
		Type:       cfg.DBType,
		SQLitePath: cfg.DBPath,
		Host:       cfg.DBHost,
		Port:       cfg.DBPort,
		User:       cfg.DBUser,
		Password:   cfg.DBPassword,
		Name:       cfg.DBName,
	}
	db, err := database.NewDB(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return db, nil
}

// newEngine constructs the detection engine once per run. Without a
// configured detector the stub engine keeps the pipeline functional, which
// is enough for plumbing checks and tests but reports no faces.
func newEngine() (detect.Engine, error) {
	if cfg.DetectorPath != "" {
		return detect.NewSubprocessEngine(cfg.DetectorPath, cfg.DetectorArgs...)
	}
	log.Printf("No detector configured (set FACEWATCH_DETECTOR or --detector); using stub engine")
	return &detect.StubEngine{}, nil
}
