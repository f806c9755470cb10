package cmd

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kdimtricp/facewatch/internal/database"
	"github.com/kdimtricp/facewatch/internal/detect"
	"github.com/kdimtricp/facewatch/internal/protocol"
	"github.com/kdimtricp/facewatch/internal/watch"
)

var (
	watchDir      string
	watchConf     float64
	watchExpected int
	watchPoll     time.Duration
	watchRecord   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a directory for frame files and stream detection results",
	Long: `Watches a directory for numbered frame files (frame.0001.png, ...) as an
external decoder writes them, and emits one NDJSON result document per frame
on stdout, ending with a done summary. The session completes when the
expected count is reached or the directory stays idle for five seconds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := newEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		cfg := watch.Config{
			Dir:           watchDir,
			ConfThreshold: watchConf,
			ExpectedCount: watchExpected,
			PollInterval:  watchPoll,
		}
		return runWatchSession(cfg, engine, watchRecord)
	},
}

func init() {
	watchCmd.Flags().StringVarP(&watchDir, "dir", "d", "", "Directory to watch for frame files")
	watchCmd.Flags().Float64VarP(&watchConf, "conf", "c", detect.DefaultConfThreshold, "Confidence threshold")
	watchCmd.Flags().IntVarP(&watchExpected, "expected", "e", 0, "Expected frame count (0 = complete on idle timeout)")
	watchCmd.Flags().DurationVarP(&watchPoll, "poll", "p", watch.DefaultPollInterval, "Poll interval")
	watchCmd.Flags().BoolVar(&watchRecord, "record", false, "Record results into the session store")
	watchCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(watchCmd)
}

// runWatchSession wires a session's emitter chain and drives it to
// completion. Shared by the watch command and the stdin protocol path.
func runWatchSession(sessionCfg watch.Config, engine detect.Engine, record bool) error {
	var emitter watch.StreamEmitter = watch.NewJSONEmitter(os.Stdout)

	session := watch.NewSession(sessionCfg, engine, emitter)

	if record {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		repo := database.NewSessionRepo(db)
		rec := &database.SessionRecord{
			ID:            session.ID,
			Mode:          "watch",
			Source:        sessionCfg.Dir,
			ConfThreshold: session.ConfThreshold,
		}
		if err := repo.CreateSession(context.Background(), rec); err != nil {
			log.Printf("Failed to create session record: %v", err)
		} else {
			session.Emitter = watch.NewRecordingEmitter(emitter, repo, session.ID)
		}
	}

	total, err := session.Run(context.Background())
	if err != nil {
		return err
	}
	log.Printf("Watch session %s complete: %d frames processed", session.ID, total)
	return nil
}

// recordBatch persists a batch run into the session store.
func recordBatch(ctx context.Context, req *protocol.Request, results []detect.Report) {
	db, err := openDB()
	if err != nil {
		log.Printf("Failed to open session store: %v", err)
		return
	}
	defer db.Close()

	repo := database.NewSessionRepo(db)
	rec := &database.SessionRecord{Mode: "batch", Source: "stdin", ConfThreshold: req.Conf()}
	if err := repo.CreateSession(ctx, rec); err != nil {
		log.Printf("Failed to create session record: %v", err)
		return
	}
	for i, report := range results {
		if err := repo.RecordFrame(ctx, rec.ID, i, report); err != nil {
			log.Printf("Failed to record frame %d: %v", i, err)
		}
	}
	if err := repo.FinishSession(ctx, rec.ID, len(results)); err != nil {
		log.Printf("Failed to finish session %s: %v", rec.ID, err)
	}
}
