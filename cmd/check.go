package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kdimtricp/facewatch/internal/database"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check detector and session store configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Facewatch configuration")
		fmt.Println("=======================")

		if cfg.DetectorPath == "" {
			fmt.Println("Detector: not configured (stub engine; no faces will be reported)")
			fmt.Println("          set FACEWATCH_DETECTOR or --detector")
		} else if _, err := os.Stat(cfg.DetectorPath); err != nil {
			fmt.Printf("Detector: %s (NOT FOUND)\n", cfg.DetectorPath)
		} else {
			fmt.Printf("Detector: %s\n", cfg.DetectorPath)
		}

		db, err := openDB()
		if err != nil {
			fmt.Printf("Session store: unavailable (%v)\n", err)
			return nil
		}
		defer db.Close()

		repo := database.NewSessionRepo(db)
		ctx := context.Background()

		sessions, err := repo.CountSessions(ctx)
		if err != nil {
			return fmt.Errorf("failed to count sessions: %w", err)
		}
		frames, err := repo.CountFrames(ctx)
		if err != nil {
			return fmt.Errorf("failed to count frame results: %w", err)
		}
		fmt.Printf("Session store: %s (%d sessions, %d frame results)\n", cfg.DBType, sessions, frames)

		recent, err := repo.ListSessions(ctx, 5)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}
		if len(recent) > 0 {
			fmt.Println("\nRecent sessions:")
			for _, s := range recent {
				state := "running"
				if s.FinishedAt != nil {
					state = "finished"
				}
				fmt.Printf("  %s  %-5s  %-8s  %d frames  %s\n",
					s.StartedAt.Format("2006-01-02 15:04:05"), s.Mode, state, s.TotalProcessed, s.Source)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
