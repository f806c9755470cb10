package cmd

import (
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/kdimtricp/facewatch/internal/api"
	"github.com/kdimtricp/facewatch/internal/database"
	"github.com/kdimtricp/facewatch/internal/storage"
)

var serveMaxUpload int64

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve detection and session browsing over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := newEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		localStorage, err := storage.NewLocalStorage(cfg.UploadDir)
		if err != nil {
			return err
		}

		app := &api.App{
			Repo:          database.NewSessionRepo(db),
			Engine:        engine,
			Storage:       localStorage,
			MaxUploadSize: serveMaxUpload,
		}

		router := api.NewRouter(app)

		log.Printf("Server starting on port %s", cfg.Port)
		log.Printf("Upload directory: %s", cfg.UploadDir)
		log.Printf("Database type: %s", cfg.DBType)

		return http.ListenAndServe(":"+cfg.Port, router)
	},
}

func init() {
	serveCmd.Flags().Int64Var(&serveMaxUpload, "max-upload", 32<<20, "Maximum upload size in bytes")
	rootCmd.AddCommand(serveCmd)
}
