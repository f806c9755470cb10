package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kdimtricp/facewatch/internal/detect"
	"github.com/kdimtricp/facewatch/internal/protocol"
	"github.com/kdimtricp/facewatch/internal/watch"
)

var (
	detectRecord   bool
	detectProgress bool
)

var detectCmd = &cobra.Command{
	Use:   "detect [IMAGE [CONF_THRESH]]",
	Short: "Detect faces from a stdin request or a single image",
	Long: `With no arguments, reads one JSON request document from stdin:

  {"image_paths": [...], "conf_thresh": 0.5}            batch reply on stdout
  {"watch_dir": "...", "expected_count": 120}           NDJSON stream on stdout

With an image path argument, detects faces in that one image and prints a
single result document (compatibility mode).`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			runSingle(args)
			return
		}
		runProtocol()
	},
}

func init() {
	detectCmd.Flags().BoolVar(&detectRecord, "record", false, "Record results into the session store")
	detectCmd.Flags().BoolVar(&detectProgress, "progress", false, "Show a progress bar on stderr (batch mode)")
	rootCmd.AddCommand(detectCmd)
}

// runSingle is the argv compatibility mode: facewatch detect IMAGE [CONF].
func runSingle(args []string) {
	conf := detect.DefaultConfThreshold
	if len(args) == 2 {
		parsed, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			fatalSingle(fmt.Sprintf("invalid confidence threshold %q", args[1]))
		}
		conf = parsed
	}

	engine, err := newEngine()
	if err != nil {
		fatalSingle(err.Error())
	}
	defer engine.Close()

	report := detect.ProcessImage(context.Background(), engine, args[0], conf)
	if err := json.NewEncoder(os.Stdout).Encode(report); err != nil {
		log.Fatal("Failed to write result:", err)
	}
}

// runProtocol reads one request document from stdin and dispatches it. All
// input validation happens before the engine is constructed.
func runProtocol() {
	req, mode, err := protocol.Parse(os.Stdin)
	if err != nil {
		var fatal *protocol.FatalInputError
		if errors.As(err, &fatal) {
			fatalInput(fatal.Msg)
		}
		fatalInput(err.Error())
	}

	engine, err := newEngine()
	if err != nil {
		fatalInput(err.Error())
	}
	defer engine.Close()

	switch mode {
	case protocol.ModeBatch:
		runBatchRequest(req, engine)
	case protocol.ModeWatch:
		cfg := watch.Config{
			Dir:           req.WatchDir,
			ConfThreshold: req.Conf(),
			ExpectedCount: req.Expected(),
			PollInterval:  req.Poll(),
		}
		if err := runWatchSession(cfg, engine, detectRecord); err != nil {
			fatalInput(err.Error())
		}
	}
}

func runBatchRequest(req *protocol.Request, engine detect.Engine) {
	ctx := context.Background()
	results := detect.RunBatch(ctx, engine, req.ImagePaths, detect.BatchOptions{
		ConfThreshold: req.Conf(),
		Progress:      detectProgress,
	})

	if detectRecord {
		recordBatch(ctx, req, results)
	}

	if err := protocol.WriteBatch(os.Stdout, results); err != nil {
		log.Fatal("Failed to write batch reply:", err)
	}
}

// fatalInput writes the error document to stdout and exits non-zero, the
// contract for malformed requests.
func fatalInput(msg string) {
	protocol.WriteError(os.Stdout, msg)
	os.Exit(1)
}

// fatalSingle is the single-image flavor: the error document uses the
// per-image result shape.
func fatalSingle(msg string) {
	json.NewEncoder(os.Stdout).Encode(detect.ErrorReport(msg))
	os.Exit(1)
}
