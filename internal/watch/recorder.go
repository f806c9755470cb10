package watch

import (
	"context"
	"log"

	"github.com/kdimtricp/facewatch/internal/database"
)

// RecordingEmitter forwards every event to the next emitter and mirrors it
// into the session store. Persistence failures are logged and swallowed;
// the live stream must not stall because a database write did.
type RecordingEmitter struct {
	Next      StreamEmitter
	Repo      *database.SessionRepo
	SessionID string
}

func NewRecordingEmitter(next StreamEmitter, repo *database.SessionRepo, sessionID string) *RecordingEmitter {
	return &RecordingEmitter{Next: next, Repo: repo, SessionID: sessionID}
}

func (r *RecordingEmitter) EmitFrame(ev FrameEvent) error {
	if err := r.Next.EmitFrame(ev); err != nil {
		return err
	}
	if err := r.Repo.RecordFrame(context.Background(), r.SessionID, ev.FrameIndex, ev.Result); err != nil {
		log.Printf("Failed to record frame %d: %v", ev.FrameIndex, err)
	}
	return nil
}

func (r *RecordingEmitter) EmitDone(totalProcessed int) error {
	if err := r.Next.EmitDone(totalProcessed); err != nil {
		return err
	}
	if err := r.Repo.FinishSession(context.Background(), r.SessionID, totalProcessed); err != nil {
		log.Printf("Failed to finish session %s: %v", r.SessionID, err)
	}
	return nil
}
