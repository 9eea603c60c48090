package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dgallion1/blockboard/internal/blocktree"
)

// MoveState is a step of the move state machine.
type MoveState string

const (
	MoveStarted      MoveState = "started"
	MoveInserted     MoveState = "inserted"
	MoveCompleted    MoveState = "completed"
	MoveFailedInsert MoveState = "failed_insert"
	MoveFailedDelete MoveState = "failed_delete"
)

// Terminal reports whether no further transition follows s.
func (s MoveState) Terminal() bool {
	return s == MoveCompleted || s == MoveFailedInsert
}

// MoveRecord is one observed state of a move.
type MoveRecord struct {
	ID          string      `json:"id"`
	SourceID    string      `json:"source_id"`
	Text        string      `json:"text"`
	Destination Destination `json:"destination"`
	NewNodeID   string      `json:"new_node_id,omitempty"`
	State       MoveState   `json:"state"`
	Detail      string      `json:"detail,omitempty"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// MoveRecorder persists move transitions.
type MoveRecorder interface {
	Record(ctx context.Context, rec MoveRecord) error
	// Pending returns moves that created their copy but never confirmed the
	// source delete.
	Pending(ctx context.Context) ([]MoveRecord, error)
	List(ctx context.Context, state MoveState, limit int) ([]MoveRecord, error)
}

type DestKind string

const (
	DestAuto     DestKind = "auto"
	DestDay      DestKind = "day"
	DestCategory DestKind = "category"
)

// ParseDestKind maps a user-supplied kind; the empty string is DestAuto.
func ParseDestKind(s string) (DestKind, error) {
	switch k := DestKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return DestAuto, nil
	case DestAuto, DestDay, DestCategory:
		return k, nil
	default:
		return "", invalidf("unknown destination kind %q", s)
	}
}

type Destination struct {
	Kind DestKind `json:"kind"`
	Name string   `json:"name"`
}

func (d Destination) String() string {
	return string(d.Kind) + ":" + d.Name
}

type MoveResult struct {
	Status    string    `json:"status"`
	State     MoveState `json:"state"`
	MoveID    string    `json:"move_id"`
	NewNodeID string    `json:"new_node_id"`
	Detail    string    `json:"detail,omitempty"`
}

// resolveDestination resolves dest against a single fetch of the page.
func (b *Board) resolveDestination(ctx context.Context, dest Destination) (Anchor, error) {
	if strings.TrimSpace(dest.Name) == "" {
		return Anchor{}, invalidf("destination name is required")
	}
	kind := dest.Kind
	if kind == "" || kind == DestAuto {
		kind = DestCategory
		if looksLikeDay(dest.Name) {
			kind = DestDay
		}
	}

	top, err := b.topLevel(ctx)
	if err != nil {
		return Anchor{}, err
	}
	switch kind {
	case DestDay:
		idx, err := b.findSection(top, b.weeklyMatch, b.weeklyTerms)
		if err != nil {
			return Anchor{}, err
		}
		return b.dayAnchor(ctx, top, idx, dest.Name)
	case DestCategory:
		idx, err := b.findSection(top, b.boardMatch, b.boardTerms)
		if err != nil {
			return Anchor{}, err
		}
		return b.categoryAnchor(ctx, top, idx, dest.Name)
	default:
		return Anchor{}, invalidf("unknown destination kind %q", dest.Kind)
	}
}

// MoveTask copies a task to dest and deletes the source. The copy is created
// first; if the source delete then fails the copy is kept and a
// *PartialMoveError is returned.
func (b *Board) MoveTask(ctx context.Context, sourceID, text string, dest Destination) (MoveResult, error) {
	if sourceID == "" {
		return MoveResult{}, invalidf("source node id is required")
	}
	if strings.TrimSpace(text) == "" {
		return MoveResult{}, invalidf("task text is empty")
	}

	rec := MoveRecord{
		ID:          ulid.Make().String(),
		SourceID:    sourceID,
		Text:        text,
		Destination: dest,
	}
	log := b.log.With("move_id", rec.ID, "source", sourceID, "destination", dest.String())
	b.record(ctx, &rec, MoveStarted, "")

	anchor, err := b.resolveDestination(ctx, dest)
	if err != nil {
		b.record(ctx, &rec, MoveFailedInsert, err.Error())
		log.Warn("move aborted", "error", err)
		return MoveResult{}, err
	}
	created, err := b.InsertTask(ctx, anchor, text)
	if err != nil {
		b.record(ctx, &rec, MoveFailedInsert, err.Error())
		log.Warn("move insert failed, source untouched", "error", err)
		return MoveResult{}, fmt.Errorf("move %s: %w", sourceID, err)
	}
	rec.NewNodeID = created.ID
	b.record(ctx, &rec, MoveInserted, "")

	if err := b.DeleteTask(ctx, sourceID); err != nil {
		b.record(ctx, &rec, MoveFailedDelete, err.Error())
		log.Error("move left a duplicate", "new_node_id", created.ID, "error", err)
		return MoveResult{Status: "error", State: MoveFailedDelete, MoveID: rec.ID, NewNodeID: created.ID, Detail: err.Error()},
			&PartialMoveError{MoveID: rec.ID, SourceID: sourceID, NewNodeID: created.ID, Err: err}
	}
	b.record(ctx, &rec, MoveCompleted, "")
	log.Info("moved task", "new_node_id", created.ID)

	return MoveResult{Status: "moved", State: MoveCompleted, MoveID: rec.ID, NewNodeID: created.ID}, nil
}

// record stores a transition. Journal failures are logged and never change the
// outcome of the move.
func (b *Board) record(ctx context.Context, rec *MoveRecord, state MoveState, detail string) {
	rec.State = state
	rec.Detail = detail
	rec.UpdatedAt = time.Now().UTC()
	if b.journal == nil {
		return
	}
	if err := b.journal.Record(context.WithoutCancel(ctx), *rec); err != nil {
		b.log.Error("journal move", "move_id", rec.ID, "state", state, "error", err)
	}
}

// ReconcileReport summarizes a Reconcile pass.
type ReconcileReport struct {
	Checked  int      `json:"checked"`
	Resolved int      `json:"resolved"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// Reconcile retries the source delete of every pending move. Deleting an
// already deleted source counts as resolved.
func (b *Board) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	if b.journal == nil {
		return report, invalidf("move journal is not configured")
	}
	pending, err := b.journal.Pending(ctx)
	if err != nil {
		return report, fmt.Errorf("list pending moves: %w", err)
	}

	for _, rec := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++
		if err := b.DeleteTask(ctx, rec.SourceID); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", rec.ID, err))
			b.record(ctx, &rec, MoveFailedDelete, err.Error())
			continue
		}
		report.Resolved++
		b.record(ctx, &rec, MoveCompleted, "reconciled")
	}
	if report.Checked > 0 {
		b.log.Info("reconciled moves", "checked", report.Checked, "resolved", report.Resolved, "failed", report.Failed)
	}
	return report, nil
}

// Moves lists journaled moves, newest first. An empty state lists all.
func (b *Board) Moves(ctx context.Context, state MoveState, limit int) ([]MoveRecord, error) {
	if b.journal == nil {
		return nil, invalidf("move journal is not configured")
	}
	return b.journal.List(ctx, state, limit)
}

// IsRemote reports whether err came from the document store.
func IsRemote(err error) bool {
	return errors.Is(err, blocktree.ErrRemoteFetch) || errors.Is(err, blocktree.ErrRemoteWrite)
}
