package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/CCAFRICA/spm-platform-sub001/internal/insight"
	"github.com/CCAFRICA/spm-platform-sub001/internal/reconcile"
	"github.com/CCAFRICA/spm-platform-sub001/internal/resolve"
	"github.com/CCAFRICA/spm-platform-sub001/internal/surface"
	"github.com/CCAFRICA/spm-platform-sub001/internal/synapse"
)

// Run is everything one batch produced.
type Run struct {
	BatchID        string
	TenantID       string
	Synapses       []synapse.Synapse
	Reconciliation reconcile.Report
	Investigations []resolve.Investigation
	Patterns       []resolve.Pattern
	Analysis       insight.FullAnalysis
}

// SaveRun stores a run in a single transaction.
//
// Returns ErrBatchExists (wrapped) if the batch id is already stored;
// nothing is written in that case.
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	if run.BatchID == "" {
		return fmt.Errorf("save run: empty batch id")
	}

	report, err := marshalJSON(run.Reconciliation)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.BatchID, err)
	}
	analysis, err := marshalJSON(run.Analysis)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.BatchID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save run %s: begin transaction: %w", run.BatchID, err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		INSERT INTO batches
		(id, tenant_id, entity_count, finding_count, correction_count, investigation_count, synapse_count, match_rate, false_green)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.BatchID,
		run.TenantID,
		run.Reconciliation.EntityCount,
		len(run.Reconciliation.Findings),
		run.Reconciliation.CorrectionsWritten,
		len(run.Investigations),
		len(run.Synapses),
		run.Reconciliation.MatchRate,
		boolToInt(run.Reconciliation.FalseGreen),
	)
	if err != nil {
		return fmt.Errorf("save run %s: insert batch: %w", run.BatchID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("save run %s: %w", run.BatchID, err)
	} else if n == 0 {
		return fmt.Errorf("save run %s: %w", run.BatchID, ErrBatchExists)
	}

	if err := insertSynapses(ctx, tx, run.BatchID, run.Synapses); err != nil {
		return fmt.Errorf("save run %s: %w", run.BatchID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO reconciliation_reports (batch_id, report) VALUES (?, ?)`,
		run.BatchID, report,
	); err != nil {
		return fmt.Errorf("save run %s: insert report: %w", run.BatchID, err)
	}

	for i, inv := range run.Investigations {
		body, err := marshalJSON(inv)
		if err != nil {
			return fmt.Errorf("save run %s: %w", run.BatchID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO investigations (batch_id, position, dispute_id, entity_id, root_cause, action, body)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			run.BatchID, i,
			inv.Dispute.DisputeID,
			inv.Dispute.EntityID,
			string(inv.RootCause.Classification),
			string(inv.Recommendation.Action),
			body,
		); err != nil {
			return fmt.Errorf("save run %s: insert investigation %s: %w", run.BatchID, inv.Dispute.DisputeID, err)
		}
	}

	for i, p := range run.Patterns {
		body, err := marshalJSON(p)
		if err != nil {
			return fmt.Errorf("save run %s: %w", run.BatchID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO resolution_patterns (batch_id, position, classification, body) VALUES (?, ?, ?, ?)`,
			run.BatchID, i, string(p.Classification), body,
		); err != nil {
			return fmt.Errorf("save run %s: insert pattern: %w", run.BatchID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO analyses (batch_id, body) VALUES (?, ?)`,
		run.BatchID, analysis,
	); err != nil {
		return fmt.Errorf("save run %s: insert analysis: %w", run.BatchID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save run %s: commit: %w", run.BatchID, err)
	}
	return nil
}

func insertSynapses(ctx context.Context, tx *sql.Tx, batchID string, syns []synapse.Synapse) error {
	if len(syns) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO synapses (batch_id, seq, type, component_index, entity_id, value, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(batch_id, seq) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("prepare synapse insert: %w", err)
	}
	defer stmt.Close()

	for _, syn := range syns {
		if _, err := stmt.ExecContext(ctx,
			batchID,
			syn.Timestamp,
			string(syn.Type),
			syn.ComponentIndex,
			syn.EntityID,
			syn.Value,
			syn.Detail,
		); err != nil {
			return fmt.Errorf("insert synapse %d: %w", syn.Timestamp, err)
		}
	}
	return nil
}

// SaveDensity upserts density records for tenantID.
func (s *Store) SaveDensity(ctx context.Context, tenantID string, records []surface.DensityRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save density: begin transaction: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, rec := range records {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO density (tenant_id, signature, confidence, observations, last_seen)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(tenant_id, signature) DO UPDATE SET
				confidence = excluded.confidence,
				observations = excluded.observations,
				last_seen = excluded.last_seen
		`, tenantID, rec.Signature, rec.Confidence, rec.Observations, rec.LastSeen); err != nil {
			return fmt.Errorf("save density %s: %w", rec.Signature, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save density: commit: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
