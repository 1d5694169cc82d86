package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/CCAFRICA/spm-platform-sub001/internal/insight"
	"github.com/CCAFRICA/spm-platform-sub001/internal/reconcile"
	"github.com/CCAFRICA/spm-platform-sub001/internal/resolve"
	"github.com/CCAFRICA/spm-platform-sub001/internal/surface"
	"github.com/CCAFRICA/spm-platform-sub001/internal/synapse"
)

// BatchInfo is the summary row stored for each batch.
type BatchInfo struct {
	Seq                int64   `json:"seq"`
	BatchID            string  `json:"batch_id"`
	TenantID           string  `json:"tenant_id"`
	EntityCount        int     `json:"entity_count"`
	FindingCount       int     `json:"finding_count"`
	CorrectionCount    int     `json:"correction_count"`
	InvestigationCount int     `json:"investigation_count"`
	SynapseCount       int     `json:"synapse_count"`
	MatchRate          float64 `json:"match_rate"`
	FalseGreen         bool    `json:"false_green"`
}

// ListBatches returns stored batches in the order they were saved. An empty
// tenantID lists every tenant.
//
// Returns an empty slice (not nil) if nothing is stored.
func (s *Store) ListBatches(ctx context.Context, tenantID string) ([]BatchInfo, error) {
	query := `
		SELECT seq, id, tenant_id, entity_count, finding_count, correction_count,
		       investigation_count, synapse_count, match_rate, false_green
		FROM batches`
	var args []any
	if tenantID != "" {
		query += ` WHERE tenant_id = ?`
		args = append(args, tenantID)
	}
	query += ` ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	batches := []BatchInfo{}
	for rows.Next() {
		var b BatchInfo
		var falseGreen int
		if err := rows.Scan(&b.Seq, &b.BatchID, &b.TenantID, &b.EntityCount, &b.FindingCount,
			&b.CorrectionCount, &b.InvestigationCount, &b.SynapseCount, &b.MatchRate, &falseGreen); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		b.FalseGreen = falseGreen != 0
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}
	return batches, nil
}

// GetBatch returns the summary row for batchID.
func (s *Store) GetBatch(ctx context.Context, batchID string) (BatchInfo, error) {
	var b BatchInfo
	var falseGreen int
	err := s.db.QueryRowContext(ctx, `
		SELECT seq, id, tenant_id, entity_count, finding_count, correction_count,
		       investigation_count, synapse_count, match_rate, false_green
		FROM batches WHERE id = ?
	`, batchID).Scan(&b.Seq, &b.BatchID, &b.TenantID, &b.EntityCount, &b.FindingCount,
		&b.CorrectionCount, &b.InvestigationCount, &b.SynapseCount, &b.MatchRate, &falseGreen)
	if errors.Is(err, sql.ErrNoRows) {
		return BatchInfo{}, fmt.Errorf("batch %s: %w", batchID, ErrNotFound)
	}
	if err != nil {
		return BatchInfo{}, fmt.Errorf("get batch %s: %w", batchID, err)
	}
	b.FalseGreen = falseGreen != 0
	return b, nil
}

// LoadReconciliation returns the reconciliation report saved for batchID.
func (s *Store) LoadReconciliation(ctx context.Context, batchID string) (reconcile.Report, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT report FROM reconciliation_reports WHERE batch_id = ?`, batchID,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return reconcile.Report{}, fmt.Errorf("reconciliation for batch %s: %w", batchID, ErrNotFound)
	}
	if err != nil {
		return reconcile.Report{}, fmt.Errorf("load reconciliation %s: %w", batchID, err)
	}

	var report reconcile.Report
	if err := unmarshalJSON(body, &report); err != nil {
		return reconcile.Report{}, fmt.Errorf("load reconciliation %s: %w", batchID, err)
	}
	return report, nil
}

// LoadInvestigations returns the investigations saved for batchID in the
// order they ran.
func (s *Store) LoadInvestigations(ctx context.Context, batchID string) ([]resolve.Investigation, error) {
	if _, err := s.GetBatch(ctx, batchID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT body FROM investigations
		WHERE batch_id = ?
		ORDER BY position ASC
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query investigations: %w", err)
	}
	defer rows.Close()

	invs := []resolve.Investigation{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan investigation: %w", err)
		}
		var inv resolve.Investigation
		if err := unmarshalJSON(body, &inv); err != nil {
			return nil, fmt.Errorf("load investigations %s: %w", batchID, err)
		}
		invs = append(invs, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate investigations: %w", err)
	}
	return invs, nil
}

// LoadPatterns returns the resolution patterns saved for batchID.
func (s *Store) LoadPatterns(ctx context.Context, batchID string) ([]resolve.Pattern, error) {
	if _, err := s.GetBatch(ctx, batchID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT body FROM resolution_patterns
		WHERE batch_id = ?
		ORDER BY position ASC
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query patterns: %w", err)
	}
	defer rows.Close()

	patterns := []resolve.Pattern{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		var p resolve.Pattern
		if err := unmarshalJSON(body, &p); err != nil {
			return nil, fmt.Errorf("load patterns %s: %w", batchID, err)
		}
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patterns: %w", err)
	}
	return patterns, nil
}

// LoadAnalysis returns the full analysis saved for batchID.
func (s *Store) LoadAnalysis(ctx context.Context, batchID string) (insight.FullAnalysis, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM analyses WHERE batch_id = ?`, batchID,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return insight.FullAnalysis{}, fmt.Errorf("analysis for batch %s: %w", batchID, ErrNotFound)
	}
	if err != nil {
		return insight.FullAnalysis{}, fmt.Errorf("load analysis %s: %w", batchID, err)
	}

	var a insight.FullAnalysis
	if err := unmarshalJSON(body, &a); err != nil {
		return insight.FullAnalysis{}, fmt.Errorf("load analysis %s: %w", batchID, err)
	}
	return a, nil
}

// LoadPersonaView returns the analysis for batchID filtered for persona.
func (s *Store) LoadPersonaView(ctx context.Context, batchID string, persona insight.Persona) (insight.PersonaView, error) {
	a, err := s.LoadAnalysis(ctx, batchID)
	if err != nil {
		return insight.PersonaView{}, err
	}
	return insight.RouteToPersona(a, persona), nil
}

// LoadSynapses returns the Surface log saved for batchID ordered by seq,
// optionally restricted to the given types.
func (s *Store) LoadSynapses(ctx context.Context, batchID string, types ...synapse.Type) ([]synapse.Synapse, error) {
	if _, err := s.GetBatch(ctx, batchID); err != nil {
		return nil, err
	}

	query := `
		SELECT seq, type, component_index, entity_id, value, detail
		FROM synapses
		WHERE batch_id = ?`
	args := []any{batchID}
	if len(types) > 0 {
		placeholders := make([]string, len(types))
		for i, t := range types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		query += ` AND type IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query synapses: %w", err)
	}
	defer rows.Close()

	syns := []synapse.Synapse{}
	for rows.Next() {
		var syn synapse.Synapse
		var typ string
		if err := rows.Scan(&syn.Timestamp, &typ, &syn.ComponentIndex, &syn.EntityID, &syn.Value, &syn.Detail); err != nil {
			return nil, fmt.Errorf("scan synapse: %w", err)
		}
		syn.Type = synapse.Type(typ)
		syns = append(syns, syn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate synapses: %w", err)
	}
	return syns, nil
}

// LoadDensity returns the density records stored for tenantID sorted by
// signature. An unknown tenant has no records; that is not an error.
func (s *Store) LoadDensity(ctx context.Context, tenantID string) ([]surface.DensityRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT signature, confidence, observations, last_seen
		FROM density
		WHERE tenant_id = ?
		ORDER BY signature COLLATE BINARY ASC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query density: %w", err)
	}
	defer rows.Close()

	records := []surface.DensityRecord{}
	for rows.Next() {
		var rec surface.DensityRecord
		if err := rows.Scan(&rec.Signature, &rec.Confidence, &rec.Observations, &rec.LastSeen); err != nil {
			return nil, fmt.Errorf("scan density: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate density: %w", err)
	}
	return records, nil
}
