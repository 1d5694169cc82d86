package insight

import (
	"fmt"

	"github.com/CCAFRICA/spm-platform-sub001/internal/synapse"
)

// CheckInline runs the mid-run checks with a default Engine.
func CheckInline(s Surface, cfg Config, entitiesProcessed int) []InlineInsight {
	return New(WithConfig(cfg)).CheckInline(s, entitiesProcessed)
}

// CheckInline evaluates the anomaly rate, average confidence and correction
// rate against the configured thresholds. It reads only s.Stats(), so the
// cost does not grow with the number of synapses.
//
// A triggered anomaly-rate check also writes a run-level pattern synapse
// recording the rate. Returns nil when entitiesProcessed is zero.
func (e *Engine) CheckInline(s Surface, entitiesProcessed int) []InlineInsight {
	if s == nil || entitiesProcessed <= 0 {
		return nil
	}
	stats := s.Stats()
	n := float64(entitiesProcessed)
	var out []InlineInsight

	thr := e.cfg.AnomalyRateThreshold
	if rate := float64(stats.AnomalyCount) / n; rate > thr {
		sev := overshoot(rate, thr)
		out = append(out, InlineInsight{
			Check:             CheckAnomalyRate,
			Severity:          sev,
			Message:           fmt.Sprintf("anomaly rate %s exceeds %s after %d entities", percent(rate), percent(thr), entitiesProcessed),
			CurrentValue:      rate,
			Threshold:         thr,
			EntitiesProcessed: entitiesProcessed,
			DataSource:        []string{SourceAnomalyCount, SourceEntitiesProcessed},
		})
		s.Write(synapse.Synapse{
			Type:           synapse.TypePattern,
			ComponentIndex: synapse.RunLevel,
			Value:          sev,
			Detail:         CheckAnomalyRate + ":" + synapse.FormatNumber(rate),
		})
	}

	floor := e.cfg.confidenceFloor()
	if avg, ok := stats.AverageConfidence(); ok && avg < floor {
		out = append(out, InlineInsight{
			Check:             CheckConfidenceDrop,
			Severity:          min(1, (floor-avg)/e.cfg.ConfidenceDropAlert),
			Message:           fmt.Sprintf("average confidence %s is below %s", synapse.FormatNumber(round(avg, 4)), synapse.FormatNumber(round(floor, 4))),
			CurrentValue:      avg,
			Threshold:         floor,
			EntitiesProcessed: entitiesProcessed,
			DataSource:        []string{SourceConfidence},
		})
	}

	if rate := float64(stats.CorrectionCount) / n; rate > thr {
		out = append(out, InlineInsight{
			Check:             CheckCorrectionRate,
			Severity:          overshoot(rate, thr),
			Message:           fmt.Sprintf("correction rate %s exceeds %s after %d entities", percent(rate), percent(thr), entitiesProcessed),
			CurrentValue:      rate,
			Threshold:         thr,
			EntitiesProcessed: entitiesProcessed,
			DataSource:        []string{SourceCorrectionCount, SourceEntitiesProcessed},
		})
	}

	out = cited(out, func(i InlineInsight) []string { return i.DataSource })
	if len(out) > 0 {
		e.logger.Debug("inline insights", "entities_processed", entitiesProcessed, "count", len(out))
	}
	return out
}

// overshoot scales linearly with how far value exceeds threshold, reaching
// 1.0 at twice the threshold.
func overshoot(value, threshold float64) float64 {
	if threshold <= 0 {
		return 1
	}
	return min(1, max(0, (value-threshold)/threshold))
}
