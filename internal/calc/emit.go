package calc

import (
	"fmt"
	"strings"

	"github.com/CCAFRICA/spm-platform-sub001/internal/synapse"
)

// Writer appends synapses to a Surface.
type Writer interface {
	Write(syn synapse.Synapse) synapse.Synapse
}

// EmitCounts reports how many synapses of each type EmitTraceSynapses wrote.
type EmitCounts struct {
	Confidence  int `json:"confidence"`
	DataQuality int `json:"data_quality"`
	Anomaly     int `json:"anomaly"`
}

// Total returns the number of synapses written.
func (c EmitCounts) Total() int {
	return c.Confidence + c.DataQuality + c.Anomaly
}

// Add accumulates o into c.
func (c *EmitCounts) Add(o EmitCounts) {
	c.Confidence += o.Confidence
	c.DataQuality += o.DataQuality
	c.Anomaly += o.Anomaly
}

// EmitTraceSynapses seeds a Surface from the calculator's execution traces.
//
// For every trace:
//   - a confidence synapse carrying the trace confidence, unless it is zero
//     (the calculator did not report one);
//   - a data_quality synapse listing inputs that resolved to nil;
//   - an anomaly synapse whose detail starts with "boundary:" when a lookup
//     landed exactly on a band edge.
func EmitTraceSynapses(w Writer, traces []ExecutionTrace) EmitCounts {
	var counts EmitCounts
	for _, tr := range traces {
		if tr.Confidence > 0 {
			w.Write(synapse.Synapse{
				Type:           synapse.TypeConfidence,
				ComponentIndex: tr.ComponentIndex,
				EntityID:       tr.EntityID,
				Value:          tr.Confidence,
				Detail:         "outcome=" + synapse.FormatNumber(tr.Outcome),
			})
			counts.Confidence++
		}

		if missing := tr.Inputs.Missing(); len(missing) > 0 {
			w.Write(synapse.Synapse{
				Type:           synapse.TypeDataQuality,
				ComponentIndex: tr.ComponentIndex,
				EntityID:       tr.EntityID,
				Value:          float64(len(missing)) / float64(tr.Inputs.Len()),
				Detail:         "missing_inputs:" + strings.Join(missing, ","),
			})
			counts.DataQuality++
		}

		if tr.Lookup.OnEdge() {
			w.Write(synapse.Synapse{
				Type:           synapse.TypeAnomaly,
				ComponentIndex: tr.ComponentIndex,
				EntityID:       tr.EntityID,
				Value:          1 - tr.Confidence,
				Detail:         boundaryDetail(tr.Lookup),
			})
			counts.Anomaly++
		}
	}
	return counts
}

func boundaryDetail(l *LookupResolution) string {
	if l.Row.OnEdge() {
		return fmt.Sprintf("boundary:row=%d", l.Row.MatchedIndex)
	}
	return fmt.Sprintf("boundary:column=%d", l.Column.MatchedIndex)
}
