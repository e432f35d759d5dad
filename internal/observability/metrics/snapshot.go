package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// QASnapshot summarizes the QA score histogram across modes.
type QASnapshot struct {
	Drafts     int64   `json:"drafts"`
	MeanScore  float64 `json:"mean_score"`
	BelowSixty int64   `json:"below_sixty"`
}

// SnapshotQA reads the QA histogram from the gatherer. Missing data yields a
// zero snapshot.
func SnapshotQA(gatherer prometheus.Gatherer) QASnapshot {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		return QASnapshot{}
	}

	var family *dto.MetricFamily
	for _, mf := range mfs {
		if mf != nil && mf.GetName() == QAScoreMetric {
			family = mf
			break
		}
	}
	if family == nil {
		return QASnapshot{}
	}

	var (
		count uint64
		sum   float64
		below uint64
	)
	for _, metric := range family.Metric {
		h := metric.GetHistogram()
		if h == nil {
			continue
		}
		count += h.GetSampleCount()
		sum += h.GetSampleSum()
		for _, b := range h.Bucket {
			// Scores are integers, so le=59 holds everything below 60.
			if b.GetUpperBound() == 59 {
				below += b.GetCumulativeCount()
			}
		}
	}
	if count == 0 {
		return QASnapshot{}
	}
	return QASnapshot{
		Drafts:     int64(count),
		MeanScore:  sum / float64(count),
		BelowSixty: int64(below),
	}
}
