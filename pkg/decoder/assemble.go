package decoder

import (
	"errors"

	"github.com/ccollicutt/drivelog/pkg/model"
)

// ErrNoData is returned when a pass produces no measurement, signaling or
// event points at all.
var ErrNoData = errors.New("no data found")

// techSampleSize is the number of leading measurements used to detect
// the overall technology.
const techSampleSize = 50

// Assemble builds the result of a pass. It returns ErrNoData when every
// bucket is empty.
func Assemble(points []model.MeasurementPoint, events []model.EventPoint, sig []model.SignalingPoint, history []model.ActiveSetConfig) (*model.ParseResult, error) {
	if len(points) == 0 && len(events) == 0 && len(sig) == 0 {
		return nil, ErrNoData
	}

	r := &model.ParseResult{
		MeasurementPoints:      points,
		EventPoints:            events,
		SignalingPoints:        sig,
		ActiveSetConfigHistory: history,
		DetectedTechnology:     DetectTechnology(points),
	}
	if r.MeasurementPoints == nil {
		r.MeasurementPoints = []model.MeasurementPoint{}
	}
	if r.EventPoints == nil {
		r.EventPoints = []model.EventPoint{}
	}
	if r.SignalingPoints == nil {
		r.SignalingPoints = []model.SignalingPoint{}
	}
	if r.ActiveSetConfigHistory == nil {
		r.ActiveSetConfigHistory = []model.ActiveSetConfig{}
	}
	return r, nil
}

// DetectTechnology classifies a log by the serving frequencies of its first
// measurements. Any UMTS channel number wins; otherwise the average channel
// separates GSM, LTE and NR.
func DetectTechnology(points []model.MeasurementPoint) string {
	if len(points) > techSampleSize {
		points = points[:techSampleSize]
	}

	var freqs []float64
	for i := range points {
		if f := points[i].ServingFreq; f != nil && *f > 0 {
			freqs = append(freqs, *f)
		}
	}
	if len(freqs) == 0 {
		return model.DetectedUnknown
	}

	sum := 0.0
	for _, f := range freqs {
		if isUMTSChannel(f) {
			return model.Detected3G
		}
		sum += f
	}

	switch avg := sum / float64(len(freqs)); {
	case avg < 1000:
		return model.Detected2G
	case avg > 120000:
		return model.Detected5G
	default:
		return model.Detected4G
	}
}

func isUMTSChannel(f float64) bool {
	return (f >= 10500 && f <= 10900) ||
		(f >= 2900 && f <= 3100) ||
		(f >= 4300 && f <= 4500)
}
