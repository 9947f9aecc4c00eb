package tabular

import (
	"math"

	"github.com/paulmach/orb/geo"
	"go.uber.org/zap"

	"github.com/ccollicutt/drivelog/pkg/decoder"
	"github.com/ccollicutt/drivelog/pkg/model"
)

// metersPerDegree is the length of one degree of latitude.
const metersPerDegree = 111320.0

// minCosLat bounds the longitude cell shrink near the poles.
const minCosLat = 0.01

type gridKey struct {
	lat, lng int64
}

// Merge combines results from several files. A point within the merge
// radius of an earlier point is folded into it: extra fields union with
// later files winning, serving metrics take the latest present value, and
// geometry and identity keep the first present value, as do the extra
// fields of columns ParseSheet bound to them. Events and signaling points
// are concatenated.
func (p *Parser) Merge(results ...*model.ParseResult) (*model.ParseResult, error) {
	scale := math.Pow(10, float64(p.mergePrecision))
	grid := map[gridKey][]int{}
	var (
		points  []model.MeasurementPoint
		events  []model.EventPoint
		sig     []model.SignalingPoint
		history []model.ActiveSetConfig
		folded  int
	)

	for _, r := range results {
		if r == nil {
			continue
		}
		for _, pt := range r.MeasurementPoints {
			k := gridKey{int64(math.Round(pt.Lat * scale)), int64(math.Round(pt.Lng * scale))}
			if i, ok := p.nearest(grid, points, k, pt, scale); ok {
				p.foldPoint(&points[i], pt)
				folded++
				continue
			}
			pt.ExtraFields = pt.ExtraFields.Clone()
			grid[k] = append(grid[k], len(points))
			points = append(points, pt)
		}
		events = append(events, r.EventPoints...)
		sig = append(sig, r.SignalingPoints...)
		history = append(history, r.ActiveSetConfigHistory...)
	}

	p.logger.Debug("results merged",
		zap.Int("inputs", len(results)),
		zap.Int("points", len(points)),
		zap.Int("folded", folded))

	return decoder.Assemble(points, events, sig, history)
}

// nearest finds the closest existing point within the merge radius.
func (p *Parser) nearest(grid map[gridKey][]int, points []model.MeasurementPoint, k gridKey, pt model.MeasurementPoint, scale float64) (int, bool) {
	latReach, lngReach := p.reach(pt.Lat, scale)
	best, bestDist := -1, math.Inf(1)
	for dy := -latReach; dy <= latReach; dy++ {
		for dx := -lngReach; dx <= lngReach; dx++ {
			for _, i := range grid[gridKey{k.lat + dy, k.lng + dx}] {
				d := geo.Distance(points[i].Point(), pt.Point())
				if d <= p.mergeRadius && d < bestDist {
					best, bestDist = i, d
				}
			}
		}
	}
	return best, best >= 0
}

// reach returns how many grid cells around lat must be searched to cover
// the merge radius. Rounding can put two points one cell further apart
// than their distance alone.
func (p *Parser) reach(lat, scale float64) (int64, int64) {
	cell := metersPerDegree / scale
	cosLat := math.Max(math.Cos(lat*math.Pi/180), minCosLat)
	latReach := int64(math.Ceil(p.mergeRadius/cell)) + 1
	lngReach := int64(math.Ceil(p.mergeRadius/(cell*cosLat))) + 1
	return latReach, lngReach
}

func (p *Parser) foldPoint(dst *model.MeasurementPoint, src model.MeasurementPoint) {
	if dst.Time == "" {
		dst.Time = src.Time
	}
	if dst.Technology == "" || dst.Technology == model.TechUnknown {
		dst.Technology = src.Technology
	}
	if dst.CellIdentity.Raw == "" {
		dst.CellIdentity = src.CellIdentity
	}

	if src.ServingLevel != nil {
		dst.ServingLevel = src.ServingLevel
	}
	if src.ServingQuality != nil {
		dst.ServingQuality = src.ServingQuality
	}
	if src.ServingPCI != nil {
		dst.ServingPCI = src.ServingPCI
	}
	if src.ServingFreq != nil {
		dst.ServingFreq = src.ServingFreq
	}
	if src.Band != "" {
		dst.Band = src.Band
	}
	if len(src.Neighbors) > 0 {
		dst.Neighbors = src.Neighbors
	}

	if dst.ExtraFields == nil {
		dst.ExtraFields = model.Fields{}
	}
	for k, v := range src.ExtraFields {
		if _, ok := dst.ExtraFields[k]; ok && p.pinned[k] {
			continue
		}
		dst.ExtraFields[k] = v
	}
}
