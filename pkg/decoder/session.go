package decoder

import (
	"go.uber.org/zap"

	"github.com/ccollicutt/drivelog/pkg/model"
	"github.com/ccollicutt/drivelog/pkg/parser"
	"github.com/ccollicutt/drivelog/pkg/signaling"
)

// session is the mutable state of one decode pass.
type session struct {
	d        *Decoder
	resolver *Resolver
	engine   *signaling.Engine

	ueTxPower    *float64
	nodebTxPower *float64
	tpc          *int

	// lastNeighbors are the labeled neighbors of the latest measurement
	// that reported any.
	lastNeighbors []model.NeighborMeasurement

	points    []model.MeasurementPoint
	events    []model.EventPoint
	signaling []model.SignalingPoint

	seenSources map[string]bool
	meta        Metadata
}

func newSession(d *Decoder, t *Tracks) *session {
	return &session{
		d:           d,
		resolver:    NewResolver(t),
		engine:      signaling.NewEngine(),
		seenSources: make(map[string]bool),
	}
}

func (s *session) handle(rec *parser.Record) {
	if rec.Source != "" && !s.seenSources[rec.Source] {
		s.seenSources[rec.Source] = true
		s.meta.Sources = append(s.meta.Sources, rec.Source)
	}

	stamp := rec.Stamp()
	var pos *model.GpsSample
	if g, ok := s.resolver.GPS(stamp); ok {
		pos = &g
	}

	tag := rec.Tag()
	switch tag {
	case "CELLMEAS":
		s.measurement(rec, pos)
		return
	case "TXPC":
		if v, ok := rec.Float(4); ok {
			s.ueTxPower = model.Float(v)
		}
		if v, ok := rec.Int(5); ok {
			s.tpc = model.Int(v)
		}
	case "RXPC":
		if v, ok := rec.Float(5); ok {
			s.nodebTxPower = model.Float(v)
		}
	case "RLCBLER", "MACBLER":
		s.bler(rec, pos)
	}

	if signaling.Handles(tag) {
		s.events = append(s.events, s.engine.Observe(rec, pos)...)
	}
	if signaling.IsSignaling(tag) {
		s.signalingPoint(rec, pos)
	}
}

func (s *session) identity(stamp parser.Stamp) *model.IdentityState {
	if id, ok := s.resolver.Identity(stamp); ok {
		return &id
	}
	return nil
}

func (s *session) measurement(rec *parser.Record, pos *model.GpsSample) {
	if pos == nil {
		s.meta.Unpositioned++
		return
	}

	p, info := s.d.DecodeMeasurement(rec, s.identity(rec.Stamp()), *pos)
	if !info.KnownTechnology {
		s.meta.UnknownTechnology++
		code, _ := rec.String(3)
		s.d.logger.Debug("unknown technology code, using generic layout",
			zap.String("code", code),
			zap.String("source", rec.Source),
			zap.Int("line", rec.LineNum))
	}
	if info.Swapped {
		s.d.logger.Debug("serving frequency and level swapped",
			zap.String("source", rec.Source),
			zap.Int("line", rec.LineNum))
	}

	if ev, ok := s.engine.ObserveActiveSet(info.ActiveSetCount, p.Time, pos); ok {
		s.events = append(s.events, ev)
	}

	p.ExtraFields["RRC State"] = string(s.engine.State())
	p.ExtraFields.SetFloat("UE Tx Power", s.ueTxPower)
	p.ExtraFields.SetFloat("NodeB Tx Power", s.nodebTxPower)
	p.ExtraFields.SetInt("TPC", s.tpc)

	if len(info.RawNeighbors) > 0 {
		s.lastNeighbors = p.Neighbors
	}
	s.points = append(s.points, p)
}

// bler emits a measurement point carrying DL (field 4) and UL (field 10)
// block error rates.
func (s *session) bler(rec *parser.Record, pos *model.GpsSample) {
	if pos == nil || rec.Len() <= 10 {
		return
	}
	dl := optFloat(rec, 4)
	ul := optFloat(rec, 10)
	if dl == nil && ul == nil {
		return
	}

	tech := model.TechLTE
	if code, _ := rec.Int(3); code == techUMTS {
		tech = model.TechUMTS
	}

	p := model.MeasurementPoint{
		Lat:          pos.Lat,
		Lng:          pos.Lng,
		Time:         rec.Time(),
		Technology:   tech,
		CellIdentity: cellIdentity(s.identity(rec.Stamp())),
	}
	f := model.Fields{
		"Time": p.Time,
		"Tech": string(tech),
	}
	f.SetString("Cell ID", p.CellIdentity.Raw)
	f.SetFloat("BLER DL", dl)
	f.SetFloat("BLER UL", ul)
	p.ExtraFields = f

	s.points = append(s.points, p)
}

func (s *session) signalingPoint(rec *parser.Record, pos *model.GpsSample) {
	sp := model.SignalingPoint{
		Time:     rec.Time(),
		Message:  signaling.MessageName(rec),
		RawLine:  rec.Raw,
		Identity: s.identity(rec.Stamp()),
	}
	if pos != nil {
		sp.Lat = model.Float(pos.Lat)
		sp.Lng = model.Float(pos.Lng)
	}

	n := len(s.lastNeighbors)
	if n > s.d.snapshotNeighbors {
		n = s.d.snapshotNeighbors
	}
	if n > 0 {
		sp.SnapshotNeighbors = append([]model.NeighborMeasurement(nil), s.lastNeighbors[:n]...)
	}
	s.signaling = append(s.signaling, sp)
}
