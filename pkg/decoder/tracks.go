package decoder

import (
	"github.com/ccollicutt/drivelog/pkg/model"
	"github.com/ccollicutt/drivelog/pkg/parser"
	"github.com/ccollicutt/drivelog/pkg/signaling"
	"github.com/ccollicutt/drivelog/pkg/track"
)

// Technology codes carried in field 3 of CELLMEAS and CHI records.
const (
	techUMTS = 5
	techLTE  = 7
)

// Tracks are the time-indexed context tables built by the first pass.
type Tracks struct {
	// Identity holds serving identity snapshots from identity records.
	Identity *track.Track[model.IdentityState]

	// Fallback holds identities recovered from signaling hex payloads.
	Fallback *track.Track[model.IdentityState]

	GPS *track.Track[model.GpsSample]

	// ConfigHistory lists distinct Event 1A configurations in file order.
	ConfigHistory []model.ActiveSetConfig
}

// BuildTracks runs the first pass over records and returns sorted tracks.
// Identity snapshots are completed forward: a field a snapshot does not
// carry is inherited from the preceding snapshot of the same technology.
func BuildTracks(records []*parser.Record) *Tracks {
	t := &Tracks{
		Identity:      track.New[model.IdentityState](),
		Fallback:      track.New[model.IdentityState](),
		GPS:           track.New[model.GpsSample](),
		ConfigHistory: []model.ActiveSetConfig{},
	}

	for _, rec := range records {
		switch rec.Tag() {
		case "CHI":
			t.addCellHandoverInfo(rec)
		case "EDCHI", "PCHI":
			if id, ok := partialIdentity(rec); ok {
				t.Identity.Add(rec.Stamp(), id)
			}
		case "CREL":
			if id, ok := cellReselection(rec); ok {
				t.Identity.Add(rec.Stamp(), id)
			}
		case "GPS":
			if g, ok := gpsSample(rec); ok {
				t.GPS.Add(rec.Stamp(), g)
			}
		case signaling.TagRRCSM:
			if id, ok := signalingIdentity(rec); ok {
				t.Fallback.Add(rec.Stamp(), id)
			}
		}
	}

	t.Identity.Sort()
	t.Fallback.Sort()
	t.GPS.Sort()
	fillForward(t.Identity)
	fillForward(t.Fallback)
	return t
}

func (t *Tracks) addCellHandoverInfo(rec *parser.Record) {
	tech, _ := rec.Int(3)
	switch tech {
	case techUMTS:
		if id, ok := umtsIdentity(rec); ok {
			t.Identity.Add(rec.Stamp(), id)
		}
		if cfg, ok := activeSetConfig(rec); ok {
			n := len(t.ConfigHistory)
			if n == 0 || !t.ConfigHistory[n-1].SameSettings(cfg) {
				t.ConfigHistory = append(t.ConfigHistory, cfg)
			}
		}
	case techLTE:
		if id, ok := lteIdentity(rec); ok {
			t.Identity.Add(rec.Stamp(), id)
		}
	}
}

func fillForward(tr *track.Track[model.IdentityState]) {
	for i := 1; i < tr.Len(); i++ {
		prev := tr.Entry(i - 1).Value
		cur := tr.Entry(i).Value
		if cur.Technology != "" && prev.Technology != "" && cur.Technology != prev.Technology {
			continue
		}
		tr.Update(i, cur.Inherit(prev))
	}
}

// Resolver answers "what identity and position held at time t" for the
// second pass. Lookups are expected in non-decreasing time order but stay
// correct when they are not.
type Resolver struct {
	identity *track.Cursor[model.IdentityState]
	fallback *track.Cursor[model.IdentityState]
	gps      *track.Cursor[model.GpsSample]
}

// NewResolver returns a resolver over t.
func NewResolver(t *Tracks) *Resolver {
	return &Resolver{
		identity: track.NewCursor(t.Identity),
		fallback: track.NewCursor(t.Fallback),
		gps:      track.NewCursor(t.GPS),
	}
}

// Identity returns the authoritative identity as of stamp, else the
// recovered fallback identity.
func (r *Resolver) Identity(stamp parser.Stamp) (model.IdentityState, bool) {
	if id, ok := r.identity.At(stamp); ok {
		return id, true
	}
	return r.fallback.At(stamp)
}

// GPS returns the latest fix at or before stamp.
func (r *Resolver) GPS(stamp parser.Stamp) (model.GpsSample, bool) {
	return r.gps.At(stamp)
}
