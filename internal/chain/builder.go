package chain

import (
	"errors"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/BeeKIS/honeybee-migrations/internal/model"
)

// DefaultMinColonies is the smallest load kept when a distance cutoff is active.
const DefaultMinColonies = 8

// Threshold selects the movements a batch considers.
type Threshold struct {
	// MinAirDistanceKm drops movements shorter than this air distance.
	MinAirDistanceKm float64
	// MinColonies drops smaller loads, only when MinAirDistanceKm is nonzero.
	MinColonies int
}

// Failure records a chain that could not be finalized.
type Failure struct {
	Year        int
	MovementIDs []string
	Message     string
}

// YearSummary counts what one year's batch produced.
type YearSummary struct {
	Year        int
	Movements   int
	Chains      int
	Synthesized int
	Failures    int
}

// Result is the output of one threshold run.
type Result struct {
	Threshold   Threshold
	Rows        []model.ChainRow
	Chains      int
	Synthesized int
	Failures    []Failure
	Years       []YearSummary
}

// SynthesizeFunc closes a walk that ends at a temporary apiary.
type SynthesizeFunc func(model.Table, Walk) ([]model.Movement, error)

// Builder drives chain discovery across all years of a movement table.
type Builder struct {
	Walker      Walker
	Synthesizer Synthesizer
	// Synthesize replaces Synthesizer.Synthesize when set.
	Synthesize SynthesizeFunc
	NewChainID IDFunc
	// AirDistance, when set, fills in the air distance of synthesized moves.
	AirDistance func(a, b model.Point) float64
}

// NewBuilder returns a Builder with default walker, synthesizer and uuid ids.
func NewBuilder() *Builder {
	return &Builder{
		Synthesizer: NewSynthesizer(),
		NewChainID:  uuid.NewString,
	}
}

// Build reconstructs chains for every year in table under threshold th.
// The input table is not modified.
func (b *Builder) Build(table model.Table, th Threshold) (Result, error) {
	if th.MinAirDistanceKm < 0 {
		return Result{}, eris.Errorf("chain: negative air distance threshold %v", th.MinAirDistanceKm)
	}
	newChainID := b.NewChainID
	if newChainID == nil {
		newChainID = uuid.NewString
	}

	synthesize := b.Synthesize
	if synthesize == nil {
		synthesize = b.Synthesizer.Synthesize
	}

	res := Result{Threshold: th}
	for _, year := range table.Years() {
		yr, err := b.buildYear(Filter(table, year, th), year, newChainID, synthesize)
		if err != nil {
			return Result{}, eris.Wrapf(err, "chain: build year %d", year)
		}
		res.Rows = append(res.Rows, yr.rows...)
		res.Chains += yr.summary.Chains
		res.Synthesized += yr.summary.Synthesized
		res.Failures = append(res.Failures, yr.failures...)
		res.Years = append(res.Years, yr.summary)
	}

	zap.L().Info("chain: threshold complete",
		zap.Float64("min_air_km", th.MinAirDistanceKm),
		zap.Int("min_colonies", th.MinColonies),
		zap.Int("chains", res.Chains),
		zap.Int("rows", len(res.Rows)),
		zap.Int("synthesized", res.Synthesized),
		zap.Int("failures", len(res.Failures)),
	)
	return res, nil
}

// BuildAll runs Build once per threshold. Each run starts from unconsumed
// movements, so thresholds are independent of each other.
func (b *Builder) BuildAll(table model.Table, thresholds []Threshold) ([]Result, error) {
	out := make([]Result, 0, len(thresholds))
	for _, th := range thresholds {
		res, err := b.Build(table, th)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// Filter returns a private copy of the year's movements that pass th, with
// consumption flags reset.
func Filter(table model.Table, year int, th Threshold) model.Table {
	var out model.Table
	for _, m := range table {
		if m.Year() != year || m.AirDistanceKm < th.MinAirDistanceKm {
			continue
		}
		if th.MinAirDistanceKm != 0 && m.Colonies < th.MinColonies {
			continue
		}
		m.Consumed = false
		out = append(out, m)
	}
	return out
}

type yearResult struct {
	rows     []model.ChainRow
	failures []Failure
	summary  YearSummary
}

func (b *Builder) buildYear(t model.Table, year int, newChainID IDFunc, synthesize SynthesizeFunc) (yearResult, error) {
	log := zap.L().With(zap.Int("year", year))
	yr := yearResult{summary: YearSummary{Year: year, Movements: len(t)}}

	for i := range t {
		if t[i].OriginKind != model.Permanent || t[i].Consumed {
			continue
		}

		walk, err := b.Walker.Walk(t, i)
		if err != nil {
			return yearResult{}, err
		}
		for _, r := range walk.Rows {
			t[r].Consumed = true
		}

		var moves []model.Movement
		if walk.FinalKind == model.Temporary {
			moves, err = synthesize(t, walk)
			var cie *ChainIntegrityError
			if errors.As(err, &cie) {
				log.Warn("chain: integrity failure", zap.Strings("movements", cie.MovementIDs), zap.Error(err))
				yr.failures = append(yr.failures, Failure{Year: year, MovementIDs: cie.MovementIDs, Message: cie.Error()})
				yr.summary.Failures++
				continue
			}
			if err != nil {
				return yearResult{}, err
			}
			back := &moves[len(moves)-1]
			if b.AirDistance != nil {
				back.AirDistanceKm = b.AirDistance(back.Origin, back.Dest)
			}
			yr.summary.Synthesized++
			log.Debug("chain: closed with synthesized return", zap.Int("moves", walk.Len()))
		} else {
			moves = make([]model.Movement, 0, walk.Len())
			for _, r := range walk.Rows {
				moves = append(moves, t[r])
			}
		}

		id := newChainID()
		for _, m := range moves {
			yr.rows = append(yr.rows, model.ChainRow{Movement: m, ChainID: id, BatchYear: year})
		}
		yr.summary.Chains++
	}
	return yr, nil
}
