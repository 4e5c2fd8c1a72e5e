package chain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/BeeKIS/honeybee-migrations/internal/model"
)

// DefaultReturnAfter is how long after the last recorded move an unrecorded
// return is assumed to happen.
const DefaultReturnAfter = 30 * 24 * time.Hour

// ChainIntegrityError reports a chain that cannot be closed because none of
// its movements leaves a permanent apiary.
type ChainIntegrityError struct {
	MovementIDs []string
	Reason      string
}

func (e *ChainIntegrityError) Error() string {
	return fmt.Sprintf("chain integrity: %s (movements %s)", e.Reason, strings.Join(e.MovementIDs, ", "))
}

// IDFunc generates fresh opaque identifiers.
type IDFunc func() string

// Synthesizer manufactures the return leg of chains ending at a temporary apiary.
type Synthesizer struct {
	ReturnAfter time.Duration
	NewID       IDFunc
}

// NewSynthesizer returns a Synthesizer with the default return offset and
// uuid identifiers.
func NewSynthesizer() Synthesizer {
	return Synthesizer{ReturnAfter: DefaultReturnAfter, NewID: uuid.NewString}
}

// Synthesize returns the walk's movements followed by one synthesized return
// to a permanent apiary.
//
// A single move is simply reversed. A longer chain returns to the origin of
// its first permanent-origin movement, departing from the destination of its
// last movement.
func (s Synthesizer) Synthesize(table model.Table, walk Walk) ([]model.Movement, error) {
	if walk.Len() == 0 {
		return nil, eris.New("chain: cannot synthesize return for empty walk")
	}
	s = s.withDefaults()

	moves := make([]model.Movement, 0, walk.Len()+1)
	for _, r := range walk.Rows {
		if r < 0 || r >= len(table) {
			return nil, eris.Errorf("chain: walk row %d out of range", r)
		}
		moves = append(moves, table[r])
	}

	var back model.Movement
	if len(moves) == 1 {
		back = reverse(moves[0])
	} else {
		home := -1
		for i, m := range moves {
			if m.OriginKind == model.Permanent {
				home = i
				break
			}
		}
		if home < 0 {
			return nil, &ChainIntegrityError{
				MovementIDs: append([]string(nil), walk.IDs...),
				Reason:      "no movement in chain leaves a permanent apiary",
			}
		}
		back = returnHome(moves[home], moves[len(moves)-1])
	}

	back.ID = s.NewID()
	back.Date = back.Date.Add(s.ReturnAfter)
	back.Synthesized = true
	back.Consumed = true

	return append(moves, back), nil
}

func (s Synthesizer) withDefaults() Synthesizer {
	if s.ReturnAfter <= 0 {
		s.ReturnAfter = DefaultReturnAfter
	}
	if s.NewID == nil {
		s.NewID = uuid.NewString
	}
	return s
}

// reverse swaps both ends of m. The registry does not know the holding at a
// temporary site, so the origin holding is left empty.
func reverse(m model.Movement) model.Movement {
	return model.Movement{
		OriginID:      m.DestID,
		DestID:        m.OriginID,
		DestHolding:   m.OriginHolding,
		OriginKind:    m.DestKind,
		DestKind:      m.OriginKind,
		OriginCode:    m.DestCode,
		DestCode:      m.OriginCode,
		Date:          m.Date,
		Colonies:      m.Colonies,
		Origin:        m.Dest,
		Dest:          m.Origin,
		AirDistanceKm: m.AirDistanceKm,
	}
}

// returnHome builds a move from last's destination back to home's origin.
func returnHome(home, last model.Movement) model.Movement {
	return model.Movement{
		OriginID:    last.DestID,
		DestID:      home.OriginID,
		DestHolding: home.OriginHolding,
		OriginKind:  last.DestKind,
		DestKind:    home.OriginKind,
		OriginCode:  last.DestCode,
		DestCode:    home.OriginCode,
		Date:        last.Date,
		Colonies:    last.Colonies,
		Origin:      last.Dest,
		Dest:        home.Origin,
	}
}
