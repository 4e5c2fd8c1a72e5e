// Package chain reconstructs migration chains from year-scoped movement
// tables and closes chains that end at a temporary apiary with a synthesized
// return trip.
package chain

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/BeeKIS/honeybee-migrations/internal/model"
)

// Walk is the outcome of following a starting movement forward through a table.
type Walk struct {
	// Rows are table positions in chain order. The caller marks them consumed.
	Rows []int
	// IDs are the movement ids in chain order.
	IDs []string
	// FinalKind is the apiary kind of the last destination.
	FinalKind model.ApiaryKind
}

// Len returns the number of movements in the walk.
func (w Walk) Len() int { return len(w.Rows) }

// Walker follows origin to destination links through a movement table.
type Walker struct {
	// CloseAtPermanent ends a chain as soon as a successor reaches a
	// permanent apiary instead of walking until no successor exists.
	CloseAtPermanent bool
}

// Walk assembles the chain that begins at table row start. The table is not
// modified; rows already marked consumed are never chosen as successors.
func (w Walker) Walk(table model.Table, start int) (Walk, error) {
	if start < 0 || start >= len(table) {
		return Walk{}, eris.Errorf("chain: start row %d out of range (table has %d rows)", start, len(table))
	}
	first := table[start]
	if first.Consumed {
		return Walk{}, eris.Errorf("chain: start movement %s already consumed", first.ID)
	}
	if first.OriginKind != model.Permanent {
		return Walk{}, eris.Errorf("chain: start movement %s does not leave a permanent apiary", first.ID)
	}

	walk := Walk{
		Rows: []int{start},
		IDs:  []string{first.ID},
	}
	cur := start
	for {
		next := successor(table, cur)
		if next < 0 {
			break
		}
		walk.Rows = append(walk.Rows, next)
		walk.IDs = append(walk.IDs, table[next].ID)
		zap.L().Debug("chain: next move",
			zap.String("from", table[next].OriginID),
			zap.String("to", table[next].DestID),
			zap.String("movement", table[next].ID),
		)
		cur = next
		if w.CloseAtPermanent && table[cur].DestKind == model.Permanent {
			break
		}
	}
	walk.FinalKind = table[cur].DestKind
	return walk, nil
}

// successor returns the first unconsumed row after cur whose origin is cur's
// destination, or -1.
//
// When several rows qualify the first by table order wins. Table order is
// not necessarily date order, so this can link a move to a later branch of
// the same operation; kept as is for reproducibility of the published
// figures.
func successor(table model.Table, cur int) int {
	dest := table[cur].DestID
	for i := cur + 1; i < len(table); i++ {
		if !table[i].Consumed && table[i].OriginID == dest {
			return i
		}
	}
	return -1
}
