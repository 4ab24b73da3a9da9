package gas

/*
 * Licensed under LGPL-3.0.
 *
 * You can get a copy of the LGPL-3.0 License at
 *
 * https://www.gnu.org/licenses/lgpl-3.0.en.html
 *
 * @wcgcyx - https://github.com/wcgcyx
 */

import (
	"fmt"
	"sort"

	logging "github.com/ipfs/go-log"
	"github.com/wcgcyx/rubidity/vmerrors"
)

var log = logging.Logger("gas")

// Gas is measured in thousandths of a unit so fractional costs stay exact.
type Gas uint64

// Unit is one whole gas unit.
const Unit Gas = 1000

// Metered operation names.
const (
	OpCall           = "call"
	OpCreate         = "create"
	OpStorageRead    = "storage_read"
	OpStorageWrite   = "storage_write"
	OpLoopIteration  = "loop_iteration"
	OpKeccak256      = "keccak256"
	OpABIEncode      = "abi_encode"
	OpCreate2Address = "create2_address"
	OpEcrecover      = "ecrecover"
	OpEmit           = "emit"
	OpSqrt           = "sqrt"
)

// DefaultCost is charged for operations missing from the cost table.
const DefaultCost Gas = 10

// costTable maps operation name to its fixed cost.
var costTable = map[string]Gas{
	OpCall:           500,
	OpCreate:         500,
	OpStorageRead:    30,
	OpStorageWrite:   50,
	OpLoopIteration:  300,
	OpKeccak256:      30,
	OpABIEncode:      30,
	OpCreate2Address: 30,
	OpEcrecover:      30,
}

// Cost gets the cost of an operation.
func Cost(op string) Gas {
	cost, ok := costTable[op]
	if !ok {
		return DefaultCost
	}
	return cost
}

// String gets the decimal form in whole units, e.g. "0.53".
func (g Gas) String() string {
	whole := g / Unit
	frac := g % Unit
	if frac == 0 {
		return fmt.Sprintf("%d", whole)
	}
	s := fmt.Sprintf("%d.%03d", whole, frac)
	for s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	return s
}

// Entry is the accumulated usage of one operation.
type Entry struct {
	Op    string
	Count uint64
	Cost  Gas
}

// Meter charges gas for one transaction.
// A zero limit means unlimited.
type Meter struct {
	limit   Gas
	total   Gas
	entries map[string]*Entry
}

// NewMeter creates a new meter with given limit.
func NewMeter(limit Gas) *Meter {
	return &Meter{
		limit:   limit,
		entries: make(map[string]*Entry),
	}
}

// ChargeAndCheck charges the operation and fails if the limit is exceeded.
func (m *Meter) ChargeAndCheck(op string) error {
	cost := Cost(op)
	entry, ok := m.entries[op]
	if !ok {
		entry = &Entry{Op: op}
		m.entries[op] = entry
	}
	entry.Count++
	entry.Cost += cost
	m.total += cost
	if m.limit > 0 && m.total > m.limit {
		log.Debugf("Gas limit %v exceeded by %v, total %v", m.limit, op, m.total)
		return vmerrors.NewContractError(vmerrors.MsgGasLimitExceeded)
	}
	return nil
}

// Total gets the total gas charged.
func (m *Meter) Total() Gas {
	return m.total
}

// Limit gets the limit.
func (m *Meter) Limit() Gas {
	return m.limit
}

// Ledger gets the per operation usage sorted by operation name.
func (m *Meter) Ledger() []Entry {
	res := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		res = append(res, *e)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Op < res[j].Op
	})
	return res
}
