package cfr

import "fmt"

// historyActionCap mirrors the per-street action cap used by the NLHE game
// state so the encoded key has a fixed, small size regardless of how deep a
// betting round goes.
const historyActionCap = 8

// maxStreets is the number of betting rounds an InfoSetKey can encode
// (preflop, flop, turn, river); showdown carries no further decisions.
const maxStreets = 4

// InfoSetKey identifies the situation one player faces: which street, which
// bucket their hand falls into, and the full public action sequence so far.
// Unlike the teacher's fmt.Sprintf-based string key (sdk/solver/regret.go),
// this is a plain comparable struct of fixed-size fields, so it can be used
// directly as a Go map key with no string allocation or formatting on the
// hot path — every regret-table lookup during a traversal hits this.
type InfoSetKey struct {
	Street  uint8
	Player  uint8
	Bucket  uint8
	History [maxStreets * historyActionCap / 2]byte // 2 actions packed per byte
}

// emptyActionNibble marks an unused history slot (each action, 0-14, packs
// into a nibble) so a partially-filled street doesn't collide with a full one.
const emptyActionNibble = 0xF

// HistoryEntry is one public action taken during a hand, used to build an
// InfoSetKey's packed history field.
type HistoryEntry struct {
	Street int
	Index  int // position within the street, 0..historyActionCap-1
	Action int
}

// NewInfoSetKey builds a key from the acting player, their abstraction
// bucket, the current street, and the public history entries seen so far.
// Actions with Action > 14 or Index >= historyActionCap are rejected since
// they cannot be represented; callers must only pass entries produced by a
// Game's own bounded action alphabet and history cap.
func NewInfoSetKey(street, player, bucket int, history []HistoryEntry) (InfoSetKey, error) {
	var key InfoSetKey
	key.Street = uint8(street)
	key.Player = uint8(player)
	key.Bucket = uint8(bucket)
	for i := range key.History {
		key.History[i] = emptyActionNibble<<4 | emptyActionNibble
	}

	for _, e := range history {
		if e.Street < 0 || e.Street >= maxStreets {
			return InfoSetKey{}, fmt.Errorf("cfr: history street %d out of range", e.Street)
		}
		if e.Index < 0 || e.Index >= historyActionCap {
			return InfoSetKey{}, fmt.Errorf("cfr: history index %d out of range", e.Index)
		}
		if e.Action < 0 || e.Action > 14 {
			return InfoSetKey{}, fmt.Errorf("cfr: action %d does not fit in a nibble", e.Action)
		}
		slot := e.Street*historyActionCap + e.Index
		byteIdx := slot / 2
		if slot%2 == 0 {
			key.History[byteIdx] = key.History[byteIdx]&0x0F | byte(e.Action)<<4
		} else {
			key.History[byteIdx] = key.History[byteIdx]&0xF0 | byte(e.Action)
		}
	}
	return key, nil
}
