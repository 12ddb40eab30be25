package ember

import "sort"

// Delegate is a forging account. Accounts are registered by the
// transaction pipeline; the round lifecycle only mutates the monetary
// fields and the produced/missed counters.
type Delegate struct {
	PublicKey      PublicKey
	Address        string
	Username       string
	Balance        int64
	UBalance       int64
	Vote           int64
	VotesWeight    int64
	ProducedBlocks uint32
	MissedBlocks   uint32
	Fees           int64
	Rewards        int64
	Banned         bool

	// Rounds is the audit trail of round ids this account was settled
	// in, most recent last. It is what makes a settlement reversible
	// without consulting any state outside the account row.
	Rounds []uint64

	// Rank is assigned on sorted reads and never persisted.
	Rank uint32 `msgpack:"-"`
}

// DelegateList is a list of delegate accounts with canonical ordering
// helpers.
type DelegateList []*Delegate

// Sort orders the list by vote descending, breaking ties by ascending
// public key bytes, and assigns ranks 1..len.
func (l DelegateList) Sort() DelegateList {
	sort.Slice(l, func(i, j int) bool {
		if l[i].Vote != l[j].Vote {
			return l[i].Vote > l[j].Vote
		}
		return l[i].PublicKey.Less(l[j].PublicKey)
	})
	for i, delegate := range l {
		delegate.Rank = uint32(i + 1)
	}
	return l
}

// PublicKeys returns the delegates' public keys in list order.
func (l DelegateList) PublicKeys() PublicKeyList {
	keys := make(PublicKeyList, 0, len(l))
	for _, delegate := range l {
		keys = append(keys, delegate.PublicKey)
	}
	return keys
}
