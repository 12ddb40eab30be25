// Package dpos generates the ordered delegate slates authorizing the
// forging slots of each round.
//
// Two selection algorithms exist, switched by height. v1 ranks
// delegates by vote and shuffles the top slots deterministically; v2
// draws delegates weighted by vote weight, without replacement, from a
// seeded ChaCha20 stream. Both are pure functions of the persisted
// state visible before the round's first height plus the chain
// constants, so all nodes derive identical slates.
package dpos

import (
	"encoding/binary"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/sha3"

	"github.com/emberchain/ember-go/config"
	"github.com/emberchain/ember-go/consensus/rounds"
	"github.com/emberchain/ember-go/crypto/random"
	"github.com/emberchain/ember-go/model/ember"
	"github.com/emberchain/ember-go/storage"
)

// stream customizers separating the v1 and v2 draws of the same PRG
// seed space
var (
	customizerV1 = []byte("slate-v1")
	customizerV2 = []byte("slate-v2")
)

// Generator produces and caches the delegate slate of each round.
type Generator struct {
	log      zerolog.Logger
	cfg      config.Config
	accounts storage.Accounts
	blocks   storage.Blocks
	cache    *lru.Cache
}

func NewGenerator(log zerolog.Logger, cfg config.Config, accounts storage.Accounts, blocks storage.Blocks) (*Generator, error) {
	cache, err := lru.New(cfg.SlateCacheSize)
	if err != nil {
		return nil, fmt.Errorf("could not create slate cache: %w", err)
	}
	return &Generator{
		log:      log.With().Str("component", "slate_generator").Logger(),
		cfg:      cfg,
		accounts: accounts,
		blocks:   blocks,
		cache:    cache,
	}, nil
}

// GenerateList returns the ordered list of public keys authorized to
// forge the slots of the round containing the given height. Position i
// is the authorized forger of slot i.
func (g *Generator) GenerateList(height uint64) (ember.PublicKeyList, error) {
	round := rounds.RoundOf(height, g.cfg.ActiveDelegates)
	v2 := g.cfg.DPoSV2FirstHeight > 0 && height >= g.cfg.DPoSV2FirstHeight

	type slateKey struct {
		round uint64
		v2    bool
	}
	key := slateKey{round: round, v2: v2}
	if cached, ok := g.cache.Get(key); ok {
		return cached.(ember.PublicKeyList), nil
	}

	var slate ember.PublicKeyList
	var err error
	if v2 {
		slate, err = g.v2Slate(round)
	} else {
		slate, err = g.v1Slate(round)
	}
	if err != nil {
		return nil, fmt.Errorf("could not generate slate for round %d: %w", round, err)
	}

	g.cache.Add(key, slate)
	g.log.Debug().Uint64("round", round).Bool("dposv2", v2).Int("slots", len(slate)).Msg("slate generated")
	return slate, nil
}

// v1Slate ranks all delegates with a positive vote by vote descending
// (ascending public key as tie-break), keeps the top slots, and
// shuffles them with a PRG keyed by the round number.
func (g *Generator) v1Slate(round uint64) (ember.PublicKeyList, error) {
	delegates, err := g.accounts.Delegates(storage.DelegateFilter{VotersOnly: true})
	if err != nil {
		return nil, fmt.Errorf("could not list voted delegates: %w", err)
	}
	if len(delegates) == 0 {
		return nil, fmt.Errorf("no delegates with positive vote")
	}
	if uint64(len(delegates)) > g.cfg.ActiveDelegates {
		delegates = delegates[:g.cfg.ActiveDelegates]
	}

	var roundBytes [8]byte
	binary.BigEndian.PutUint64(roundBytes[:], round)
	seed := sha3.Sum256(roundBytes[:])

	rng, err := random.NewChacha20PRG(seed[:], customizerV1)
	if err != nil {
		return nil, fmt.Errorf("could not create slate PRG: %w", err)
	}

	slate := delegates.PublicKeys()
	err = rng.Shuffle(len(slate), func(i, j int) {
		slate[i], slate[j] = slate[j], slate[i]
	})
	if err != nil {
		return nil, fmt.Errorf("could not shuffle slate: %w", err)
	}
	return slate, nil
}

// v2Slate draws delegates weighted by vote weight, without replacement,
// from a PRG keyed by the id of the last block of the preceding round.
// That block is the newest chain data fixed before the round starts, so
// the slate stays a pure function of pre-round state.
func (g *Generator) v2Slate(round uint64) (ember.PublicKeyList, error) {
	candidates, err := g.accounts.Delegates(storage.DelegateFilter{WeightedOnly: true, ExcludeBanned: true})
	if err != nil {
		return nil, fmt.Errorf("could not list weighted delegates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no unbanned delegates with positive vote weight")
	}

	seed, err := g.v2Seed(round)
	if err != nil {
		return nil, err
	}
	rng, err := random.NewChacha20PRG(seed, customizerV2)
	if err != nil {
		return nil, fmt.Errorf("could not create slate PRG: %w", err)
	}

	count := g.cfg.ActiveDelegates
	if uint64(len(candidates)) < count {
		count = uint64(len(candidates))
	}
	return weightedSelection(rng, candidates, int(count))
}

// v2Seed hashes the id of the tail block of the preceding round. The
// genesis round has no predecessor and seeds from the zero id.
func (g *Generator) v2Seed(round uint64) ([]byte, error) {
	tailID := ember.ZeroID
	if round > 1 {
		tail := rounds.LastInRound(round-1, g.cfg.ActiveDelegates)
		block, err := g.blocks.ByHeight(tail)
		if err != nil {
			return nil, fmt.Errorf("could not read tail block of round %d: %w", round-1, err)
		}
		tailID = block.ID
	}
	seed := sha3.Sum256(tailID[:])
	return seed[:], nil
}

// weightedSelection draws count delegates without replacement. Each
// draw picks a value in [0, remaining total weight), locates the
// delegate whose cumulative weight bracket contains it, and removes the
// delegate from the pool.
func weightedSelection(rng random.Rand, candidates ember.DelegateList, count int) (ember.PublicKeyList, error) {
	pool := make(ember.DelegateList, len(candidates))
	copy(pool, candidates)

	weights := make([]uint64, len(pool))
	var total uint64
	for i, candidate := range pool {
		weights[i] = uint64(candidate.VotesWeight)
		total += weights[i]
	}
	if total == 0 {
		return nil, fmt.Errorf("total vote weight must be greater than 0")
	}

	selected := make(ember.PublicKeyList, 0, count)
	cumsum := make([]uint64, len(pool))
	for len(selected) < count {
		var sum uint64
		for i, weight := range weights {
			sum += weight
			cumsum[i] = sum
		}

		draw := rng.UintN(total)
		picked := binarySearchStrictlyBigger(draw, cumsum)
		selected = append(selected, pool[picked].PublicKey)

		total -= weights[picked]
		pool = append(pool[:picked], pool[picked+1:]...)
		weights = append(weights[:picked], weights[picked+1:]...)
		cumsum = cumsum[:len(weights)]
	}
	return selected, nil
}

// binarySearchStrictlyBigger finds the index of the first item in the
// given non-decreasing array that is strictly bigger than the value.
// The value must be less than the last item.
func binarySearchStrictlyBigger(value uint64, arr []uint64) int {
	left := 0
	right := len(arr) - 1
	mid := len(arr) >> 1
	for {
		if arr[mid] <= value {
			left = mid + 1
		} else {
			right = mid
		}
		if left >= right {
			return left
		}
		mid = (left + right) >> 1
	}
}
