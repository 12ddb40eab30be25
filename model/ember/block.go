package ember

// Block is the subset of the persisted block row that the round
// lifecycle reads and settles. Transaction payloads, signatures and the
// full header live with the block pipeline; this engine only consumes
// the monetary fields and the generator key.
type Block struct {
	Height             uint64
	ID                 Identifier
	PreviousID         Identifier
	PayloadHash        Identifier
	Timestamp          uint64
	TotalAmount        int64
	TotalFee           int64
	Reward             int64
	GeneratorPublicKey PublicKey
}
