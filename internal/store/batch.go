package store

// OpKind enumerates the mutating commands a Batch can record. It is kept
// store-implementation-agnostic so internal/storetest's in-memory Store can
// interpret the same Batch a RedisStore commits.
type OpKind int

const (
	OpSet OpKind = iota
	OpDel
	OpSetAdd
	OpSetRemove
)

// Op is one recorded command. Value holds the new value for OpSet or the
// member for OpSetAdd/OpSetRemove; it is unused for OpDel.
type Op struct {
	Kind  OpKind
	Key   string
	Value string
}

// Batch accumulates mutating commands to be applied atomically by Commit.
// It never touches the store directly — appending to a Batch has no
// observable effect until it is committed (spec.md §4.3: "Must not mutate
// the store directly").
type Batch struct {
	ops []Op
}

func (b *Batch) Set(key, value string) *Batch {
	b.ops = append(b.ops, Op{Kind: OpSet, Key: key, Value: value})
	return b
}

func (b *Batch) Del(key string) *Batch {
	b.ops = append(b.ops, Op{Kind: OpDel, Key: key})
	return b
}

func (b *Batch) SetAdd(key, member string) *Batch {
	b.ops = append(b.ops, Op{Kind: OpSetAdd, Key: key, Value: member})
	return b
}

func (b *Batch) SetRemove(key, member string) *Batch {
	b.ops = append(b.ops, Op{Kind: OpSetRemove, Key: key, Value: member})
	return b
}

// Len reports how many ops are queued. Used by callers that want to skip a
// Commit entirely when a Transform produced no changes.
func (b *Batch) Len() int { return len(b.ops) }

// Ops exposes the queued commands in order for a Store to replay. Not
// intended for use outside a Store.Commit implementation.
func (b *Batch) Ops() []Op { return b.ops }
