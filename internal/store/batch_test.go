package store

import "testing"

func TestBatchRecordsOpsInOrder(t *testing.T) {
	b := (&Batch{}).Set("a", "1").Del("b").SetAdd("s", "m").SetRemove("s", "n")

	if got := b.Len(); got != 4 {
		t.Fatalf("Len() = %d, want 4", got)
	}

	ops := b.Ops()
	want := []Op{
		{Kind: OpSet, Key: "a", Value: "1"},
		{Kind: OpDel, Key: "b"},
		{Kind: OpSetAdd, Key: "s", Value: "m"},
		{Kind: OpSetRemove, Key: "s", Value: "n"},
	}
	for i, w := range want {
		if ops[i] != w {
			t.Fatalf("ops[%d] = %+v, want %+v", i, ops[i], w)
		}
	}
}

func TestNewBatchIsEmpty(t *testing.T) {
	b := &Batch{}
	if b.Len() != 0 {
		t.Fatalf("fresh batch should be empty")
	}
}
