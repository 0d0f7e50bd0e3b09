package model

import "encoding/json"

// PolicyRule is one [text, parsed] pair as described in spec.md §3: the raw
// rule text as written by the operator, plus its parsed form produced by
// the upstream policy compiler. Parsed is kept as opaque JSON — this cache
// never evaluates policy, it only stores and serves what the directory gave it.
type PolicyRule struct {
	Text   string          `json:"text"`
	Parsed json.RawMessage `json:"parsed,omitempty"`
}

// Policy is a named set of rules owned by an account.
type Policy struct {
	Type    string       `json:"type"`
	UUID    string       `json:"uuid"`
	Name    string       `json:"name"`
	Account string       `json:"account"`
	Rules   []PolicyRule `json:"rules,omitempty"`
}

func (*Policy) Kind() Kind { return KindPolicy }
