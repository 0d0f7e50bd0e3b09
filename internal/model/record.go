// Package model defines the tagged record variants stored in the
// key-value cache: accounts, users, roles, policies and account-groups.
// Every record is a dynamically-typed JSON bag on the wire, discriminated
// by its "type" field; this package makes that shape explicit with one
// Go struct per variant instead of threading map[string]any through the
// replicator and the HTTP handlers.
package model

import "encoding/json"

// Kind identifies which concrete record a JSON blob decodes into.
type Kind string

const (
	KindAccount        Kind = "account"
	KindUser           Kind = "user"
	KindRole           Kind = "role"
	KindPolicy         Kind = "policy"
	KindGroup          Kind = "group"
	KindTempCredential Kind = "temporary"
)

// Record is implemented by every stored variant.
type Record interface {
	Kind() Kind
}

// typeTag is embedded only for decoding; encoding always re-derives Type
// from the concrete struct's Kind() so callers can never forget to set it.
type typeTag struct {
	Type string `json:"type"`
}

// Marshal encodes a Record as JSON, stamping its "type" discriminator.
func Marshal(r Record) ([]byte, error) {
	switch v := r.(type) {
	case *Account:
		v.Type = string(KindAccount)
		return json.Marshal(v)
	case *User:
		v.Type = string(KindUser)
		return json.Marshal(v)
	case *Role:
		v.Type = string(KindRole)
		return json.Marshal(v)
	case *Policy:
		v.Type = string(KindPolicy)
		return json.Marshal(v)
	case *Group:
		v.Type = string(KindGroup)
		return json.Marshal(v)
	case *TempCredential:
		v.Type = string(KindTempCredential)
		return json.Marshal(v)
	default:
		return nil, ErrUnknownKind
	}
}

// Decode peeks the "type" field of raw and unmarshals into the matching
// concrete struct, returning it through the Record interface.
func Decode(raw []byte) (Record, error) {
	var tag typeTag
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, err
	}

	switch Kind(tag.Type) {
	case KindAccount:
		var a Account
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return &a, nil
	case KindUser:
		var u User
		if err := json.Unmarshal(raw, &u); err != nil {
			return nil, err
		}
		return &u, nil
	case KindRole:
		var r Role
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return &r, nil
	case KindPolicy:
		var p Policy
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return &p, nil
	case KindGroup:
		var g Group
		if err := json.Unmarshal(raw, &g); err != nil {
			return nil, err
		}
		return &g, nil
	case KindTempCredential:
		var t TempCredential
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return &t, nil
	default:
		return nil, ErrUnknownKind
	}
}
