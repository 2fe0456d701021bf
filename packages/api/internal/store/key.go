package store

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Key identifies a record inside a namespace. SK is optional.
type Key struct {
	PK string `json:"pk"`
	SK string `json:"sk,omitempty"`
}

func NewKey(pk string) Key {
	return Key{PK: pk}
}

func NewCompositeKey(pk, sk string) Key {
	return Key{PK: pk, SK: sk}
}

func (k Key) String() string {
	if k.SK == "" {
		return k.PK
	}

	return k.PK + "/" + k.SK
}

// Less orders keys by PK, then SK.
func (k Key) Less(other Key) bool {
	if k.PK != other.PK {
		return k.PK < other.PK
	}

	return k.SK < other.SK
}

// Encoded is the lexicographically sortable form used by backends.
func (k Key) Encoded() string {
	return k.PK + "\x00" + k.SK
}

func DecodeKey(encoded string) (Key, error) {
	for i := 0; i < len(encoded); i++ {
		if encoded[i] == 0 {
			return Key{PK: encoded[:i], SK: encoded[i+1:]}, nil
		}
	}

	return Key{}, fmt.Errorf("malformed encoded key %q", encoded)
}

// EncodePageIdentifier turns the last key of a page into an opaque token.
// A nil key yields a nil token.
func EncodePageIdentifier(key *Key) *string {
	if key == nil {
		return nil
	}

	// Key always marshals.
	data, _ := json.Marshal(key)
	token := base64.RawURLEncoding.EncodeToString(data)

	return &token
}

// DecodePageIdentifier reverses EncodePageIdentifier. An absent token yields a nil key.
func DecodePageIdentifier(token *string) (*Key, error) {
	if token == nil || *token == "" {
		return nil, nil
	}

	data, err := base64.RawURLEncoding.DecodeString(*token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPageIdentifier, err)
	}

	var key Key
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPageIdentifier, err)
	}

	if key.PK == "" {
		return nil, fmt.Errorf("%w: missing partition key", ErrInvalidPageIdentifier)
	}

	return &key, nil
}
