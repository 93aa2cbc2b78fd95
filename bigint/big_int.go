package bigint

import (
	"fmt"
	"math/big"
	"strings"
)

// BigInt marshals as a decimal string so smallest-unit amounts survive JSON
// without float truncation.
type BigInt struct {
	*big.Int
}

func New(i int64) *BigInt {
	return &BigInt{Int: big.NewInt(i)}
}

func FromBig(i *big.Int) *BigInt {
	if i == nil {
		return &BigInt{Int: big.NewInt(0)}
	}
	return &BigInt{Int: new(big.Int).Set(i)}
}

func (b *BigInt) MarshalJSON() ([]byte, error) {
	if b == nil || b.Int == nil {
		return []byte(`"0"`), nil
	}
	return []byte(`"` + b.Int.String() + `"`), nil
}

func (b *BigInt) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		b.Int = big.NewInt(0)
		return nil
	}
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return fmt.Errorf("invalid integer amount %q", raw)
	}
	b.Int = value
	return nil
}
