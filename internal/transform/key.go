package transform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/xxh3"

	"tablekit/internal/table"
)

// Keyer encodes the values of a fixed column set into a deterministic string
// key. Equal tuples always encode identically:
//
//   - fields are joined with 0x1f, a control byte that does not occur in
//     field data,
//   - every field carries a one-byte type tag (s/i/f/t/b) so "1" the string
//     and 1 the integer stay distinct,
//   - null encodes as a bare 0x00, so null groups with null: a partition of
//     its own per key tuple. The duplicate scan must treat missing identity
//     fields consistently, not drop the rows that have them.
//
// An empty column set yields the empty key for every row: one global
// partition.
type Keyer struct {
	cols []int
	name string // operation label for error context
}

// NewKeyer resolves the named columns against t. A missing column fails with
// ErrSchema.
func NewKeyer(t *table.Table, op string, cols []string) (*Keyer, error) {
	k := &Keyer{cols: make([]int, len(cols)), name: op}
	for i, c := range cols {
		ci := t.ColumnIndex(c)
		if ci < 0 {
			return nil, fmt.Errorf("%s: column %q not found: %w", op, c, ErrSchema)
		}
		k.cols[i] = ci
	}
	return k, nil
}

// Key encodes the key tuple of one row.
func (k *Keyer) Key(r table.Row) string {
	var b strings.Builder
	for n, ci := range k.cols {
		if n > 0 {
			b.WriteByte('\x1f')
		}
		switch v := r.V[ci].(type) {
		case nil:
			b.WriteByte('\x00')
		case string:
			b.WriteByte('s')
			b.WriteString(v)
		case int64:
			b.WriteByte('i')
			b.WriteString(strconv.FormatInt(v, 10))
		case float64:
			b.WriteByte('f')
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		case time.Time:
			b.WriteByte('t')
			b.WriteString(v.UTC().Format(time.RFC3339Nano))
		case bool:
			b.WriteByte('b')
			if v {
				b.WriteString("true")
			} else {
				b.WriteString("false")
			}
		default:
			// Schema-conforming tables never get here; stabilize anyway.
			b.WriteByte('?')
			b.WriteString(fmt.Sprint(v))
		}
	}
	return b.String()
}

// Fingerprint hashes an encoded key for deterministic partition-to-worker
// sharding. The schedule depends only on the key bytes, never on map
// iteration order or timing.
func Fingerprint(key string) uint64 {
	return xxh3.HashString(key)
}

// partition is one group of row positions sharing an encoded key. Positions
// are in current table order.
type partition struct {
	key  string
	rows []int
}

// partitionRows groups t's row positions by k. Partitions come back in
// first-seen order so downstream iteration is deterministic.
func partitionRows(t *table.Table, k *Keyer) []partition {
	index := make(map[string]int)
	parts := make([]partition, 0, 16)
	for i, r := range t.Rows() {
		key := k.Key(r)
		pi, ok := index[key]
		if !ok {
			pi = len(parts)
			index[key] = pi
			parts = append(parts, partition{key: key})
		}
		parts[pi].rows = append(parts[pi].rows, i)
	}
	return parts
}

// shardPartitions assigns partitions to n workers by key fingerprint. Every
// worker gets a disjoint set; the assignment is a pure function of the keys.
func shardPartitions(parts []partition, n int) [][]int {
	shards := make([][]int, n)
	for pi, p := range parts {
		w := int(Fingerprint(p.key) % uint64(n))
		shards[w] = append(shards[w], pi)
	}
	return shards
}

// Less is the engine's total order for cells of one column: null sorts before
// every value, values compare within their type. Used for order columns and
// tiebreaks; cross-type comparison cannot happen on a schema-conforming
// table.
func Less(a, b any) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	switch av := a.(type) {
	case string:
		bv, _ := b.(string)
		return av < bv
	case int64:
		bv, _ := b.(int64)
		return av < bv
	case float64:
		bv, _ := b.(float64)
		return av < bv
	case time.Time:
		bv, _ := b.(time.Time)
		return av.Before(bv)
	case bool:
		bv, _ := b.(bool)
		return !av && bv
	default:
		return fmt.Sprint(a) < fmt.Sprint(b)
	}
}

// orderEqual reports a == b under Less.
func orderEqual(a, b any) bool {
	return !Less(a, b) && !Less(b, a)
}
