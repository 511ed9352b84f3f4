package repository

import (
	"encoding/binary"
	stderrors "errors"

	"github.com/cockroachdb/pebble"
	"github.com/yanun0323/errors"
)

// Key layout. The NUL separator keeps prefixes unambiguous, so keys and
// members must not contain NUL bytes.
//
//	's' 0 key 0 member  -> ""        set membership
//	'h' 0 key 0 field   -> value     hash field
//	'l' 0 key 0 seq(8B) -> value     list item, big-endian sequence
//	'm' 0 key           -> len(8B)   list length
const (
	pebbleSetTag  = 's'
	pebbleHashTag = 'h'
	pebbleListTag = 'l'
	pebbleMetaTag = 'm'
)

// Pebble is an embedded durable Store.
type Pebble struct {
	db *pebble.DB
}

// OpenPebble opens (or creates) the store under dir with the WAL enabled.
func OpenPebble(dir string) (*Pebble, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "open pebble")
	}
	return &Pebble{db: db}, nil
}

func (p *Pebble) SetAdd(key, member string) error {
	if err := p.db.Set(taggedKey(pebbleSetTag, key, member), nil, pebble.Sync); err != nil {
		return errors.Wrap(err, "set add")
	}
	return nil
}

func (p *Pebble) SetRemove(key, member string) error {
	if err := p.db.Delete(taggedKey(pebbleSetTag, key, member), pebble.Sync); err != nil {
		return errors.Wrap(err, "set remove")
	}
	return nil
}

func (p *Pebble) SetMembers(key string) ([]string, error) {
	prefix := taggedKey(pebbleSetTag, key, "")
	var out []string
	err := p.scanPrefix(prefix, func(suffix, _ []byte) {
		out = append(out, string(suffix))
	})
	if err != nil {
		return nil, errors.Wrap(err, "set members")
	}
	return out, nil
}

func (p *Pebble) HashSet(key, field, value string) error {
	if err := p.db.Set(taggedKey(pebbleHashTag, key, field), []byte(value), pebble.Sync); err != nil {
		return errors.Wrap(err, "hash set")
	}
	return nil
}

func (p *Pebble) HashGet(key, field string) (string, bool, error) {
	value, closer, err := p.db.Get(taggedKey(pebbleHashTag, key, field))
	if stderrors.Is(err, pebble.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "hash get")
	}
	out := string(value)
	if err := closer.Close(); err != nil {
		return "", false, errors.Wrap(err, "hash get close")
	}
	return out, true, nil
}

func (p *Pebble) HashGetAll(key string) (map[string]string, error) {
	prefix := taggedKey(pebbleHashTag, key, "")
	out := make(map[string]string)
	err := p.scanPrefix(prefix, func(suffix, value []byte) {
		out[string(suffix)] = string(value)
	})
	if err != nil {
		return nil, errors.Wrap(err, "hash get all")
	}
	return out, nil
}

func (p *Pebble) ListPush(key string, value []byte) error {
	length, err := p.listLen(key)
	if err != nil {
		return err
	}

	seq := make([]byte, 8)
	binary.BigEndian.PutUint64(seq, uint64(length))
	itemKey := append(taggedKey(pebbleListTag, key, ""), seq...)

	next := make([]byte, 8)
	binary.BigEndian.PutUint64(next, uint64(length)+1)

	batch := p.db.NewBatch()
	if err := batch.Set(itemKey, value, nil); err != nil {
		return errors.Wrap(err, "list push item")
	}
	if err := batch.Set(metaKey(key), next, nil); err != nil {
		return errors.Wrap(err, "list push meta")
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return errors.Wrap(err, "list push commit")
	}
	return nil
}

func (p *Pebble) ListRange(key string) ([][]byte, error) {
	prefix := taggedKey(pebbleListTag, key, "")
	var out [][]byte
	err := p.scanPrefix(prefix, func(_, value []byte) {
		copied := make([]byte, len(value))
		copy(copied, value)
		out = append(out, copied)
	})
	if err != nil {
		return nil, errors.Wrap(err, "list range")
	}
	return out, nil
}

func (p *Pebble) ListLen(key string) (int, error) {
	length, err := p.listLen(key)
	return length, err
}

func (p *Pebble) Flush() error {
	if err := p.db.DeleteRange([]byte{0x00}, []byte{0xff}, pebble.Sync); err != nil {
		return errors.Wrap(err, "flush")
	}
	return nil
}

func (p *Pebble) Close() error {
	if err := p.db.Close(); err != nil {
		return errors.Wrap(err, "close pebble")
	}
	return nil
}

func (p *Pebble) listLen(key string) (int, error) {
	value, closer, err := p.db.Get(metaKey(key))
	if stderrors.Is(err, pebble.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "list len")
	}
	length := int(binary.BigEndian.Uint64(value))
	if err := closer.Close(); err != nil {
		return 0, errors.Wrap(err, "list len close")
	}
	return length, nil
}

// scanPrefix visits every entry under prefix, passing the key suffix and
// value. The callback must copy anything it keeps.
func (p *Pebble) scanPrefix(prefix []byte, visit func(suffix, value []byte)) error {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return err
	}
	for iter.First(); iter.Valid(); iter.Next() {
		visit(iter.Key()[len(prefix):], iter.Value())
	}
	if err := iter.Error(); err != nil {
		_ = iter.Close()
		return err
	}
	return iter.Close()
}

func taggedKey(tag byte, key, suffix string) []byte {
	out := make([]byte, 0, len(key)+len(suffix)+3)
	out = append(out, tag, 0x00)
	out = append(out, key...)
	out = append(out, 0x00)
	out = append(out, suffix...)
	return out
}

func metaKey(key string) []byte {
	out := make([]byte, 0, len(key)+2)
	out = append(out, pebbleMetaTag, 0x00)
	out = append(out, key...)
	return out
}

func prefixUpperBound(prefix []byte) []byte {
	out := make([]byte, len(prefix))
	copy(out, prefix)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] < 0xff {
			out[i]++
			return out[:i+1]
		}
	}
	return nil
}
