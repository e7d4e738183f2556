package model

import "github.com/teranos/portrait/errors"

type key struct {
	kind Kind
	name string
}

// Index keys interface members by kind and name and tracks which of them
// an implementation already provides.
type Index struct {
	members []Member
	byKey   map[key]int
	done    []bool
}

// NewIndex indexes members. Names must be unique within each kind.
func NewIndex(members []Member) (*Index, error) {
	ix := &Index{
		members: members,
		byKey:   make(map[key]int, len(members)),
		done:    make([]bool, len(members)),
	}
	for i, m := range members {
		k := key{m.Kind(), m.MemberName()}
		if _, dup := ix.byKey[k]; dup {
			return nil, errors.Parsef("%s %q declared twice", m.Kind(), m.MemberName())
		}
		ix.byKey[k] = i
	}
	return ix, nil
}

// Lookup finds a member by kind and name
func (ix *Index) Lookup(kind Kind, name string) (Member, bool) {
	i, ok := ix.byKey[key{kind, name}]
	if !ok {
		return nil, false
	}
	return ix.members[i], true
}

// Minus marks provided members as implemented. A provided member that the
// interface does not declare under the same kind fails with UnknownMember
// and leaves the index unchanged.
func (ix *Index) Minus(provided []Member) error {
	hits := make([]int, 0, len(provided))
	for _, m := range provided {
		i, ok := ix.byKey[key{m.Kind(), m.MemberName()}]
		if !ok {
			return errors.UnknownMember(m.MemberName(), m.Kind().String())
		}
		hits = append(hits, i)
	}
	for _, i := range hits {
		ix.done[i] = true
	}
	return nil
}

// Drop marks members as implemented, ignoring names the interface lacks
func (ix *Index) Drop(members []Member) {
	for _, m := range members {
		if i, ok := ix.byKey[key{m.Kind(), m.MemberName()}]; ok {
			ix.done[i] = true
		}
	}
}

// Remaining returns the unimplemented members in declaration order
func (ix *Index) Remaining() []Member {
	var out []Member
	for i, m := range ix.members {
		if !ix.done[i] {
			out = append(out, m)
		}
	}
	return out
}

// Subtract returns members minus provided, in declaration order
func Subtract(members, provided []Member) ([]Member, error) {
	ix, err := NewIndex(members)
	if err != nil {
		return nil, err
	}
	if err := ix.Minus(provided); err != nil {
		return nil, err
	}
	return ix.Remaining(), nil
}
