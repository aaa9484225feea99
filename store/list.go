package store

import "slices"

// ConnectionList is a sorted set of saved connection names owned by the caller.
type ConnectionList struct {
	names []string
}

func NewConnectionList(names ...string) *ConnectionList {
	l := &ConnectionList{}
	for _, n := range names {
		l.Add(n)
	}

	return l
}

// Add inserts name and reports whether it was absent.
func (l *ConnectionList) Add(name string) bool {
	i, found := slices.BinarySearch(l.names, name)
	if found {
		return false
	}

	l.names = slices.Insert(l.names, i, name)

	return true
}

// Remove deletes name and reports whether it was present.
func (l *ConnectionList) Remove(name string) bool {
	i, found := slices.BinarySearch(l.names, name)
	if !found {
		return false
	}

	l.names = slices.Delete(l.names, i, i+1)

	return true
}

func (l *ConnectionList) Contains(name string) bool {
	_, found := slices.BinarySearch(l.names, name)
	return found
}

func (l *ConnectionList) Names() []string {
	return slices.Clone(l.names)
}

func (l *ConnectionList) Len() int { return len(l.names) }
