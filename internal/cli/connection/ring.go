package connection

import (
	"encoding/binary"
	"sort"

	"github.com/spaolacci/murmur3"
)

// DefaultVirtualNodes is the number of ring points per server.
const DefaultVirtualNodes = 160

// Ring maps keys to servers by consistent hashing. It is immutable after
// construction.
type Ring struct {
	points  []uint64
	owners  map[uint64]string
	servers []string
}

// NewRing builds a ring over servers. Duplicates are ignored; vnodes <= 0
// uses DefaultVirtualNodes.
func NewRing(servers []string, vnodes int) *Ring {
	if vnodes <= 0 {
		vnodes = DefaultVirtualNodes
	}

	r := &Ring{owners: make(map[uint64]string)}
	seen := make(map[string]bool, len(servers))
	for _, s := range servers {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		r.servers = append(r.servers, s)

		for i := 0; i < vnodes; i++ {
			h := pointHash(s, i)
			// On the rare collision the first server keeps the point.
			if _, taken := r.owners[h]; taken {
				continue
			}
			r.owners[h] = s
			r.points = append(r.points, h)
		}
	}
	sort.Slice(r.points, func(i, j int) bool { return r.points[i] < r.points[j] })
	return r
}

func pointHash(server string, index int) uint64 {
	h := murmur3.New64()
	_, _ = h.Write([]byte(server))
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], uint32(index))
	_, _ = h.Write(idx[:])
	return h.Sum64()
}

// Pick returns the server owning key, or "" for an empty ring.
func (r *Ring) Pick(key string) string {
	if len(r.points) == 0 {
		return ""
	}
	h := murmur3.Sum64([]byte(key))
	i := sort.Search(len(r.points), func(i int) bool { return r.points[i] >= h })
	if i == len(r.points) {
		i = 0
	}
	return r.owners[r.points[i]]
}

// Servers returns the distinct servers in insertion order.
func (r *Ring) Servers() []string {
	return append([]string(nil), r.servers...)
}
