// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkf

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestRegistryInsertFind(t *testing.T) {
	c := qt.New(t)

	var r Registry[int, string]
	c.Assert(r.Insert(1, "a"), qt.IsNil)
	c.Assert(r.Insert(2, "b"), qt.IsNil)

	m, ok := r.Find(2)
	c.Assert(ok, qt.Equals, true)
	c.Assert(m, qt.Equals, "b")

	_, ok = r.Find(3)
	c.Assert(ok, qt.Equals, false)

	c.Assert(r.Insert(1, "c"), qt.IsNil)
	m, _ = r.Find(1)
	c.Assert(m, qt.Equals, "c")
	c.Assert(r.Len(), qt.Equals, 2)
	c.Assert(r.Handles(), qt.DeepEquals, []int{1, 2})
}

func TestRegistryRejectsNullHandle(t *testing.T) {
	c := qt.New(t)

	var r Registry[*int, string]
	c.Assert(r.Insert(nil, "a"), qt.ErrorMatches, "Registry.Insert: null handle")
	c.Assert(r.Len(), qt.Equals, 0)
}

func TestRegistryRemoveKeepsOrder(t *testing.T) {
	c := qt.New(t)

	var r Registry[string, int]
	for i, h := range []string{"A", "B", "C"} {
		c.Assert(r.Insert(h, i), qt.IsNil)
	}

	m, ok := r.Remove("B")
	c.Assert(ok, qt.Equals, true)
	c.Assert(m, qt.Equals, 1)
	c.Assert(r.Handles(), qt.DeepEquals, []string{"A", "C"})

	_, ok = r.Find("B")
	c.Assert(ok, qt.Equals, false)
	_, ok = r.Remove("B")
	c.Assert(ok, qt.Equals, false)

	a, _ := r.Find("A")
	cc, _ := r.Find("C")
	c.Assert(a, qt.Equals, 0)
	c.Assert(cc, qt.Equals, 2)
}

func TestRegistryReleasesStorageWhenEmpty(t *testing.T) {
	c := qt.New(t)

	var r Registry[int, int]
	c.Assert(r.Insert(7, 7), qt.IsNil)
	c.Assert(r.Capacity() > 0, qt.Equals, true)

	r.Remove(7)
	c.Assert(r.Len(), qt.Equals, 0)
	c.Assert(r.Capacity(), qt.Equals, 0)
	c.Assert(r.entries, qt.IsNil)

	c.Assert(r.Insert(8, 8), qt.IsNil)
	c.Assert(r.Handles(), qt.DeepEquals, []int{8})
}

func BenchmarkRegistryFind(b *testing.B) {
	var r Registry[int, int]
	for idx := 1; idx <= 1024; idx++ {
		r.Insert(idx, idx)
	}
	b.ResetTimer()
	for idx := 0; idx < b.N; idx++ {
		r.Find(idx%1024 + 1)
	}
}
