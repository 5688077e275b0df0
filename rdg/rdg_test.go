// Copyright 2024 The Argent Engine Authors. All rights reserved.

package rdg_test

import (
	"testing"

	"github.com/argent-engine/rhi"
	"github.com/argent-engine/rhi/rdg"
	"github.com/argent-engine/rhi/rhitest"
)

func TestAddResourceAndRealizeOnExecute(t *testing.T) {
	dev := rhitest.NewDevice()
	g := rdg.New(dev)

	h := g.AddResource("scratch", &rhi.BufferDesc{Size: 256, Usage: rhi.UsageUnorderedAccess})

	cl, err := dev.NewCmdList(rhi.QueueCompute)
	if err != nil {
		t.Fatal(err)
	}
	if err := cl.Begin(); err != nil {
		t.Fatal(err)
	}

	ran := false
	g.AddPass("clear-scratch", nil, []rdg.Handle{h}, func(cl rhi.CmdList, g *rdg.Graph) error {
		ran = true
		buf := g.Buffer(h)
		cl.Fill(buf, 0, 0, buf.Desc().Size)
		return nil
	})

	if err := g.Compile(); err != nil {
		t.Fatal(err)
	}
	if err := g.Execute(cl); err != nil {
		t.Fatal(err)
	}
	if !ran {
		t.Fatal("pass function never ran")
	}

	buf := g.Buffer(h)
	if buf == nil {
		t.Fatal("resource was not realized by Execute")
	}
}

func TestRemovePassAndResourceFreeHandles(t *testing.T) {
	dev := rhitest.NewDevice()
	g := rdg.New(dev)

	h1 := g.AddResource("a", &rhi.BufferDesc{Size: 64})
	p1 := g.AddPass("noop", nil, nil, func(cl rhi.CmdList, g *rdg.Graph) error { return nil })

	g.RemovePass(p1)
	g.RemoveResource(h1)

	// A fresh Add should reuse the freed slot rather than growing
	// forever, the same reuse contract bitm.Bitm gives node.Graph.
	h2 := g.AddResource("b", &rhi.BufferDesc{Size: 64})
	p2 := g.AddPass("noop2", nil, nil, func(cl rhi.CmdList, g *rdg.Graph) error { return nil })
	if h2 == rdg.Nil || p2 == rdg.Nil {
		t.Fatal("AddResource/AddPass returned Nil after a prior Remove")
	}
	if h2 != h1 || p2 != p1 {
		t.Fatalf("handles after Remove: have (%v, %v), want the freed (%v, %v)", h2, p2, h1, p1)
	}
}

func TestRemovedResourceCannotBeRealized(t *testing.T) {
	dev := rhitest.NewDevice()
	g := rdg.New(dev)

	h := g.AddResource("a", &rhi.BufferDesc{Size: 64})
	g.RemoveResource(h)

	defer func() {
		if recover() == nil {
			t.Fatal("Buffer on a removed handle did not panic")
		}
	}()
	g.Buffer(h)
}

func TestAddResourceRejectsWrongDescType(t *testing.T) {
	dev := rhitest.NewDevice()
	g := rdg.New(dev)

	defer func() {
		if recover() == nil {
			t.Fatal("AddResource with a non-pointer desc did not panic")
		}
	}()
	g.AddResource("bad", rhi.BufferDesc{Size: 64})
}

func TestExecuteRunsPassesInInsertionOrder(t *testing.T) {
	dev := rhitest.NewDevice()
	g := rdg.New(dev)

	cl, err := dev.NewCmdList(rhi.QueueDirect)
	if err != nil {
		t.Fatal(err)
	}
	if err := cl.Begin(); err != nil {
		t.Fatal(err)
	}

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		g.AddPass("pass", nil, nil, func(cl rhi.CmdList, g *rdg.Graph) error {
			order = append(order, i)
			return nil
		})
	}
	if err := g.Execute(cl); err != nil {
		t.Fatal(err)
	}
	want := []int{0, 1, 2}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestSingletonInitSelectsRhitestDriver(t *testing.T) {
	if err := rdg.Init("rhitest"); err != nil {
		t.Fatal(err)
	}
	defer rdg.Shutdown()

	if rdg.Device() == nil {
		t.Fatal("rdg.Device() returned nil after a successful Init")
	}
	if rdg.Driver().Name() != "rhitest" {
		t.Fatalf("rdg.Driver().Name() = %q, want %q", rdg.Driver().Name(), "rhitest")
	}
	if rdg.Get() == nil {
		t.Fatal("rdg.Get() returned nil after a successful Init")
	}
}

func TestGetPanicsWithoutInit(t *testing.T) {
	rdg.Shutdown()
	defer func() {
		if recover() == nil {
			t.Fatal("rdg.Get() without Init did not panic")
		}
	}()
	rdg.Get()
}
