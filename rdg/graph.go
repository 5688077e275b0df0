// Copyright 2024 The Argent Engine Authors. All rights reserved.

// Package rdg implements the Render Dependency Graph: a DAG of passes
// and resources, compiled into an ordered sequence of GPU work.
package rdg

import (
	"fmt"

	"github.com/argent-engine/rhi"
	"github.com/argent-engine/rhi/internal/bitm"
)

// Handle identifies a resource or a pass in a Graph. Resources and
// passes are tracked in separate handle spaces, the way node.Node
// identifies a node in a node.Graph.
type Handle int

// Nil represents an invalid Handle.
const Nil Handle = 0

// ResourceDesc is either a *rhi.BufferDesc or a *rhi.TextureDesc. A
// resource added to a Graph is not materialized until a pass that
// reads or writes it executes.
type ResourceDesc any

// PassFunc records one unit of GPU work. cl is a command list already
// in the Recording state; the function must not call Begin or End.
type PassFunc func(cl rhi.CmdList, g *Graph) error

type resource struct {
	name  string
	desc  ResourceDesc
	buf   rhi.Buffer
	tex   rhi.Texture
}

type pass struct {
	name   string
	reads  []Handle
	writes []Handle
	fn     PassFunc
}

// Graph is a render dependency graph. The zero value is not usable;
// construct one with New.
//
// Graph is not safe for concurrent use: the scheduling model in
// spec.md §4.12 treats AddResource/AddPass/Compile/Execute as
// single-threaded per graph, mirroring the RHI's own per-object
// threading rule.
type Graph struct {
	dev rhi.Device

	resources []resource
	resMap    bitm.Bitm[uint32]

	passes []pass
	passMap bitm.Bitm[uint32]
}

// New creates an empty Graph bound to dev. Resources added to the
// graph are realized against this device on first use.
func New(dev rhi.Device) *Graph {
	return &Graph{dev: dev}
}

// grow extends m when it has no unset bit left: by 32 handles while
// it is empty, otherwise by roughly its current length (doubling),
// the same doubling-or-32 policy node.Graph.Insert uses for its own
// nodeMap. The slice is extended separately by its callers.
func grow(m *bitm.Bitm[uint32], n int) {
	if m.Rem() > 0 {
		return
	}
	switch x := m.Len(); {
	case x > 0:
		m.Grow(1 + (x-31)/32)
	default:
		m.Grow(1)
	}
}

// AddResource registers a virtual resource and returns a Handle
// identifying it. desc must be a *rhi.BufferDesc or *rhi.TextureDesc;
// the underlying native object is not created until a pass that
// references this handle executes.
func (g *Graph) AddResource(name string, desc ResourceDesc) Handle {
	switch desc.(type) {
	case *rhi.BufferDesc, *rhi.TextureDesc:
	default:
		panic("rdg: AddResource: desc must be *rhi.BufferDesc or *rhi.TextureDesc")
	}
	grow(&g.resMap, 1)
	idx, ok := g.resMap.Search()
	if !ok {
		panic("rdg: AddResource: unexpected failure from bitm.Bitm.Search")
	}
	g.resMap.Set(idx)
	if idx == len(g.resources) {
		g.resources = append(g.resources, resource{name: name, desc: desc})
	} else {
		g.resources[idx] = resource{name: name, desc: desc}
	}
	return Handle(idx + 1)
}

// AddPass registers a pass and returns a Handle identifying it. reads
// and writes list the resource handles the pass's fn will reference;
// Compile will use them for dependency/barrier analysis once that
// analysis is implemented (see Compile).
func (g *Graph) AddPass(name string, reads, writes []Handle, fn PassFunc) Handle {
	if fn == nil {
		panic("rdg: AddPass: fn must not be nil")
	}
	grow(&g.passMap, 1)
	idx, ok := g.passMap.Search()
	if !ok {
		panic("rdg: AddPass: unexpected failure from bitm.Bitm.Search")
	}
	g.passMap.Set(idx)
	p := pass{name: name, reads: append([]Handle(nil), reads...), writes: append([]Handle(nil), writes...), fn: fn}
	if idx == len(g.passes) {
		g.passes = append(g.passes, p)
	} else {
		g.passes[idx] = p
	}
	return Handle(idx + 1)
}

// Compile is reserved for future dependency/barrier analysis derived
// from each pass's read/write lists (spec.md §4.12, §9 open question
// 3). It intentionally performs no analysis today: Execute always
// runs passes in insertion order and every ResourceBarrier/
// TextureBarrier call is left to each pass's own fn. This is a
// deliberate placeholder, not an oversight.
func (g *Graph) Compile() error {
	return nil
}

// Execute walks every pass in insertion order, realizing each
// resource the pass reads or writes on first use, then invoking the
// pass's fn with cl.
func (g *Graph) Execute(cl rhi.CmdList) error {
	for i := range g.passes {
		p := &g.passes[i]
		if !g.passMap.IsSet(i) {
			continue
		}
		for _, h := range p.reads {
			if err := g.realize(h); err != nil {
				return fmt.Errorf("rdg: pass %q: realize read resource: %w", p.name, err)
			}
		}
		for _, h := range p.writes {
			if err := g.realize(h); err != nil {
				return fmt.Errorf("rdg: pass %q: realize write resource: %w", p.name, err)
			}
		}
		if err := p.fn(cl, g); err != nil {
			return fmt.Errorf("rdg: pass %q: %w", p.name, err)
		}
	}
	return nil
}

// realize materializes the native object backing h if it has not
// already been created (init_rhi() in spec.md §4.12's vocabulary).
func (g *Graph) realize(h Handle) error {
	if h == Nil {
		return fmt.Errorf("rdg: realize: Nil handle")
	}
	idx := int(h) - 1
	if idx < 0 || idx >= len(g.resources) || !g.resMap.IsSet(idx) {
		return fmt.Errorf("rdg: realize: handle %d does not belong to this graph", h)
	}
	r := &g.resources[idx]
	if r.buf != nil || r.tex != nil {
		return nil
	}
	switch d := r.desc.(type) {
	case *rhi.BufferDesc:
		buf, err := g.dev.NewBuffer(*d)
		if err != nil {
			return err
		}
		r.buf = buf
	case *rhi.TextureDesc:
		tex, err := g.dev.NewTexture(*d)
		if err != nil {
			return err
		}
		r.tex = tex
	}
	return nil
}

// Buffer returns the native buffer backing h, realizing it first if
// necessary. It panics if h does not identify a buffer resource.
func (g *Graph) Buffer(h Handle) rhi.Buffer {
	if err := g.realize(h); err != nil {
		panic(err)
	}
	r := &g.resources[h-1]
	if r.buf == nil {
		panic(fmt.Sprintf("rdg: handle %d is not a buffer resource", h))
	}
	return r.buf
}

// Texture returns the native texture backing h, realizing it first if
// necessary. It panics if h does not identify a texture resource.
func (g *Graph) Texture(h Handle) rhi.Texture {
	if err := g.realize(h); err != nil {
		panic(err)
	}
	r := &g.resources[h-1]
	if r.tex == nil {
		panic(fmt.Sprintf("rhi: handle %d is not a texture resource", h))
	}
	return r.tex
}

// RemovePass drops a pass from the graph, freeing its handle for
// reuse by a later AddPass call.
func (g *Graph) RemovePass(h Handle) {
	idx := int(h) - 1
	if idx < 0 || idx >= len(g.passes) || !g.passMap.IsSet(idx) {
		return
	}
	g.passMap.Unset(idx)
	g.passes[idx] = pass{}
}

// RemoveResource drops a resource from the graph, destroying its
// native object (if realized) and freeing its handle for reuse.
func (g *Graph) RemoveResource(h Handle) {
	idx := int(h) - 1
	if idx < 0 || idx >= len(g.resources) || !g.resMap.IsSet(idx) {
		return
	}
	r := &g.resources[idx]
	switch {
	case r.buf != nil:
		r.buf.Destroy()
	case r.tex != nil:
		r.tex.Destroy()
	}
	g.resMap.Unset(idx)
	g.resources[idx] = resource{}
}
