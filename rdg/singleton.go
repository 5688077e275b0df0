// Copyright 2024 The Argent Engine Authors. All rights reserved.

package rdg

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/argent-engine/rhi"
)

var (
	mu     sync.Mutex
	drv    rhi.Driver
	dev    rhi.Device
	graph  *Graph
)

var errNoDriver = errors.New("rdg: no matching driver found")

// Init opens the first registered rhi.Driver whose name contains
// name (case-sensitive) and constructs the package-scope Graph around
// its Device. An empty name matches any driver. It is guarded by an
// internal mutex, the way the teacher's ctxt.loadDriver and
// rhi.Register share one registry lock.
//
// Calling Init a second time before Shutdown replaces the current
// driver/device/graph.
func Init(name string) error {
	mu.Lock()
	defer mu.Unlock()

	drivers := rhi.Drivers()
	err := error(errNoDriver)
	for _, d := range drivers {
		if !strings.Contains(d.Name(), name) {
			continue
		}
		var device rhi.Device
		if device, err = d.Open(); err != nil {
			continue
		}
		drv = d
		dev = device
		graph = New(dev)
		return nil
	}
	return fmt.Errorf("rdg: Init(%q): %w", name, err)
}

// Shutdown tears down the package-scope graph and closes the driver
// that owns the device (device lifetime is managed by its Driver, not
// by Device itself). It is a no-op if Init was never called or
// already failed.
func Shutdown() {
	mu.Lock()
	defer mu.Unlock()
	if drv != nil {
		drv.Close()
	}
	drv, dev, graph = nil, nil, nil
}

// Device returns the package-scope rhi.Device, or nil if Init has not
// succeeded.
func Device() rhi.Device {
	mu.Lock()
	defer mu.Unlock()
	return dev
}

// Driver returns the package-scope rhi.Driver, or nil if Init has not
// succeeded.
func Driver() rhi.Driver {
	mu.Lock()
	defer mu.Unlock()
	return drv
}

// Get returns the package-scope Graph. Unlike the other singleton
// accessors in this file, Get panics if the graph was never
// initialized, since a caller reaching for the singleton graph
// without having called Init is a programming error, not a runtime
// condition to recover from.
func Get() *Graph {
	mu.Lock()
	defer mu.Unlock()
	if graph == nil {
		panic("rdg: singleton graph not initialized; call rdg.Init first")
	}
	return graph
}
