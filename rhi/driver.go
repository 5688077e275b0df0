// Copyright 2024 The Argent Engine Authors. All rights reserved.

// Package rhi defines a backend-agnostic Render Hardware Interface:
// a uniform contract for GPU devices, command recording, resource and
// heap management, descriptor/binding layouts, pipeline state objects,
// swap chains, synchronization primitives and ray-tracing acceleration
// structures. Concrete backends (packages rhi/vk and rhi/dx) implement
// this contract and register themselves from an init function.
package rhi

import (
	"errors"
	"log"
	"sync"
)

// Driver is the interface that provides methods for loading and
// unloading an underlying backend implementation.
type Driver interface {
	// Open initializes the driver.
	// If it succeeds, further calls with the same receiver have no
	// effect and must return the same Device. Callers should assume
	// that Open is not safe for parallel execution.
	Open() (Device, error)

	// Name returns the name of the driver (e.g. "vulkan", "d3d12").
	// It must not cause the driver to be opened.
	Name() string

	// Close deinitializes the driver.
	// Closing a driver that is not open has no effect. Callers should
	// assume that Close is not safe for parallel execution.
	Close()
}

// Sentinel errors returned by Driver.Open and resource factory methods.
var (
	ErrNotInstalled  = errors.New("rhi: missing required platform library")
	ErrNoDevice      = errors.New("rhi: no suitable device found")
	ErrNoHostMemory  = errors.New("rhi: out of host memory")
	ErrNoDeviceMemory = errors.New("rhi: out of device memory")
	ErrFatal         = errors.New("rhi: fatal, unrecoverable device error")
)

// Drivers returns the registered drivers.
func Drivers() []Driver {
	mu.Lock()
	defer mu.Unlock()
	drv := make([]Driver, len(drivers))
	copy(drv, drivers)
	return drv
}

// Register registers a Driver.
// Backend implementations are expected to call Register exactly once,
// from an init function. If a driver with the same name has already
// been registered, it is replaced by drv.
func Register(drv Driver) {
	mu.Lock()
	defer mu.Unlock()
	for i := range drivers {
		if drivers[i].Name() == drv.Name() {
			drivers[i] = drv
			log.Printf("[!] rhi: driver %q replaced", drv.Name())
			return
		}
	}
	drivers = append(drivers, drv)
	log.Printf("rhi: driver %q registered", drv.Name())
}

var (
	mu      sync.Mutex
	drivers []Driver = make([]Driver, 0, 2)
)
