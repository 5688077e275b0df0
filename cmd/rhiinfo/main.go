// Copyright 2024 The Argent Engine Authors. All rights reserved.

// Command rhiinfo opens the first registered rhi.Driver that matches
// -driver and opens successfully, and prints its
// name and implementation limits, for checking which backend a given
// machine will actually use before wiring up a real application.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/argent-engine/rhi"
)

func main() {
	name := flag.String("driver", "", "driver name substring to match (empty matches the first driver that opens)")
	flag.Parse()

	drv, dev, err := open(*name)
	if err != nil {
		log.Fatalf("rhiinfo: %v", err)
	}
	defer drv.Close()

	fmt.Printf("driver:  %s\n", drv.Name())
	printLimits(dev.Limits())
}

func open(name string) (rhi.Driver, rhi.Device, error) {
	var lastErr error
	for _, d := range rhi.Drivers() {
		if !strings.Contains(d.Name(), name) {
			continue
		}
		dev, err := d.Open()
		if err != nil {
			lastErr = err
			continue
		}
		return d, dev, nil
	}
	if lastErr == nil {
		lastErr = rhi.ErrNotInstalled
	}
	return nil, nil, fmt.Errorf("no usable driver (name=%q): %w", name, lastErr)
}

func printLimits(l rhi.Limits) {
	fmt.Printf("limits:\n")
	fmt.Printf("  texture1D:        %d\n", l.MaxTexture1D)
	fmt.Printf("  texture2D:        %d\n", l.MaxTexture2D)
	fmt.Printf("  textureCube:      %d\n", l.MaxTextureCube)
	fmt.Printf("  texture3D:        %d\n", l.MaxTexture3D)
	fmt.Printf("  layers:           %d\n", l.MaxLayers)
	fmt.Printf("  renderTargets:    %d\n", l.MaxRenderTargets)
	fmt.Printf("  framebufferSize:  %dx%d\n", l.MaxFBSize[0], l.MaxFBSize[1])
	fmt.Printf("  framebufferLayers:%d\n", l.MaxFBLayers)
	fmt.Printf("  viewports:        %d\n", l.MaxViewports)
	fmt.Printf("  rootSigDWords:    %d\n", l.MaxRootSignatureDWords)
	fmt.Printf("  inlineCBVs:       %d\n", l.MaxInlineCBVs)
	fmt.Printf("  maxDispatch:      %dx%dx%d\n", l.MaxDispatch[0], l.MaxDispatch[1], l.MaxDispatch[2])
	fmt.Printf("  rayTracing:       %v\n", l.RayTracingSupported)
	fmt.Printf("  meshShading:      %v\n", l.MeshShadingSupported)
}
