// Copyright 2024 The Argent Engine Authors. All rights reserved.

// Package vk implements rhi.Driver and rhi.Device over the Vulkan
// API, using github.com/vulkan-go/vulkan for the loader and type
// bindings.
package vk

import (
	"fmt"
	"sync"

	vk "github.com/vulkan-go/vulkan"

	"github.com/argent-engine/rhi"
)

const driverName = "vulkan"

// Driver implements rhi.Driver.
type Driver struct {
	inst vk.Instance
}

func init() {
	rhi.Register(&Driver{})
}

// Name implements rhi.Driver.
func (d *Driver) Name() string { return driverName }

// Open implements rhi.Driver. It creates a Vulkan instance (if one
// is not already open on this Driver value), selects the
// best-weighted physical device exposing a graphics+compute queue
// family, and returns a ready-to-use Device.
func (d *Driver) Open() (rhi.Device, error) {
	if err := vk.Init(); err != nil {
		return nil, rhi.ErrNotInstalled
	}
	if d.inst == nil {
		appInfo := &vk.ApplicationInfo{
			SType:      vk.StructureTypeApplicationInfo,
			ApiVersion: vk.ApiVersion11,
		}
		info := &vk.InstanceCreateInfo{
			SType:            vk.StructureTypeInstanceCreateInfo,
			PApplicationInfo: appInfo,
		}
		var inst vk.Instance
		if res := vk.CreateInstance(info, nil, &inst); res != vk.Success {
			return nil, vkError("vkCreateInstance", res)
		}
		vk.InitInstance(inst)
		d.inst = inst
	}

	var n uint32
	if res := vk.EnumeratePhysicalDevices(d.inst, &n, nil); res != vk.Success {
		return nil, vkError("vkEnumeratePhysicalDevices", res)
	}
	if n == 0 {
		return nil, rhi.ErrNoDevice
	}
	pdevs := make([]vk.PhysicalDevice, n)
	if res := vk.EnumeratePhysicalDevices(d.inst, &n, pdevs); res != vk.Success {
		return nil, vkError("vkEnumeratePhysicalDevices", res)
	}

	var best vk.PhysicalDevice
	var bestFam uint32
	var bestWeight int
	var bestProps vk.PhysicalDeviceProperties
	for _, pdev := range pdevs {
		var qn uint32
		vk.GetPhysicalDeviceQueueFamilyProperties(pdev, &qn, nil)
		qprops := make([]vk.QueueFamilyProperties, qn)
		vk.GetPhysicalDeviceQueueFamilyProperties(pdev, &qn, qprops)

		fam, ok := findGraphicsComputeFamily(qprops)
		if !ok {
			continue
		}
		var props vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(pdev, &props)
		props.Deref()

		weight := 1
		switch props.DeviceType {
		case vk.PhysicalDeviceTypeDiscreteGpu, vk.PhysicalDeviceTypeIntegratedGpu:
			weight++
		}
		if weight > bestWeight {
			best, bestFam, bestWeight, bestProps = pdev, fam, weight, props
		}
	}
	if bestWeight == 0 {
		return nil, rhi.ErrNoDevice
	}

	prio := float32(1.0)
	qinfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: bestFam,
		QueueCount:       1,
		PQueuePriorities: []float32{prio},
	}
	devInfo := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos:    []vk.DeviceQueueCreateInfo{qinfo},
	}
	var dev vk.Device
	if res := vk.CreateDevice(best, &devInfo, nil, &dev); res != vk.Success {
		return nil, vkError("vkCreateDevice", res)
	}

	var queue vk.Queue
	vk.GetDeviceQueue(dev, bestFam, 0, &queue)

	var memProps vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(best, &memProps)
	memProps.Deref()

	name := vk.ToString(bestProps.DeviceName[:])

	device := &Device{
		driver:   d,
		pdev:     best,
		dev:      dev,
		queue:    queue,
		queueFam: bestFam,
		name:     name,
		memProps: memProps,
		limits:   limitsFrom(bestProps.Limits),
	}
	device.descs = newDescriptorManager(device)
	return device, nil
}

// Close implements rhi.Driver.
func (d *Driver) Close() {
	if d.inst != nil {
		vk.DestroyInstance(d.inst, nil)
		d.inst = nil
	}
}

func findGraphicsComputeFamily(props []vk.QueueFamilyProperties) (uint32, bool) {
	const want = vk.QueueFlags(vk.QueueGraphicsBit) | vk.QueueFlags(vk.QueueComputeBit)
	for i := range props {
		props[i].Deref()
		if vk.QueueFlags(props[i].QueueFlags)&want == want {
			return uint32(i), true
		}
	}
	return 0, false
}

// Device implements rhi.Device over a single Vulkan logical device
// and its one graphics+compute queue. A second, transfer-only queue
// (present in the teacher's multi-queue driver) is intentionally not
// exposed: the binding-layout and command-list design only requires
// QueueDirect and QueueCopy to be schedulable, and a single queue
// family can serve both, serialized by submitMu.
type Device struct {
	driver   *Driver
	pdev     vk.PhysicalDevice
	dev      vk.Device
	queue    vk.Queue
	queueFam uint32
	name     string
	memProps vk.PhysicalDeviceMemoryProperties
	limits   rhi.Limits

	submitMu sync.Mutex
	descs    *descriptorManager
}

func (dv *Device) Driver() rhi.Driver             { return dv.driver }
func (dv *Device) Limits() rhi.Limits             { return dv.limits }
func (dv *Device) Descriptors() rhi.DescriptorManager { return dv.descs }

func (dv *Device) nativeName() string { return dv.name }

func limitsFrom(l vk.PhysicalDeviceLimits) rhi.Limits {
	l.Deref()
	return rhi.Limits{
		MaxTexture1D:   int(l.MaxImageDimension1D),
		MaxTexture2D:   int(l.MaxImageDimension2D),
		MaxTextureCube: int(l.MaxImageDimensionCube),
		MaxTexture3D:   int(l.MaxImageDimension3D),
		MaxLayers:      int(l.MaxImageArrayLayers),

		MaxRenderTargets: int(l.MaxColorAttachments),
		MaxFBSize:        [2]int{int(l.MaxFramebufferWidth), int(l.MaxFramebufferHeight)},
		MaxFBLayers:      int(l.MaxFramebufferLayers),
		MaxViewports:     int(l.MaxViewports),

		MaxRootSignatureDWords: rhi.MaxRootSignatureDWords,
		MaxInlineCBVs:          rhi.MaxInlineCBVs,

		MaxDispatch: [3]int{
			int(l.MaxComputeWorkGroupCount[0]),
			int(l.MaxComputeWorkGroupCount[1]),
			int(l.MaxComputeWorkGroupCount[2]),
		},
	}
}

func vkError(op string, res vk.Result) error {
	return rhi.NewNativeError(op, int64(res), nil)
}

func checkResult(op string, res vk.Result) error {
	if res != vk.Success {
		return vkError(op, res)
	}
	return nil
}

func debugName(op, name string) string {
	if name == "" {
		return op
	}
	return fmt.Sprintf("%s(%q)", op, name)
}
