package vulkan

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-instancing/engine/core"
)

var depthFormatCandidates = []vk.Format{
	vk.FormatD32Sfloat,
	vk.FormatD32SfloatS8Uint,
	vk.FormatD24UnormS8Uint,
}

// graphicsQueueFamily returns the index of the first queue family that can
// record graphics commands.
func graphicsQueueFamily(families []vk.QueueFamilyProperties) (uint32, bool) {
	required := vk.QueueFlags(vk.QueueGraphicsBit)
	for i := range families {
		families[i].Deref()
		if families[i].QueueCount > 0 && families[i].QueueFlags&required != 0 {
			return uint32(i), true
		}
	}
	return 0, false
}

// selectDepthFormat returns the first candidate usable as a depth attachment
// with optimal tiling.
func selectDepthFormat(candidates []vk.Format, properties func(vk.Format) vk.FormatProperties) (vk.Format, bool) {
	flags := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)
	for _, candidate := range candidates {
		props := properties(candidate)
		props.Deref()
		if props.OptimalTilingFeatures&flags == flags {
			return candidate, true
		}
	}
	return vk.FormatUndefined, false
}

func instanceExtensions() []string {
	if runtime.GOOS == "darwin" {
		return []string{
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		}
	}
	return nil
}

// InstanceCreate loads the Vulkan entry points through glfw and creates an
// instance. glfw must be initialized.
func InstanceCreate(context *VulkanContext, appName string) error {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return fmt.Errorf("vulkan loader not found: %w", core.ErrBackendNotAvailable)
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return fmt.Errorf("failed to initialize vk: %w", err)
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("Anima Instancing"),
	}
	extensions := instanceExtensions()
	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensions),
	}
	if runtime.GOOS == "darwin" {
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	var instance vk.Instance
	if err := resultError("create instance", vk.CreateInstance(&createInfo, context.Allocator, &instance)); err != nil {
		return err
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, context.Allocator)
		return err
	}
	context.Instance = instance
	core.LogInfo("Vulkan Instance created.")
	return nil
}

func selectPhysicalDevice(context *VulkanContext) (vk.PhysicalDevice, uint32, error) {
	var count uint32
	if err := resultError("enumerate physical devices", vk.EnumeratePhysicalDevices(context.Instance, &count, nil)); err != nil {
		return nil, 0, err
	}
	if count == 0 {
		return nil, 0, fmt.Errorf("no devices which support Vulkan were found: %w", core.ErrBackendNotAvailable)
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := resultError("enumerate physical devices", vk.EnumeratePhysicalDevices(context.Instance, &count, devices)); err != nil {
		return nil, 0, err
	}

	for _, device := range devices {
		var familyCount uint32
		vk.GetPhysicalDeviceQueueFamilyProperties(device, &familyCount, nil)
		families := make([]vk.QueueFamilyProperties, familyCount)
		vk.GetPhysicalDeviceQueueFamilyProperties(device, &familyCount, families)

		index, ok := graphicsQueueFamily(families)
		if !ok {
			continue
		}
		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(device, &properties)
		properties.Deref()
		core.LogInfo("Selected device: '%s'.", vk.ToString(properties.DeviceName[:]))
		core.LogInfo(
			"Vulkan API version: %d.%d.%d",
			vk.Version(properties.ApiVersion).Major(),
			vk.Version(properties.ApiVersion).Minor(),
			vk.Version(properties.ApiVersion).Patch(),
		)
		return device, index, nil
	}
	return nil, 0, fmt.Errorf("no device with a graphics queue: %w", core.ErrBackendNotAvailable)
}

func deviceExtensions(physicalDevice vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := resultError("enumerate device extensions", vk.EnumerateDeviceExtensionProperties(physicalDevice, "", &count, nil)); err != nil {
		return nil, err
	}
	available := make([]vk.ExtensionProperties, count)
	if count > 0 {
		if err := resultError("enumerate device extensions", vk.EnumerateDeviceExtensionProperties(physicalDevice, "", &count, available)); err != nil {
			return nil, err
		}
	}
	for i := range available {
		available[i].Deref()
		if vk.ToString(available[i].ExtensionName[:]) == "VK_KHR_portability_subset" {
			core.LogInfo("Adding required extension 'VK_KHR_portability_subset'.")
			return []string{"VK_KHR_portability_subset"}, nil
		}
	}
	return nil, nil
}

// DeviceCreate selects a physical device with a graphics queue, creates the
// logical device and the graphics command pool, and detects the depth format.
func DeviceCreate(context *VulkanContext) error {
	physicalDevice, queueIndex, err := selectPhysicalDevice(context)
	if err != nil {
		return err
	}
	extensions, err := deviceExtensions(physicalDevice)
	if err != nil {
		return err
	}

	core.LogInfo("Creating logical device...")
	queueInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: queueIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}
	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensions),
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
	}
	var logicalDevice vk.Device
	if err := resultError("create device", vk.CreateDevice(physicalDevice, &deviceCreateInfo, context.Allocator, &logicalDevice)); err != nil {
		return err
	}

	device := &VulkanDevice{
		PhysicalDevice:     physicalDevice,
		LogicalDevice:      logicalDevice,
		GraphicsQueueIndex: queueIndex,
	}
	var queue vk.Queue
	vk.GetDeviceQueue(logicalDevice, queueIndex, 0, &queue)
	device.GraphicsQueue = queue

	depthFormat, ok := selectDepthFormat(depthFormatCandidates, func(format vk.Format) vk.FormatProperties {
		var properties vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(physicalDevice, format, &properties)
		return properties
	})
	if !ok {
		vk.DestroyDevice(logicalDevice, context.Allocator)
		return fmt.Errorf("no supported depth format: %w", core.ErrBackendNotAvailable)
	}
	device.DepthFormat = depthFormat

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: queueIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if err := resultError("create command pool", vk.CreateCommandPool(logicalDevice, &poolCreateInfo, context.Allocator, &pool)); err != nil {
		vk.DestroyDevice(logicalDevice, context.Allocator)
		return err
	}

	context.Device = device
	context.GraphicsCommandPool = pool
	core.LogInfo("Logical device created.")
	return nil
}

// DeviceDestroy releases what DeviceCreate and InstanceCreate made.
func DeviceDestroy(context *VulkanContext) {
	if context.Device != nil && context.Device.LogicalDevice != nil {
		vk.DeviceWaitIdle(context.Device.LogicalDevice)
		core.LogInfo("Destroying command pools...")
		vk.DestroyCommandPool(context.Device.LogicalDevice, context.GraphicsCommandPool, context.Allocator)
		context.GraphicsCommandPool = vk.NullCommandPool

		core.LogInfo("Destroying logical device...")
		vk.DestroyDevice(context.Device.LogicalDevice, context.Allocator)
	}
	context.Device = nil
	if context.Instance != nil {
		vk.DestroyInstance(context.Instance, context.Allocator)
		context.Instance = nil
	}
}

// VulkanSafeString null terminates s for the C side.
func VulkanSafeString(s string) string {
	if len(s) == 0 || s[len(s)-1] != 0 {
		return s + "\x00"
	}
	return s
}

func VulkanSafeStrings(list []string) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = VulkanSafeString(list[i])
	}
	return out
}
