package prismvk

import (
	"fmt"
	"log"
	"runtime"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// CoreInstance owns the vk.Instance and the optional debug report callback.
type CoreInstance struct {
	handle         vk.Instance
	validation     bool
	debug_callback vk.DebugReportCallback
}

// NewCoreInstance creates the Vulkan instance with the extensions the window
// system requires for surface creation, plus debug reporting when validation
// is enabled. Missing required extensions fail; missing layers only warn.
func NewCoreInstance(appName string, required []string, validation bool) (core *CoreInstance, err error) {
	defer checkErr(&err)

	actual, err := InstanceExtensions()
	orPanic(err)
	extensions, missing := checkExisting(actual, required)
	if missing > 0 {
		return nil, fmt.Errorf("instance lacks %d required extensions for windowing", missing)
	}
	if validation {
		debugExt, missingDebug := checkExisting(actual, []string{"VK_EXT_debug_report"})
		if missingDebug > 0 {
			log.Println("vulkan warning: debug report extension unavailable, validation output disabled")
			validation = false
		} else {
			extensions = append(extensions, debugExt...)
		}
	}
	log.Printf("vulkan: enabling %d instance extensions", len(extensions))

	var layers []string
	if validation {
		actualLayers, err := ValidationLayers()
		orPanic(err)
		var missingLayers int
		layers, missingLayers = checkExisting(actualLayers, validationLayerNames())
		if missingLayers > 0 {
			log.Printf("vulkan warning: missing %d validation layers during init", missingLayers)
		}
	}

	// MoltenVK requires the portability enumerate flag on the instance.
	var flags vk.InstanceCreateFlags
	if runtime.GOOS == "darwin" {
		flags = vk.InstanceCreateFlags(0x00000001)
	}

	var instance vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		Flags: flags,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
			ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
			PApplicationName:   safeString(appName),
			PEngineName:        "prismvk\x00",
		},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}, nil, &instance)
	orPanic(NewError(ret))
	vk.InitInstance(instance)

	core = &CoreInstance{handle: instance, validation: validation}
	if validation {
		ret := vk.CreateDebugReportCallback(instance, &vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
			PfnCallback: dbgCallbackFunc,
		}, nil, &core.debug_callback)
		if isError(ret) {
			log.Println("vulkan warning: failed to create debug report callback:", NewError(ret))
		} else {
			log.Println("vulkan: debug report callback enabled")
		}
	}
	return core, nil
}

func validationLayerNames() []string {
	return []string{
		"VK_LAYER_KHRONOS_validation",
	}
}

func (c *CoreInstance) Handle() vk.Instance { return c.handle }

// devicePreference ranks GPU types, lowest value most preferred.
func devicePreference(deviceType vk.PhysicalDeviceType) int {
	switch deviceType {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return 0
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return 1
	case vk.PhysicalDeviceTypeVirtualGpu:
		return 2
	case vk.PhysicalDeviceTypeCpu:
		return 3
	default:
		return 4
	}
}

// PickPhysicalDevice selects the most preferred GPU that can render to the
// surface: it must expose graphics and present queues plus the swapchain
// extension. Ties keep the earlier enumeration entry.
func (c *CoreInstance) PickPhysicalDevice(surface vk.Surface) (vk.PhysicalDevice, error) {
	var count uint32
	ret := vk.EnumeratePhysicalDevices(c.handle, &count, nil)
	if isError(ret) {
		return nil, NewError(ret)
	}
	if count == 0 {
		return nil, fmt.Errorf("no GPU devices found")
	}
	gpus := make([]vk.PhysicalDevice, count)
	ret = vk.EnumeratePhysicalDevices(c.handle, &count, gpus)
	if isError(ret) {
		return nil, NewError(ret)
	}

	var best vk.PhysicalDevice
	bestRank := 5
	for _, gpu := range gpus {
		if _, _, ok := findQueueFamilies(gpu, surface); !ok {
			continue
		}
		actual, err := DeviceExtensions(gpu)
		if err != nil {
			continue
		}
		if _, missing := checkExisting(actual, requiredDeviceExtensions()); missing > 0 {
			continue
		}
		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(gpu, &properties)
		properties.Deref()
		if rank := devicePreference(properties.DeviceType); rank < bestRank {
			best = gpu
			bestRank = rank
			log.Printf("vulkan: selecting device %q", vk.ToString(properties.DeviceName[:]))
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no GPU device can present to the window surface")
	}
	return best, nil
}

func (c *CoreInstance) Destroy() {
	if c.debug_callback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(c.handle, c.debug_callback, nil)
		c.debug_callback = vk.NullDebugReportCallback
	}
	if c.handle != nil {
		vk.DestroyInstance(c.handle, nil)
		c.handle = nil
	}
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		log.Printf("[ERROR %d] %s on layer %s", messageCode, pMessage, pLayerPrefix)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		log.Printf("[WARN %d] %s on layer %s", messageCode, pMessage, pLayerPrefix)
	default:
		log.Printf("[WARN] unknown debug message %d (layer %s)", messageCode, pLayerPrefix)
	}
	return vk.Bool32(vk.False)
}
