// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkf

import (
	vk "github.com/devblok/vulkan"
	log "github.com/sirupsen/logrus"
)

// OptionalIndex is a queue family index that may be unassigned
type OptionalIndex struct {
	Index    uint32
	Assigned bool
}

func (o *OptionalIndex) set(idx uint32) {
	o.Index = idx
	o.Assigned = true
}

// QueueFamilyIndices are the families picked for each queue role
type QueueFamilyIndices struct {
	Graphics OptionalIndex
	Present  OptionalIndex
	Compute  OptionalIndex
}

// Complete reports whether every role has a family
func (q QueueFamilyIndices) Complete() bool {
	return q.Graphics.Assigned && q.Present.Assigned && q.Compute.Assigned
}

// Unique returns the distinct assigned families, graphics first
func (q QueueFamilyIndices) Unique() []uint32 {
	var unique []uint32
	for _, idx := range []OptionalIndex{q.Graphics, q.Present, q.Compute} {
		if !idx.Assigned {
			continue
		}
		seen := false
		for _, u := range unique {
			if u == idx.Index {
				seen = true
				break
			}
		}
		if !seen {
			unique = append(unique, idx.Index)
		}
	}
	return unique
}

// FindQueueFamilies assigns a queue family to every role the device supports.
//
// A compute family without graphics support is preferred, any compute family
// is used until one is found. Graphics and present follow the configured
// QueueFamilyPolicy. Scanning stops as soon as all three are assigned.
// Present stays unassigned when surface is nil.
func (c *Context) FindQueueFamilies(physical vk.PhysicalDevice, surface vk.Surface) (QueueFamilyIndices, error) {
	var (
		indices          QueueFamilyIndices
		computeDedicated bool
		keepFirst        = c.configuration.QueueFamilyPolicy == FirstMatch
	)
	if physical == nil {
		return indices, c.callerError("FindQueueFamilies", "null physical device")
	}

	for i, family := range c.driver.QueueFamilies(physical) {
		idx := uint32(i)
		flags := family.QueueFlags

		if flags&vk.QueueFlags(vk.QueueComputeBit) != 0 {
			dedicated := flags&vk.QueueFlags(vk.QueueGraphicsBit) == 0
			switch {
			case dedicated && !(computeDedicated && keepFirst):
				indices.Compute.set(idx)
				computeDedicated = true
			case !indices.Compute.Assigned:
				indices.Compute.set(idx)
			}
		}

		if flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 && !(indices.Graphics.Assigned && keepFirst) {
			indices.Graphics.set(idx)
		}

		if surface != nil && !(indices.Present.Assigned && keepFirst) {
			supported, ret := c.driver.SurfaceSupport(physical, idx, surface)
			if err := c.check("vk.GetPhysicalDeviceSurfaceSupport()", ret); err != nil {
				return indices, err
			}
			if supported {
				indices.Present.set(idx)
			}
		}

		if indices.Complete() {
			break
		}
	}
	return indices, nil
}

type candidate struct {
	physical vk.PhysicalDevice
	queues   QueueFamilyIndices
	score    uint64
	name     string
}

// PickGoodPhysicalDevice picks the best physical device able to render to
// surface with every extension in extensions. Devices lacking an extension,
// a graphics or present family, any surface format or geometry shaders are
// skipped. The rest are scored and the strictly highest score wins, so the
// first enumerated device wins a tie.
//
// The winner gets a provisional device record that CreateDevice completes.
func (c *Context) PickGoodPhysicalDevice(instance vk.Instance, surface vk.Surface, extensions []string) (vk.PhysicalDevice, error) {
	if instance == nil {
		return nil, c.callerError("PickGoodPhysicalDevice", "null instance")
	}
	if surface == nil {
		return nil, c.callerError("PickGoodPhysicalDevice", "null surface")
	}

	devices, ret := c.driver.PhysicalDevices(instance)
	if err := c.check("vk.EnumeratePhysicalDevices()", ret); err != nil {
		return nil, err
	}

	var best *candidate
	for _, physical := range devices {
		cand, reason, err := c.evaluate(physical, surface, extensions)
		if err != nil {
			return nil, err
		}
		if cand == nil {
			c.logger.WithFields(log.Fields{
				"device": c.deviceName(physical),
				"reason": reason,
			}).Info("skipping physical device")
			continue
		}
		c.logger.WithFields(log.Fields{
			"device": cand.name,
			"score":  cand.score,
		}).Debug("physical device is suitable")
		if best == nil || cand.score > best.score {
			best = cand
		}
	}

	if best == nil {
		c.reportError(ErrNoSuitableDevice)
		return nil, ErrNoSuitableDevice
	}

	if err := c.pending.Insert(best.physical, &DeviceRecord{
		Physical: best.physical,
		Queues:   best.queues,
	}); err != nil {
		return nil, err
	}

	c.logger.WithFields(log.Fields{
		"device": best.name,
		"score":  best.score,
	}).Info("picked physical device")
	return best.physical, nil
}

// PickGoodDefaultPhysicalDevice is PickGoodPhysicalDevice requiring only
// swapchain support.
func (c *Context) PickGoodDefaultPhysicalDevice(instance vk.Instance, surface vk.Surface) (vk.PhysicalDevice, error) {
	return c.PickGoodPhysicalDevice(instance, surface, []string{vk.KhrSwapchainExtensionName})
}

// PickFirstPhysicalDevice picks the first enumerated device without any
// suitability check. surface may be nil, leaving present unassigned.
func (c *Context) PickFirstPhysicalDevice(instance vk.Instance, surface vk.Surface) (vk.PhysicalDevice, error) {
	if instance == nil {
		return nil, c.callerError("PickFirstPhysicalDevice", "null instance")
	}

	devices, ret := c.driver.PhysicalDevices(instance)
	if err := c.check("vk.EnumeratePhysicalDevices()", ret); err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		c.reportError(ErrNoSuitableDevice)
		return nil, ErrNoSuitableDevice
	}

	physical := devices[0]
	queues, err := c.FindQueueFamilies(physical, surface)
	if err != nil {
		return nil, err
	}
	if err := c.pending.Insert(physical, &DeviceRecord{
		Physical: physical,
		Queues:   queues,
	}); err != nil {
		return nil, err
	}
	return physical, nil
}

// evaluate returns nil and the reason when physical is not suitable
func (c *Context) evaluate(physical vk.PhysicalDevice, surface vk.Surface, extensions []string) (*candidate, string, error) {
	available, ret := c.driver.DeviceExtensions(physical)
	if err := c.check("vk.EnumerateDeviceExtensionProperties()", ret); err != nil {
		return nil, "", err
	}
	if missing := missingNames(extensions, available); len(missing) > 0 {
		return nil, "missing extension " + missing[0], nil
	}

	queues, err := c.FindQueueFamilies(physical, surface)
	if err != nil {
		return nil, "", err
	}
	if !queues.Graphics.Assigned {
		return nil, "no graphics queue family", nil
	}
	if !queues.Present.Assigned {
		return nil, "no present queue family", nil
	}

	formats, ret := c.driver.SurfaceFormats(physical, surface)
	if err := c.check("vk.GetPhysicalDeviceSurfaceFormats()", ret); err != nil {
		return nil, "", err
	}
	if len(formats) == 0 {
		return nil, "no surface formats", nil
	}

	features := c.driver.PhysicalDeviceFeatures(physical)
	if features.GeometryShader != vk.True {
		return nil, "no geometry shader support", nil
	}

	properties := c.driver.PhysicalDeviceProperties(physical)
	return &candidate{
		physical: physical,
		queues:   queues,
		score:    scoreDevice(properties),
		name:     vk.ToString(properties.DeviceName[:]),
	}, "", nil
}

func scoreDevice(properties vk.PhysicalDeviceProperties) uint64 {
	var score uint64
	if properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
		score += 1000
	}
	score += uint64(properties.Limits.MaxImageDimension2D)
	score += uint64(properties.Limits.MaxBoundDescriptorSets)
	return score
}

func (c *Context) deviceName(physical vk.PhysicalDevice) string {
	properties := c.driver.PhysicalDeviceProperties(physical)
	return vk.ToString(properties.DeviceName[:])
}
