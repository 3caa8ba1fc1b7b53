// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkf

import (
	vk "github.com/devblok/vulkan"
	log "github.com/sirupsen/logrus"
)

// DescriptorPoolRecord tracks how many sets a pool has handed out
type DescriptorPoolRecord struct {
	Pool     vk.DescriptorPool
	Capacity uint32
	Used     uint32
}

// Full reports whether the pool has no room left
func (p *DescriptorPoolRecord) Full() bool {
	return p.Used >= p.Capacity
}

var pooledDescriptorTypes = []vk.DescriptorType{
	vk.DescriptorTypeSampler,
	vk.DescriptorTypeCombinedImageSampler,
	vk.DescriptorTypeSampledImage,
	vk.DescriptorTypeStorageImage,
	vk.DescriptorTypeUniformTexelBuffer,
	vk.DescriptorTypeStorageTexelBuffer,
	vk.DescriptorTypeUniformBuffer,
	vk.DescriptorTypeStorageBuffer,
	vk.DescriptorTypeUniformBufferDynamic,
	vk.DescriptorTypeStorageBufferDynamic,
	vk.DescriptorTypeInputAttachment,
}

func (c *Context) createDescriptorPool(record *DeviceRecord) (*DescriptorPoolRecord, error) {
	sizes := make([]vk.DescriptorPoolSize, 0, len(pooledDescriptorTypes))
	for _, t := range pooledDescriptorTypes {
		sizes = append(sizes, vk.DescriptorPoolSize{
			Type:            t,
			DescriptorCount: c.configuration.DescriptorsPerType,
		})
	}

	dpci := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		MaxSets:       c.configuration.DescriptorPoolCapacity,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}
	pool, ret := c.driver.CreateDescriptorPool(record.Device, &dpci)
	if err := c.check("vk.CreateDescriptorPool()", ret); err != nil {
		return nil, err
	}

	pr := &DescriptorPoolRecord{
		Pool:     pool,
		Capacity: c.configuration.DescriptorPoolCapacity,
	}
	record.Pools = append(record.Pools, pr)

	c.logger.WithFields(log.Fields{
		"pools":    len(record.Pools),
		"capacity": pr.Capacity,
	}).Debug("descriptor pool created")
	return pr, nil
}

// AllocateDescriptorSet allocates one set of layout from the first pool of
// device with room left, creating a pool when every pool is full.
// A failed allocation is not retried on another pool.
func (c *Context) AllocateDescriptorSet(device vk.Device, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	record, err := c.deviceRecord("AllocateDescriptorSet", device)
	if err != nil {
		return nil, err
	}
	if layout == nil {
		return nil, c.callerError("AllocateDescriptorSet", "null descriptor set layout")
	}

	var pool *DescriptorPoolRecord
	for _, p := range record.Pools {
		if !p.Full() {
			pool = p
			break
		}
	}
	if pool == nil {
		if pool, err = c.createDescriptorPool(record); err != nil {
			return nil, err
		}
	}

	dsai := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool.Pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}
	set, ret := c.driver.AllocateDescriptorSet(device, &dsai)
	if err := c.check("vk.AllocateDescriptorSets()", ret); err != nil {
		return nil, err
	}
	pool.Used++
	return set, nil
}

// ResetDescriptorPools returns every set allocated on device to its pool
func (c *Context) ResetDescriptorPools(device vk.Device) error {
	record, err := c.deviceRecord("ResetDescriptorPools", device)
	if err != nil {
		return err
	}
	for _, pool := range record.Pools {
		if err := c.check("vk.ResetDescriptorPool()", c.driver.ResetDescriptorPool(device, pool.Pool)); err != nil {
			return err
		}
		pool.Used = 0
	}
	return nil
}
