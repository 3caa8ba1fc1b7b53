// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vkf is a thin convenience layer over Vulkan. A Context picks
// physical devices, creates logical devices and swapchains, allocates
// descriptor sets out of growing pools and records image layout barriers,
// while keeping track of what it created so later calls can be answered
// without asking the driver again. Raw vk calls remain usable alongside it.
package vkf
