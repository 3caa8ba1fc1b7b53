// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"flag"
	"math"
	"os"
	"runtime"
	"runtime/pprof"
	"sync/atomic"
	"time"

	"github.com/devblok/kvf/src/vkf"
	vk "github.com/devblok/vulkan"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"golang.org/x/sync/errgroup"
)

func init() {
	runtime.LockOSThread()
}

var (
	cpuProfile = flag.String("cpuprof", "", "Profile CPU usage to file")
	envFile    = flag.String("env", "", "Env file layered over the default configuration")
	debug      = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	vsync      = flag.Bool("vsync", true, "Prefer a vsynced present mode")
	fps        = flag.Int("fps", 0, "Frame rate cap, zero leaves it to the present mode")
)

var frameCounter int64

// sandbox clears every swapchain image with an animated colour, going
// through the vkf selection, swapchain, barrier and submission helpers.
type sandbox struct {
	ctx      *vkf.Context
	window   *sdl.Window
	instance vk.Instance
	surface  vk.Surface
	physical vk.PhysicalDevice
	device   vk.Device

	cmd            vk.CommandBuffer
	fence          vk.Fence
	imageAvailable vk.Semaphore
	renderFinished vk.Semaphore

	swapchain    vk.Swapchain
	extent       vk.Extent2D
	renderPass   vk.RenderPass
	views        []vk.ImageView
	framebuffers []vk.Framebuffer

	angle float32
}

func main() {
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.WithError(err).Fatal("cpu profile could not be created")
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.WithError(err).Fatal("cpu profile could not be started")
		}
		defer pprof.StopCPUProfile()
	}

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := vkf.LoadConfiguration(files...)
	if err != nil {
		log.WithError(err).Fatal("configuration could not be loaded")
	}
	cfg.EnableValidation = cfg.EnableValidation || *debug

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		log.WithError(err).Fatal("sdl.Init()")
	}
	defer sdl.Quit()

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		log.WithError(err).Fatal("sdl.VulkanLoadLibrary()")
	}
	defer sdl.VulkanUnloadLibrary()

	window, err := sdl.CreateWindow(cfg.ApplicationName,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		800, 600,
		sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		log.WithError(err).Fatal("sdl.CreateWindow()")
	}
	defer window.Destroy()

	driver, err := vkf.NewVulkanDriver(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		log.WithError(err).Fatal("vulkan is not available")
	}

	s := &sandbox{
		ctx:    vkf.NewContext(driver, cfg, nil),
		window: window,
	}
	defer s.ctx.Release()

	if err := s.setup(); err != nil {
		s.teardown()
		log.WithError(err).Fatal("sandbox could not be set up")
	}

	timing := newPacing(*fps, 50*time.Millisecond)
	defer timing.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				log.WithFields(log.Fields{
					"fps":      atomic.SwapInt64(&frameCounter, 0),
					"cgoCalls": runtime.NumCgoCall(),
				}).Info("frame statistics")
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			default:
				timing.Frame()
				if err := s.frame(); err != nil {
					return err
				}
				atomic.AddInt64(&frameCounter, 1)
			}
		}
	})

EventLoop:
	for {
		select {
		case <-gctx.Done():
			break EventLoop
		case <-timing.Events():
			for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
				switch et := event.(type) {
				case *sdl.KeyboardEvent:
					if et.Keysym.Sym == sdl.K_ESCAPE {
						cancel()
					}
				case *sdl.QuitEvent:
					cancel()
				}
			}
		}
	}
	cancel()

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("render loop stopped")
	}
	s.teardown()
}

func (s *sandbox) setup() error {
	var err error
	if s.instance, err = s.ctx.CreateInstance(s.window.VulkanGetInstanceExtensions()); err != nil {
		return err
	}

	surface, err := s.window.VulkanCreateSurface(s.instance)
	if err != nil {
		return errors.Wrap(err, "window.VulkanCreateSurface()")
	}
	s.surface = vk.SurfaceFromPointer(uintptr(surface))

	if s.physical, err = s.ctx.PickGoodDefaultPhysicalDevice(s.instance, s.surface); err != nil {
		return err
	}
	if s.device, err = s.ctx.CreateDefaultDevice(s.physical); err != nil {
		return err
	}

	if s.cmd, err = s.ctx.CreateCommandBuffer(s.device); err != nil {
		return err
	}
	if s.fence, err = s.ctx.CreateFence(s.device); err != nil {
		return err
	}
	if s.imageAvailable, err = s.ctx.CreateSemaphore(s.device); err != nil {
		return err
	}
	if s.renderFinished, err = s.ctx.CreateSemaphore(s.device); err != nil {
		return err
	}
	return s.buildSwapchain()
}

// buildSwapchain creates or recreates the swapchain together with the
// render pass and framebuffers targeting it.
func (s *sandbox) buildSwapchain() error {
	if ret := s.ctx.Driver().DeviceWaitIdle(s.device); ret != vk.Success {
		return errors.Errorf("vk.DeviceWaitIdle(): %s", vkf.VerbaliseResult(ret))
	}
	s.releaseTargets()

	width, height := s.window.VulkanGetDrawableSize()
	old := s.swapchain
	swapchain, err := s.ctx.CreateSwapchain(s.device, s.physical, s.surface, vkf.SwapchainOptions{
		Extent:       vk.Extent2D{Width: uint32(width), Height: uint32(height)},
		OldSwapchain: old,
		Vsync:        *vsync,
	})
	if err != nil {
		return err
	}
	s.ctx.DestroySwapchain(s.device, old)
	s.swapchain = swapchain

	images, err := s.ctx.SwapchainImages(s.device, swapchain)
	if err != nil {
		return err
	}
	format, err := s.ctx.SwapchainImagesFormat(swapchain)
	if err != nil {
		return err
	}
	if s.extent, err = s.ctx.SwapchainImagesSize(swapchain); err != nil {
		return err
	}
	if err := s.createRenderPass(); err != nil {
		return err
	}

	for _, image := range images {
		// the render pass loads the previous contents, which must start out presentable
		if err := s.ctx.TransitionImageLayout(s.device, image, vkf.ImageColor, s.cmd, format,
			vk.ImageLayoutUndefined, vk.ImageLayoutPresentSrc, true); err != nil {
			return err
		}

		ivci := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}
		var view vk.ImageView
		if err := vk.Error(vk.CreateImageView(s.device, &ivci, nil, &view)); err != nil {
			return errors.Wrap(err, "vk.CreateImageView()")
		}
		s.views = append(s.views, view)

		framebuffer, err := s.ctx.CreateFramebuffer(s.device, s.renderPass, []vk.ImageView{view}, s.extent)
		if err != nil {
			return err
		}
		s.framebuffers = append(s.framebuffers, framebuffer)
	}

	log.WithFields(log.Fields{
		"images": len(images),
		"width":  s.extent.Width,
		"height": s.extent.Height,
	}).Info("swapchain ready")
	return nil
}

func (s *sandbox) createRenderPass() error {
	attachment, err := s.ctx.BuildSwapchainAttachmentDescription(s.swapchain, false)
	if err != nil {
		return err
	}

	colorAttachmentRef := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpassDependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}

	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{attachment},
		SubpassCount:    1,
		PSubpasses: []vk.SubpassDescription{{
			PipelineBindPoint:    vk.PipelineBindPointGraphics,
			ColorAttachmentCount: uint32(len(colorAttachmentRef)),
			PColorAttachments:    colorAttachmentRef,
		}},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{subpassDependency},
	}

	var renderPass vk.RenderPass
	if err := vk.Error(vk.CreateRenderPass(s.device, &rpci, nil, &renderPass)); err != nil {
		return errors.Wrap(err, "vk.CreateRenderPass()")
	}
	s.renderPass = renderPass
	return nil
}

func (s *sandbox) releaseTargets() {
	for _, framebuffer := range s.framebuffers {
		s.ctx.DestroyFramebuffer(s.device, framebuffer)
	}
	for _, view := range s.views {
		vk.DestroyImageView(s.device, view, nil)
	}
	if s.renderPass != nil {
		vk.DestroyRenderPass(s.device, s.renderPass, nil)
	}
	s.framebuffers = nil
	s.views = nil
	s.renderPass = nil
}

func (s *sandbox) clearColor() []float32 {
	s.angle += 0.01
	axis := glm.Vec3{1, 1, 1}.Normalize()
	hue := glm.HomogRotate3D(s.angle, axis).Mul4x1(glm.Vec4{1, 0, 0, 0}).Vec3()
	color := hue.Mul(0.5).Add(glm.Vec3{0.5, 0.5, 0.5})
	return []float32{color.X(), color.Y(), color.Z(), 1}
}

func (s *sandbox) frame() error {
	if err := s.ctx.WaitForFence(s.device, s.fence); err != nil {
		return err
	}

	var index uint32
	ret := vk.AcquireNextImage(s.device, s.swapchain, math.MaxUint64, s.imageAvailable, nil, &index)
	switch ret {
	case vk.Success, vk.Suboptimal:
	case vk.ErrorOutOfDate:
		// nothing will signal the fence that was just reset
		s.ctx.DestroyFence(s.device, s.fence)
		var err error
		if s.fence, err = s.ctx.CreateFence(s.device); err != nil {
			return err
		}
		return s.buildSwapchain()
	default:
		return errors.Errorf("vk.AcquireNextImage(): %s", vkf.VerbaliseResult(ret))
	}

	if err := s.ctx.BeginCommandBuffer(s.cmd, vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)); err != nil {
		return err
	}

	rpbi := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  s.renderPass,
		Framebuffer: s.framebuffers[index],
		RenderArea: vk.Rect2D{
			Extent: s.extent,
		},
	}
	vk.CmdBeginRenderPass(s.cmd, &rpbi, vk.SubpassContentsInline)

	var clear vk.ClearValue
	clear.SetColor(s.clearColor())
	vk.CmdClearAttachments(s.cmd, 1, []vk.ClearAttachment{{
		AspectMask:      vk.ImageAspectFlags(vk.ImageAspectColorBit),
		ColorAttachment: 0,
		ClearValue:      clear,
	}}, 1, []vk.ClearRect{{
		Rect:       vk.Rect2D{Extent: s.extent},
		LayerCount: 1,
	}})
	vk.CmdEndRenderPass(s.cmd)

	if err := s.ctx.EndCommandBuffer(s.cmd); err != nil {
		return err
	}

	stages := []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)}
	if err := s.ctx.SubmitCommandBuffer(s.device, s.cmd, vkf.GraphicsQueue, s.renderFinished, s.imageAvailable, s.fence, stages); err != nil {
		return err
	}

	switch err := s.ctx.QueuePresent(s.device, s.renderFinished, s.swapchain, index); err {
	case nil:
		return nil
	case vkf.ErrSwapchainOutOfDate:
		return s.buildSwapchain()
	default:
		return err
	}
}

func (s *sandbox) teardown() {
	if s.device != nil {
		s.ctx.Driver().DeviceWaitIdle(s.device)
		s.releaseTargets()
		s.ctx.DestroySwapchain(s.device, s.swapchain)
		s.ctx.DestroySemaphore(s.device, s.renderFinished)
		s.ctx.DestroySemaphore(s.device, s.imageAvailable)
		s.ctx.DestroyFence(s.device, s.fence)
		s.ctx.FreeCommandBuffer(s.device, s.cmd)
		s.ctx.DestroyDevice(s.device)
		s.device = nil
	}
	if s.surface != nil {
		vk.DestroySurface(s.instance, s.surface, nil)
		s.surface = nil
	}
	s.ctx.DestroyInstance(s.instance)
	s.instance = nil
}
