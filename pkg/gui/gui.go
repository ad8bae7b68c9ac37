package gui

import (
	"encoding/binary"
	"math"
	"runtime"
	"time"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/rambo-nes/rambo/pkg/input"
	"github.com/rambo-nes/rambo/pkg/logger"
	"github.com/rambo-nes/rambo/pkg/nes"
)

const (
	WindowWidth  = 256 * 3 // NES resolution 256x240 scaled 3x
	WindowHeight = 240 * 3
	WindowTitle  = "RAMBO"

	AudioSampleRate = 44100
	AudioBufferSize = 1024
	AudioChannels   = 1
	AudioFormat     = sdl.AUDIO_F32LSB

	// NTSC frame rate: 1789773 / 29780.5 CPU cycles per frame
	TargetFPS = 60.0988
)

var targetFPS = TargetFPS

var frameTime = time.Duration(float64(time.Second) / targetFPS)

// GUI presents the console through SDL2: streamed texture video, queued
// float audio and keyboard input.
type GUI struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	console  *nes.Console
	running  bool

	audioDevice sdl.AudioDeviceID

	nextFrameTime time.Time
}

// New creates the SDL window, renderer and audio device for a console.
func New(console *nes.Console) (*GUI, error) {
	runtime.LockOSThread()

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO); err != nil {
		return nil, err
	}

	window, err := sdl.CreateWindow(
		WindowTitle,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		WindowWidth,
		WindowHeight,
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.Quit()
		return nil, err
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, err
	}
	renderer.SetDrawBlendMode(sdl.BLENDMODE_NONE)

	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_ARGB8888,
		sdl.TEXTUREACCESS_STREAMING,
		256,
		240,
	)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return nil, err
	}
	texture.SetBlendMode(sdl.BLENDMODE_NONE)

	g := &GUI{
		window:   window,
		renderer: renderer,
		texture:  texture,
		console:  console,
		running:  true,
	}

	want := sdl.AudioSpec{
		Freq:     AudioSampleRate,
		Format:   AudioFormat,
		Channels: AudioChannels,
		Samples:  AudioBufferSize,
	}
	var have sdl.AudioSpec
	device, err := sdl.OpenAudioDevice("", false, &want, &have, 0)
	if err != nil {
		logger.LogError("audio device unavailable: %v", err)
	} else {
		g.audioDevice = device
		sdl.PauseAudioDevice(device, false)
	}

	return g, nil
}

// Run drives the emulation at the NTSC frame rate until the window
// closes.
func (g *GUI) Run() {
	g.nextFrameTime = time.Now()
	for g.running {
		g.handleEvents()
		g.console.ControllerLatch(g.readKeyboard(), 0)
		g.console.RunFrame()
		g.presentFrame()
		g.queueAudio()
		g.pace()
	}
}

func (g *GUI) handleEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			g.running = false
		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN && e.Keysym.Sym == sdl.K_ESCAPE {
				g.running = false
			}
		}
	}
}

// readKeyboard samples the key state into a controller byte.
func (g *GUI) readKeyboard() uint8 {
	keys := sdl.GetKeyboardState()
	var buttons uint8
	if keys[sdl.SCANCODE_Z] != 0 {
		buttons |= input.ButtonA
	}
	if keys[sdl.SCANCODE_X] != 0 {
		buttons |= input.ButtonB
	}
	if keys[sdl.SCANCODE_A] != 0 {
		buttons |= input.ButtonSelect
	}
	if keys[sdl.SCANCODE_S] != 0 {
		buttons |= input.ButtonStart
	}
	if keys[sdl.SCANCODE_UP] != 0 {
		buttons |= input.ButtonUp
	}
	if keys[sdl.SCANCODE_DOWN] != 0 {
		buttons |= input.ButtonDown
	}
	if keys[sdl.SCANCODE_LEFT] != 0 {
		buttons |= input.ButtonLeft
	}
	if keys[sdl.SCANCODE_RIGHT] != 0 {
		buttons |= input.ButtonRight
	}
	return buttons
}

func (g *GUI) presentFrame() {
	fb := g.console.Framebuffer()
	g.texture.Update(nil, unsafe.Pointer(&fb[0]), 256*4)
	g.renderer.Clear()
	g.renderer.Copy(g.texture, nil, nil)
	g.renderer.Present()
}

func (g *GUI) queueAudio() {
	if g.audioDevice == 0 {
		return
	}
	samples := g.console.ConsumeAudioSamples()
	if len(samples) == 0 {
		return
	}
	buf := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	sdl.QueueAudio(g.audioDevice, buf)
}

func (g *GUI) pace() {
	g.nextFrameTime = g.nextFrameTime.Add(frameTime)
	if d := time.Until(g.nextFrameTime); d > 0 {
		time.Sleep(d)
	} else {
		g.nextFrameTime = time.Now()
	}
}

// Close releases all SDL resources.
func (g *GUI) Close() {
	if g.audioDevice != 0 {
		sdl.CloseAudioDevice(g.audioDevice)
	}
	g.texture.Destroy()
	g.renderer.Destroy()
	g.window.Destroy()
	sdl.Quit()
}
