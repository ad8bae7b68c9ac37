// Command rambo-ebiten is the Ebiten-based frontend: the same core as
// cmd/rambo presented through ebiten for video/input and oto for audio.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/rambo-nes/rambo/pkg/cartridge"
	"github.com/rambo-nes/rambo/pkg/input"
	"github.com/rambo-nes/rambo/pkg/logger"
	"github.com/rambo-nes/rambo/pkg/nes"
)

const sampleRate = 44100

// sampleStream hands the APU output to oto's pull-based player.
type sampleStream struct {
	mu  sync.Mutex
	buf []byte
}

func (s *sampleStream) push(samples []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range samples {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
		s.buf = append(s.buf, b[:]...)
	}
	// Drop backlog rather than drift further behind real time.
	if len(s.buf) > sampleRate {
		s.buf = s.buf[len(s.buf)-sampleRate/2:]
	}
}

func (s *sampleStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	// Pad with silence instead of blocking the audio thread.
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}

// game adapts the console to ebiten's update/draw loop.
type game struct {
	console *nes.Console
	stream  *sampleStream
	pixels  []byte
}

func (g *game) Update() error {
	g.console.ControllerLatch(readKeyboard(), 0)
	g.console.RunFrame()
	g.stream.push(g.console.ConsumeAudioSamples())
	return nil
}

func readKeyboard() uint8 {
	var buttons uint8
	pairs := []struct {
		key ebiten.Key
		bit uint8
	}{
		{ebiten.KeyZ, input.ButtonA},
		{ebiten.KeyX, input.ButtonB},
		{ebiten.KeyA, input.ButtonSelect},
		{ebiten.KeyS, input.ButtonStart},
		{ebiten.KeyArrowUp, input.ButtonUp},
		{ebiten.KeyArrowDown, input.ButtonDown},
		{ebiten.KeyArrowLeft, input.ButtonLeft},
		{ebiten.KeyArrowRight, input.ButtonRight},
	}
	for _, p := range pairs {
		if ebiten.IsKeyPressed(p.key) {
			buttons |= p.bit
		}
	}
	return buttons
}

func (g *game) Draw(screen *ebiten.Image) {
	fb := g.console.Framebuffer()
	for i, pixel := range fb {
		g.pixels[i*4+0] = uint8(pixel >> 16)
		g.pixels[i*4+1] = uint8(pixel >> 8)
		g.pixels[i*4+2] = uint8(pixel)
		g.pixels[i*4+3] = uint8(pixel >> 24)
	}
	screen.WritePixels(g.pixels)
}

func (g *game) Layout(_, _ int) (int, int) {
	return 256, 240
}

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Printf("Usage: %s <rom_file>\n", os.Args[0])
		os.Exit(1)
	}

	if err := logger.Initialize(logger.LogLevelInfo, ""); err != nil {
		log.Fatal(err)
	}
	defer logger.Close()

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("read: %v", err)
	}
	cart, err := cartridge.Load(data)
	if err != nil {
		log.Fatalf("load: %v", err)
	}

	config := nes.DefaultConfig()
	config.SampleRate = sampleRate
	console := nes.New(config)
	console.LoadCartridge(cart)

	stream := &sampleStream{}
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		log.Fatalf("audio: %v", err)
	}
	<-ready
	player := ctx.NewPlayer(stream)
	player.Play()
	defer player.Close()

	ebiten.SetWindowSize(256*3, 240*3)
	ebiten.SetWindowTitle("RAMBO")
	g := &game{
		console: console,
		stream:  stream,
		pixels:  make([]byte, 256*240*4),
	}
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
