package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/rambo-nes/rambo/pkg/cartridge"
	"github.com/rambo-nes/rambo/pkg/gui"
	"github.com/rambo-nes/rambo/pkg/logger"
	"github.com/rambo-nes/rambo/pkg/nes"
)

func main() {
	var (
		logLevel   = flag.String("log-level", "info", "Log level (off, error, warn, info, debug, trace)")
		logFile    = flag.String("log-file", "", "Log file path (empty for stdout)")
		cpuLog     = flag.Bool("cpu-log", false, "Enable CPU logging")
		ppuLog     = flag.Bool("ppu-log", false, "Enable PPU logging")
		apuLog     = flag.Bool("apu-log", false, "Enable APU logging")
		mapperLog  = flag.Bool("mapper-log", false, "Enable mapper logging")
		dmaLog     = flag.Bool("dma-log", false, "Enable DMA engine logging")
		headless   = flag.Bool("headless", false, "Run without video or audio")
		testFrames = flag.Int("test-frames", 600, "Number of frames to run in headless mode")
	)

	flag.Usage = func() {
		fmt.Printf("Usage: %s [options] <rom_file>\n\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println("\nControls:")
		fmt.Println("  Z - A button")
		fmt.Println("  X - B button")
		fmt.Println("  A - Select")
		fmt.Println("  S - Start")
		fmt.Println("  Arrow keys - D-pad")
		fmt.Println("  ESC - Quit")
	}

	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}
	romFile := flag.Arg(0)

	level := logger.GetLogLevelFromString(*logLevel)
	if err := logger.Initialize(level, *logFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.SetCPULogging(*cpuLog)
	logger.SetPPULogging(*ppuLog)
	logger.SetAPULogging(*apuLog)
	logger.SetMapperLogging(*mapperLog)
	logger.SetDMALogging(*dmaLog)

	file, err := os.Open(romFile)
	if err != nil {
		log.Fatalf("Failed to open ROM file: %v", err)
	}
	cart, err := cartridge.LoadFromReader(file)
	file.Close()
	if err != nil {
		log.Fatalf("Failed to load ROM: %v", err)
	}

	logger.LogInfo("Loaded ROM: %s (mapper %d)", filepath.Base(romFile), cart.MapperNumber)

	console := nes.New(nes.DefaultConfig())
	console.LoadCartridge(cart)

	if *headless {
		runHeadless(console, *testFrames)
		return
	}

	ui, err := gui.New(console)
	if err != nil {
		log.Fatalf("Failed to create window: %v", err)
	}
	defer ui.Close()
	ui.Run()
}

// runHeadless advances the console without presentation, reporting basic
// timing statistics. Useful for regression runs against test ROMs.
func runHeadless(console *nes.Console, frames int) {
	for i := 0; i < frames; i++ {
		result := console.RunFrame()
		console.ConsumeAudioSamples()
		if i == 0 || (i+1)%60 == 0 {
			logger.LogInfo("frame %d: %d PPU cycles", result.FrameNumber, result.CyclesExecuted)
		}
	}
	fmt.Printf("ran %d frames, %d PPU cycles total\n", frames, console.Clock.PPUCycles)
}
