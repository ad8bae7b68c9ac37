package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/rambo-nes/rambo/pkg/cartridge"
)

// rominfo prints what the loader makes of an iNES or NES 2.0 image.
func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Printf("Usage: %s <rom_file>\n", os.Args[0])
		os.Exit(1)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("read: %v", err)
	}

	cart, err := cartridge.Load(data)
	if err != nil {
		log.Fatalf("load: %v", err)
	}

	fmt.Printf("Mapper:    %d (submapper %d)\n", cart.MapperNumber, cart.Submapper)
	fmt.Printf("PRG ROM:   %d KB\n", len(cart.PRGROM)/1024)
	if len(cart.CHRROM) > 0 {
		fmt.Printf("CHR ROM:   %d KB\n", len(cart.CHRROM)/1024)
	} else {
		fmt.Printf("CHR RAM:   %d KB\n", len(cart.CHRRAM)/1024)
	}
	if len(cart.PRGRAM) > 0 {
		fmt.Printf("PRG RAM:   %d KB\n", len(cart.PRGRAM)/1024)
	}
	fmt.Printf("Mirroring: %v\n", cart.Mirroring())
	fmt.Printf("Region:    %v\n", regionName(cart.Region))
	fmt.Printf("Battery:   %v\n", cart.Battery)
}

func regionName(r cartridge.Region) string {
	switch r {
	case cartridge.RegionPAL:
		return "PAL"
	case cartridge.RegionDendy:
		return "Dendy"
	default:
		return "NTSC"
	}
}
