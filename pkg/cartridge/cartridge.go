package cartridge

import (
	"bytes"
	"fmt"
	"io"

	"github.com/rambo-nes/rambo/pkg/cartridge/mapper"
	"github.com/rambo-nes/rambo/pkg/logger"
)

// Region is the console region a ROM targets.
type Region int

const (
	RegionNTSC Region = iota
	RegionPAL
	RegionDendy
)

// headerSize is the fixed iNES header length; trainerSize follows it when
// flag 6 bit 2 is set.
const (
	headerSize  = 16
	trainerSize = 512

	// maxPrgSize bounds a single region against corrupt exponential
	// sizes; totalAllocLimit bounds the whole image.
	maxPrgSize      = 64 << 20
	totalAllocLimit = 64 << 20
)

// maxSubmapper lists the highest NES 2.0 submapper assigned for each
// mapper this core implements. Higher values name boards that do not
// exist.
var maxSubmapper = map[uint16]uint8{
	0: 0,
	1: 5,
	2: 2,
	3: 2,
	4: 4,
	7: 2,
}

// knownMapperNumber reports whether a mapper number is at least an
// assigned one. The 8-bit iNES space is fully allocated; the NES 2.0
// extended plane above 255 is almost entirely vacant, so an unmatched
// number there is unknown rather than merely unsupported.
func knownMapperNumber(number uint16) bool {
	return number < 256
}

// Cartridge owns the ROM image buffers and the mapper operating on them.
// It is loaded once and owned by the emulation state for its lifetime.
type Cartridge struct {
	PRGROM []uint8
	CHRROM []uint8 // nil when the board carries CHR RAM instead
	CHRRAM []uint8
	PRGRAM []uint8

	MapperNumber uint16
	Submapper    uint8
	Region       Region
	Battery      bool

	Mapper mapper.Mapper
}

// Load parses an iNES or NES 2.0 image from a byte slice.
func Load(data []byte) (*Cartridge, error) {
	if len(data) < headerSize {
		return nil, ErrFileTooSmall
	}
	if !bytes.Equal(data[0:4], []byte("NES\x1A")) {
		return nil, ErrInvalidMagic
	}

	flags6 := data[6]
	flags7 := data[7]
	nes2 := flags7&0x0C == 0x08
	switch flags7 & 0x0C {
	case 0x04:
		// Archaic iNES with bit 2 set alone: cannot trust upper fields.
		return nil, ErrAmbiguousFormat
	case 0x0C:
		// Both format bits set names no defined format.
		return nil, ErrInvalidNes2Identifier
	}

	cart := &Cartridge{}

	prgUnits := int(data[4])
	chrUnits := int(data[5])
	cart.MapperNumber = uint16(flags6>>4) | uint16(flags7&0xF0)

	prgSize := prgUnits * 16384
	chrSize := chrUnits * 8192
	prgRAMSize := 8192
	chrRAMSize := 8192

	if nes2 {
		cart.MapperNumber |= uint16(data[8]&0x0F) << 8
		cart.Submapper = data[8] >> 4
		if cart.MapperNumber > 0x0FFF {
			return nil, ErrInvalidMapperNumber
		}
		if max, ok := maxSubmapper[cart.MapperNumber]; ok && cart.Submapper > max {
			return nil, fmt.Errorf("%w: %d for mapper %d",
				ErrInvalidSubmapper, cart.Submapper, cart.MapperNumber)
		}

		var err error
		prgSize, err = nes2RomSize(uint8(prgUnits), data[9]&0x0F, 16384)
		if err != nil {
			return nil, err
		}
		chrSize, err = nes2RomSize(uint8(chrUnits), data[9]>>4, 8192)
		if err != nil {
			return nil, err
		}

		if s := data[10] & 0x0F; s != 0 {
			prgRAMSize = 64 << s
			if prgRAMSize > maxPrgSize {
				return nil, ErrInvalidPrgRamSize
			}
		}
		if s := data[11] & 0x0F; s != 0 {
			chrRAMSize = 64 << s
			if chrRAMSize > maxPrgSize {
				return nil, ErrInvalidChrRamSize
			}
		}
		if s := data[10] >> 4; s != 0 {
			// Battery-backed PRG RAM declared without the battery flag
			// is an inconsistent header.
			if flags6&0x02 == 0 {
				return nil, ErrInvalidBatteryRam
			}
			prgRAMSize = 64 << s
			if prgRAMSize > maxPrgSize {
				return nil, ErrInvalidPrgRamSize
			}
		}

		if data[12]&0xFC != 0 {
			// Reserved timing bits must read zero.
			return nil, ErrInvalidRegion
		}
		switch data[12] & 0x03 {
		case 0:
			cart.Region = RegionNTSC
		case 1:
			cart.Region = RegionPAL
		case 2:
			// Multi-region: default to NTSC but note the ambiguity.
			logger.LogInfo("multi-region ROM, defaulting to NTSC")
			cart.Region = RegionNTSC
		case 3:
			cart.Region = RegionDendy
		}
	} else {
		for _, b := range data[11:16] {
			if b != 0 {
				logger.LogInfo("nonzero reserved header bytes, loading anyway")
				break
			}
		}
		if data[9]&0x01 != 0 {
			cart.Region = RegionPAL
		}
	}

	if prgSize == 0 {
		return nil, ErrZeroPrgRomSize
	}
	if prgSize > maxPrgSize {
		return nil, ErrPrgRomSizeTooLarge
	}
	if chrSize > maxPrgSize {
		return nil, ErrInvalidChrSize
	}
	if prgSize+chrSize+prgRAMSize+chrRAMSize > totalAllocLimit {
		return nil, ErrOutOfMemory
	}

	offset := headerSize
	if flags6&0x04 != 0 {
		if len(data) < offset+trainerSize {
			return nil, ErrInvalidTrainerSize
		}
		offset += trainerSize
	}

	if len(data) < offset+prgSize+chrSize {
		return nil, ErrFileSizeMismatch
	}
	if extra := len(data) - (offset + prgSize + chrSize); extra > 0 {
		logger.LogInfo("%d trailing bytes after CHR data, ignoring", extra)
	}

	cart.PRGROM = make([]uint8, prgSize)
	copy(cart.PRGROM, data[offset:offset+prgSize])
	offset += prgSize

	if chrSize > 0 {
		cart.CHRROM = make([]uint8, chrSize)
		copy(cart.CHRROM, data[offset:offset+chrSize])
	} else {
		cart.CHRRAM = make([]uint8, chrRAMSize)
	}

	cart.Battery = flags6&0x02 != 0
	if cart.Battery || !nes2 {
		cart.PRGRAM = make([]uint8, prgRAMSize)
	}

	mirroring := mapper.MirrorHorizontal
	if flags6&0x08 != 0 {
		mirroring = mapper.MirrorFourScreen
	} else if flags6&0x01 != 0 {
		mirroring = mapper.MirrorVertical
	}

	mapperData := &mapper.CartridgeData{
		PRGROM:          cart.PRGROM,
		CHRROM:          cart.CHRROM,
		CHRRAM:          cart.CHRRAM,
		PRGRAM:          cart.PRGRAM,
		HeaderMirroring: mirroring,
	}

	m, err := mapper.New(cart.MapperNumber, mapperData)
	if err != nil {
		if !knownMapperNumber(cart.MapperNumber) {
			return nil, fmt.Errorf("%w: %d", ErrUnknownMapper, cart.MapperNumber)
		}
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedMapper, cart.MapperNumber)
	}
	cart.Mapper = m

	logger.LogInfo("loaded mapper %d: PRG %dKB, CHR %dKB (RAM %v)",
		cart.MapperNumber, prgSize/1024, (chrSize+len(cart.CHRRAM))/1024, chrSize == 0)

	return cart, nil
}

// nes2RomSize decodes a NES 2.0 ROM size field. When the high nibble is
// $F the low byte holds an exponent-multiplier pair instead of a unit
// count.
func nes2RomSize(units uint8, highNibble uint8, unitSize int) (int, error) {
	if highNibble == 0x0F {
		exponent := units >> 2
		multiplier := units & 0x03
		if exponent > 30 {
			return 0, ErrCorruptRomData
		}
		return (1 << exponent) * (int(multiplier)*2 + 1), nil
	}
	return (int(highNibble)<<8 | int(units)) * unitSize, nil
}

// LoadFromReader reads an entire image from r and parses it.
func LoadFromReader(r io.Reader) (*Cartridge, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedEof, err)
	}
	return Load(data)
}

// CPURead reads from cartridge CPU space ($4020-$FFFF)
func (c *Cartridge) CPURead(addr uint16) uint8 {
	return c.Mapper.CPURead(addr)
}

// CPUWrite writes to cartridge CPU space
func (c *Cartridge) CPUWrite(addr uint16, value uint8) {
	c.Mapper.CPUWrite(addr, value)
}

// PPURead reads from the pattern table space
func (c *Cartridge) PPURead(addr uint16) uint8 {
	return c.Mapper.PPURead(addr)
}

// PPUWrite writes to the pattern table space
func (c *Cartridge) PPUWrite(addr uint16, value uint8) {
	c.Mapper.PPUWrite(addr, value)
}

// OnA12Rising forwards a PPU A12 rising edge to the mapper
func (c *Cartridge) OnA12Rising() {
	c.Mapper.OnA12Rising()
}

// IRQLine reports the mapper's level-triggered IRQ output
func (c *Cartridge) IRQLine() bool {
	return c.Mapper.IRQLine()
}

// AcknowledgeIRQ deasserts the mapper IRQ line
func (c *Cartridge) AcknowledgeIRQ() {
	c.Mapper.AcknowledgeIRQ()
}

// Mirroring returns the current nametable arrangement
func (c *Cartridge) Mirroring() mapper.Mirroring {
	return c.Mapper.Mirroring()
}

// Reset resets the mapper to its power-on state
func (c *Cartridge) Reset() {
	c.Mapper.Reset()
}
