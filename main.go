package main

import (
	"flag"
	"io"
	"log"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/hajimehoshi/ebiten/v2"
	emubridge "github.com/user-none/emstarlet/bridge/ebiten"
	"github.com/user-none/emstarlet/cli"
	"github.com/user-none/emstarlet/emu"
)

// mappedROM is a memory mapped cartridge image. The mapping stays
// open for the life of the emulator, so cartridge bytes are read in
// place instead of copied onto the heap.
type mappedROM struct {
	file *os.File
	data mmap.MMap
}

func mapROM(path string) (*mappedROM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &mappedROM{file: f, data: m}, nil
}

func (m *mappedROM) Close() {
	m.data.Unmap()
	m.file.Close()
}

func main() {
	romPath := flag.String("rom", "", "path to firmware ROM image (required)")
	cartPath := flag.String("cart", "", "path to a program cartridge image")
	ioCartPath := flag.String("iocart", "", "path to an I/O cartridge image")
	modelFlag := flag.String("model", "pc8500", "machine model: pc8500 or pc8401a")
	ram96 := flag.Bool("ram96", false, "fit the 32KB RAM expansion cartridge")
	serialPath := flag.String("serial-out", "", "append serial transmit data to this file")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("ROM path is required. Usage: emstarlet -rom <path>")
	}

	romData, err := os.ReadFile(*romPath)
	if err != nil {
		log.Fatalf("Failed to load ROM: %v", err)
	}
	if err := emu.ValidateBootCode(romData); err != nil {
		log.Printf("Warning: %v", err)
	}

	model, err := emu.ParseModel(*modelFlag)
	if err != nil {
		log.Fatalf("Invalid model: %s (use pc8500 or pc8401a)", *modelFlag)
	}

	e, err := emubridge.NewEmulator(romData, emu.DefaultRegion())
	if err != nil {
		log.Fatalf("Failed to initialize emulator: %v", err)
	}

	e.SetModel(model)
	e.SetRAMExpansion(*ram96)

	if *cartPath != "" {
		cart, err := mapROM(*cartPath)
		if err != nil {
			log.Fatalf("Failed to load cartridge: %v", err)
		}
		defer cart.Close()
		e.AttachCartridge(cart.data)
	}

	if *ioCartPath != "" {
		cart, err := mapROM(*ioCartPath)
		if err != nil {
			log.Fatalf("Failed to load I/O cartridge: %v", err)
		}
		defer cart.Close()
		e.AttachIOCartridge(cart.data)
	}

	height := e.GetActiveHeight()
	ebiten.SetWindowSize(emu.ScreenWidth*2, height*2)
	ebiten.SetWindowTitle(emu.Name)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(emu.ScreenWidth, height, -1, -1)
	ebiten.SetTPS(60)

	var serialOut io.Writer
	if *serialPath != "" {
		f, err := os.OpenFile(*serialPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Fatalf("Failed to open serial output: %v", err)
		}
		defer f.Close()
		serialOut = f
	}

	runner := cli.NewRunner(e, serialOut)
	defer e.Close()
	defer runner.Close()

	if err := ebiten.RunGame(runner); err != nil {
		log.Fatal(err)
	}
}
