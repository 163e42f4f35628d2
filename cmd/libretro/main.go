package main

import (
	libretro "github.com/user-none/eblitui/libretro"
	"github.com/user-none/emstarlet/adapter"
)

func init() {
	libretro.RegisterFactory(&adapter.Factory{}, []libretro.RetropadMapping{
		{RetroID: libretro.JoypadA, BitID: 4},      // Enter
		{RetroID: libretro.JoypadB, BitID: 5},      // Space
		{RetroID: libretro.JoypadX, BitID: 6},      // Shift
		{RetroID: libretro.JoypadStart, BitID: 7},  // Stop
		{RetroID: libretro.JoypadSelect, BitID: 8}, // Esc
		{RetroID: libretro.JoypadL, BitID: 9},      // F1
		{RetroID: libretro.JoypadR, BitID: 10},     // F2
		{RetroID: libretro.JoypadY, BitID: 11},     // F3
	})
}

func main() {}
