//go:build !libretro && !ios

package main

import (
	"flag"
	"log"

	"github.com/user-none/eblitui/standalone"
	"github.com/user-none/emstarlet/adapter"
)

func main() {
	romPath := flag.String("rom", "", "path to firmware ROM image (opens UI if not provided)")
	modelFlag := flag.String("model", "pc8500", "machine model: pc8500 or pc8401a")
	ram96 := flag.Bool("ram96", false, "fit the 32KB RAM expansion cartridge")
	flag.Parse()

	factory := &adapter.Factory{}

	if *romPath != "" {
		options := map[string]string{
			"model": *modelFlag,
		}
		if *ram96 {
			options["ram_expansion"] = "true"
		} else {
			options["ram_expansion"] = "false"
		}
		if err := standalone.RunDirect(factory, *romPath, "auto", options); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := standalone.Run(factory); err != nil {
		log.Fatal(err)
	}
}
