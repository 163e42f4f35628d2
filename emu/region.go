package emu

import emucore "github.com/user-none/eblitui/api"

// Region identifies the market timing family reported to frontends.
// The portable's panel refresh is fixed at 44 Hz either way.
type Region = emucore.Region

const (
	RegionNTSC = emucore.RegionNTSC
	RegionPAL  = emucore.RegionPAL
)

// DetectRegion returns the default region for any firmware image. The
// machine shipped worldwide with identical timing, so nothing in the
// image affects it.
func DetectRegion(rom []byte) Region {
	return RegionNTSC
}

// DefaultRegion returns the default region (NTSC).
func DefaultRegion() Region {
	return RegionNTSC
}
