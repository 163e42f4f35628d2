package emu

import "testing"

func TestDetectRegion_AlwaysNTSC(t *testing.T) {
	// Timing is fixed worldwide; nothing in the image changes it
	if r := DetectRegion(nil); r != RegionNTSC {
		t.Errorf("expected NTSC, got %v", r)
	}
	if r := DetectRegion(make([]byte, romBankSize)); r != RegionNTSC {
		t.Errorf("expected NTSC, got %v", r)
	}
}

func TestDefaultRegion(t *testing.T) {
	if r := DefaultRegion(); r != RegionNTSC {
		t.Errorf("expected NTSC, got %v", r)
	}
}
