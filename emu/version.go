package emu

// Core identity reported to frontends.
const (
	Name    = "emstarlet"
	Version = "1.0.0"
)
