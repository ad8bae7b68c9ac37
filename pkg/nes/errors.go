package nes

import "errors"

// errBadSnapshot rejects snapshots with the wrong magic, version or
// cartridge geometry.
var errBadSnapshot = errors.New("nes: incompatible snapshot")
