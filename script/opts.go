package script

/*
 * Licensed under LGPL-3.0.
 *
 * You can get a copy of the LGPL-3.0 License at
 *
 * https://www.gnu.org/licenses/lgpl-3.0.en.html
 *
 * @wcgcyx - https://github.com/wcgcyx
 */

import "time"

const (
	defaultTimeout          = 5 * time.Second
	defaultMaxCallStackSize = 256
)

// Opts is the options for script contracts.
type Opts struct {
	// Timeout interrupts a function body running longer than it.
	Timeout time.Duration

	// MaxCallStackSize is the maximum depth of script function calls.
	MaxCallStackSize int
}
