// Package viz renders a running simulation in the terminal.
//
// [Model] is a Bubble Tea program that advances a [sim.Simulator] at a fixed
// tick rate and draws the bodies on a Braille [Canvas] seen from above.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	+/-   - Zoom in/out
//	Tab   - Select next body
//	F     - Follow selected body
//	X/x   - Tilt view
//	Z/z   - Spin view
//	0     - Reset view
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit
package viz
