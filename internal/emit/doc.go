// Package emit renders the C++ artifacts of a run: the extern "C" wrapper
// translation unit that implements every synthesized function, and the layout
// probe program whose output pins size and alignment for stack-placed classes.
package emit
