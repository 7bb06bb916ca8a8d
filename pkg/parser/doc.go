// Package parser reads uconfig configuration descriptions.
//
// A description is a sequence of statements:
//
//	menu "Drivers"
//	    depends on HAS_IO
//
//	config SERIAL
//	    prompt "Serial console"
//	    bool true
//	    select UART
//	    help "Enables the serial console."
//
//	config BAUD
//	    prompt "Baud rate"
//	    int 115200
//	    depends on SERIAL
//
//	choice UART_BASE
//	    prompt "UART base address"
//	    option 0x3f8 default
//	    option 0x2f8 if !LEGACY
//	endchoice
//
//	endmenu
//
//	include "boards/configs.in"
//
// Expressions combine symbols and literals with ==, !=, !, && and ||.
// Multiple "depends on" clauses are AND-ed. "hex" declares an integer that
// is persisted and rendered in hexadecimal.
//
// The Loader drives the engine's Builder: it parses the primary file, then
// each queued include in order, each into the menu that contained the
// include statement.
package parser
