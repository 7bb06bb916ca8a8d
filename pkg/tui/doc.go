// Package tui is the interactive menu browser of uconfig.
//
// The browser walks the menu tree of an engine.Database. Submenus are listed
// as "[+]", booleans as "[*]" or "[ ]", integer and string entries open an
// input box and choice entries a radio list. Entries whose dependency is
// false, and entries without a prompt, are hidden. Every change goes through
// the engine's toggle operations so select propagation applies immediately.
//
// Keys: up/down move, enter or space activates, backspace goes up a menu,
// h shows the help of the highlighted entry, s saves and q asks to quit.
package tui
