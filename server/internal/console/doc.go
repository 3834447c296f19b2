// Package console implements the interactive operator shell.
//
// The shell reads one command per line and dispatches it through a cobra
// command tree rebuilt for every line, so flag state never leaks between
// commands. Usage errors are printed and the shell keeps going; only exit,
// quit, close or end of input end it.
//
//	collector start [period] | stop | enable | disable
//	pool
//	delete <id>
//	garbage [lifetime]
//	sweep
//	stats
//	help [command]
//	exit | quit | close
package console
