// Package types defines shared Go types used by the console, REST API and
// event stream. These are the display representations of pool state,
// separate from the store's internal Entry records.
package types
