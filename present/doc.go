// Package present renders sessions on a terminal: coloured sequences, a text
// histogram of sequence lengths and the progress counters.
package present
