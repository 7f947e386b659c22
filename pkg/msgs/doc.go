// Package msgs defines the messages a gpiocmd device publishes besides
// its raw text output.
package msgs

// CommandRecord is protobuf encoded and describes one dispatched line.
// Meta is JSON encoded and retained, announcing the device.
