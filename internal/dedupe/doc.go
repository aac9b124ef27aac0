// Package dedupe tracks which inbound content events have already been
// emitted downstream, so a transport replay after reconnect does not
// produce duplicate content notifications.
package dedupe
