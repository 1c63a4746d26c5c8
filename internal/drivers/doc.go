// Package drivers holds the minimal boot-time device modules. Each one is a
// module.IRQHandler: it programs its device once at registration and then
// drains the device on every interrupt on its lines.
package drivers

import "github.com/GriffinCanCode/AgentOS/executive/internal/domain/capability"

// Ports is the port I/O a driver needs.
type Ports interface {
	Inb(port uint16) uint8
	Outb(port uint16, value uint8)
}

// Capabilities is the capability set every driver declares.
func Capabilities() capability.Set {
	return capability.Set{capability.IRQ}
}
