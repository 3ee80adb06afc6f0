package sim

import (
	"fmt"
	"os"
	"sort"
)

// A Named object is an object that has a name.
type Named interface {
	Name() string
}

// A PortOwner is told about everything that arrives at its ports.
type PortOwner interface {
	Named

	// RecvMsg is called when the peer of port sends msg. Returning false
	// rejects the message, and the owner then owes the peer a retry through
	// port.SendRetry.
	RecvMsg(port Port, msg Msg) bool

	// RecvRetry is called when the peer of port can now accept a message
	// that it rejected before.
	RecvRetry(port Port)
}

// A Component is an element that is being simulated.
type Component interface {
	Hookable
	PortOwner

	GetPortByName(name string) Port
	Ports() []Port
}

// ComponentBase provides some functions that other components can use.
type ComponentBase struct {
	HookableBase

	name  string
	ports map[string]Port
}

// NewComponentBase creates a new ComponentBase.
func NewComponentBase(name string) *ComponentBase {
	c := new(ComponentBase)
	c.name = name
	c.ports = make(map[string]Port)

	return c
}

// Name returns the name of the component.
func (c *ComponentBase) Name() string {
	return c.name
}

// AddPort registers a port under a short name.
func (c *ComponentBase) AddPort(name string, port Port) {
	if _, found := c.ports[name]; found {
		panic("port already exist")
	}

	c.ports[name] = port
}

// GetPortByName returns the port by the name of the port.
func (c *ComponentBase) GetPortByName(name string) Port {
	port, found := c.ports[name]
	if !found {
		errMsg := fmt.Sprintf(
			"Port %s is not available on component %s.\n", name, c.name)
		errMsg += "Available ports include:\n"

		for _, n := range c.portNames() {
			errMsg += fmt.Sprintf("\t%s\n", n)
		}

		fmt.Fprint(os.Stderr, errMsg)

		panic("port not found")
	}

	return port
}

// Ports returns all the ports, sorted by their short names.
func (c *ComponentBase) Ports() []Port {
	list := make([]Port, 0, len(c.ports))
	for _, n := range c.portNames() {
		list = append(list, c.ports[n])
	}

	return list
}

func (c *ComponentBase) portNames() []string {
	names := make([]string, 0, len(c.ports))
	for k := range c.ports {
		names = append(names, k)
	}

	sort.Strings(names)

	return names
}
