package sim

import "fmt"

// A Simulation keeps the components of a simulated system and their ports,
// so that they can be looked up by name.
type Simulation struct {
	components    []Component
	compNameIndex map[string]int
	ports         []Port
	portNameIndex map[string]int
}

// NewSimulation creates a new simulation.
func NewSimulation() *Simulation {
	return &Simulation{
		compNameIndex: make(map[string]int),
		portNameIndex: make(map[string]int),
	}
}

// RegisterComponent registers a component and all of its ports. Names must
// be valid and unique.
func (s *Simulation) RegisterComponent(c Component) {
	compName := c.Name()
	NameMustBeValid(compName)

	if _, found := s.compNameIndex[compName]; found {
		panic("component " + compName + " already registered")
	}

	s.components = append(s.components, c)
	s.compNameIndex[compName] = len(s.components) - 1

	for _, p := range c.Ports() {
		s.registerPort(p)
	}
}

func (s *Simulation) registerPort(p Port) {
	portName := p.Name()
	NameMustBeValid(portName)

	if _, found := s.portNameIndex[portName]; found {
		panic("port " + portName + " already registered")
	}

	s.ports = append(s.ports, p)
	s.portNameIndex[portName] = len(s.ports) - 1
}

// Components returns the registered components in registration order.
func (s *Simulation) Components() []Component {
	return s.components
}

// GetComponentByName returns the component with the given name.
func (s *Simulation) GetComponentByName(name string) Component {
	i, found := s.compNameIndex[name]
	if !found {
		panic(fmt.Sprintf("component %s not registered", name))
	}

	return s.components[i]
}

// GetPortByName returns the port with the given name.
func (s *Simulation) GetPortByName(name string) Port {
	i, found := s.portNameIndex[name]
	if !found {
		panic(fmt.Sprintf("port %s not registered", name))
	}

	return s.ports[i]
}

// AcceptPortHook attaches a hook to every registered port.
func (s *Simulation) AcceptPortHook(h Hook) {
	for _, p := range s.ports {
		p.AcceptHook(h)
	}
}
