package container

import "fmt"

// Service is one entry of a boot-time service list.
type Service struct {
	Name    string
	Kind    Kind
	Payload any
}

// Load registers every service. Raw payloads are stored as-is; singleton and
// factory payloads must be a FactoryFunc, a func(*Container) any or a
// func() any.
func (c *Container) Load(services ...Service) error {
	for _, s := range services {
		def, err := s.definition()
		if err != nil {
			return err
		}
		if err := c.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func (s Service) definition() (*Definition, error) {
	if s.Kind == Raw {
		return NewRaw(s.Name, s.Payload), nil
	}
	var f FactoryFunc
	switch p := s.Payload.(type) {
	case FactoryFunc:
		f = p
	case func(*Container) any:
		f = p
	case func() any:
		f = func(*Container) any { return p() }
	default:
		return nil, fmt.Errorf("container: service [%s]: %s payload must be a factory, got %T", s.Name, s.Kind, s.Payload)
	}
	return &Definition{Name: s.Name, Kind: s.Kind, Factory: f}, nil
}
