package mem

import (
	"errors"
	"fmt"
)

// ErrAddressOutOfRange is returned when an access falls beyond the capacity
// of a Storage.
var ErrAddressOutOfRange = errors.New("address out of storage range")

// Useful units
const (
	KB uint64 = 1 << 10
	MB uint64 = 1 << 20
	GB uint64 = 1 << 30
)

// A Storage keeps the data of the simulated system.
//
// Storage is allocated lazily in units (similar to pages). Units not touched
// by Read or Write take no host memory and read as zeros.
type Storage struct {
	unitSize uint64
	capacity uint64
	data     map[uint64][]byte
}

// NewStorage creates a storage object with the specified capacity.
func NewStorage(capacity uint64) *Storage {
	return &Storage{
		unitSize: 4 * KB,
		capacity: capacity,
		data:     make(map[uint64][]byte),
	}
}

// Capacity returns the number of bytes the storage can hold.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

func (s *Storage) mustBeInRange(address, length uint64) error {
	if address+length > s.capacity || address+length < address {
		return fmt.Errorf("accessing [0x%x, 0x%x) with capacity 0x%x: %w",
			address, address+length, s.capacity, ErrAddressOutOfRange)
	}

	return nil
}

func (s *Storage) unit(address uint64) []byte {
	baseAddr := address - address%s.unitSize

	unit, ok := s.data[baseAddr]
	if !ok {
		unit = make([]byte, s.unitSize)
		s.data[baseAddr] = unit
	}

	return unit
}

// Read returns a copy of length bytes starting from address.
func (s *Storage) Read(address uint64, length uint64) ([]byte, error) {
	if err := s.mustBeInRange(address, length); err != nil {
		return nil, err
	}

	res := make([]byte, length)

	for done := uint64(0); done < length; {
		currAddr := address + done
		inUnitAddr := currAddr % s.unitSize
		n := copy(res[done:], s.unit(currAddr)[inUnitAddr:])
		done += uint64(n)
	}

	return res, nil
}

// Write stores data starting from address.
func (s *Storage) Write(address uint64, data []byte) error {
	length := uint64(len(data))
	if err := s.mustBeInRange(address, length); err != nil {
		return err
	}

	for done := uint64(0); done < length; {
		currAddr := address + done
		inUnitAddr := currAddr % s.unitSize
		n := copy(s.unit(currAddr)[inUnitAddr:], data[done:])
		done += uint64(n)
	}

	return nil
}
