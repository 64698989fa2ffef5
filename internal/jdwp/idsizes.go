// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package jdwp

import "fmt"

// IDSizes holds the byte widths of the variable sized identifiers. The values are
// reported to the client by VirtualMachine.IDSizes and stay fixed for the session.
type IDSizes struct {
	FieldIDSize         int `json:"field"`
	MethodIDSize        int `json:"method"`
	ObjectIDSize        int `json:"object"`
	ReferenceTypeIDSize int `json:"reference_type"`
	FrameIDSize         int `json:"frame"`
}

// DefaultIDSizes uses 8 bytes for every identifier kind.
var DefaultIDSizes = IDSizes{
	FieldIDSize:         8,
	MethodIDSize:        8,
	ObjectIDSize:        8,
	ReferenceTypeIDSize: 8,
	FrameIDSize:         8,
}

// Validate checks that every width is between 1 and 8 bytes.
func (s IDSizes) Validate() error {
	for _, f := range []struct {
		name string
		size int
	}{
		{"field", s.FieldIDSize},
		{"method", s.MethodIDSize},
		{"object", s.ObjectIDSize},
		{"reference type", s.ReferenceTypeIDSize},
		{"frame", s.FrameIDSize},
	} {
		if f.size < 1 || f.size > 8 {
			return fmt.Errorf("jdwp: %s ID size %d out of range 1..8", f.name, f.size)
		}
	}
	return nil
}
