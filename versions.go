// Copyright (C) 2025 SAGE-X Project
//
// This file is part of sage-beckn-go.
//
// sage-beckn-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// sage-beckn-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with sage-beckn-go.  If not, see <https://www.gnu.org/licenses/>.

// Package sagebeckn provides version information for sage-beckn-go and its dependencies.
package sagebeckn

import "github.com/sage-x-project/sage-beckn-go/pkg/version"

const (
	// Version is the current version of sage-beckn-go
	Version = version.Version

	// BecknCoreVersion is the Beckn core protocol version this library speaks
	// See: https://github.com/beckn/protocol-specifications
	BecknCoreVersion = version.BecknCoreVersion

	// SAGEVersion is the SAGE core version required
	SAGEVersion = version.SAGEVersion
)

// VersionInfo contains detailed version information
type VersionInfo = version.Info

// GetVersionInfo returns detailed version information
func GetVersionInfo() VersionInfo {
	return version.Get()
}
