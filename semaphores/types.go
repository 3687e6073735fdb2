/*
   semwatch - System V semaphore usage sampler
   Copyright (C) 2025 Rapid7 Inc.

   This program is free software: you can redistribute it and/or modify
   it under the terms of the GNU Affero General Public License as published
   by the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   This program is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU Affero General Public License for more details.

   You should have received a copy of the GNU Affero General Public License
   along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
// Package semaphores reads System V semaphore accounting and attributes
// semaphore sets to the users running tracked processes.
package semaphores

import (
	"time"

	"github.com/Velocidex/ordereddict"
	"www.velocidex.com/golang/semwatch/constants"
)

type Role string

const (
	// The database instance (db2sysc).
	PrimaryRole Role = "primary"

	// Fenced helper processes (db2fmp).
	HelperRole Role = "helper"
)

// The account a tracked process role runs under.
type Identity struct {
	Role Role
	User string
}

// One active semaphore set.
type Record struct {
	Owner string
	Count uint64
}

type Bucket struct {
	Identity
	Count uint64
}

// Tally attributes semaphores to the tracked identities, in the order
// they were given, with everything else in System.
type Tally struct {
	Tracked []Bucket
	System  uint64

	// Set when two roles share an account. Each of those buckets holds
	// the combined count for the account.
	Shared bool

	total uint64
}

// The number of semaphores attributed to the role, or 0 if the role
// is not tracked.
func (self *Tally) Count(role Role) uint64 {
	for _, b := range self.Tracked {
		if b.Role == role {
			return b.Count
		}
	}
	return 0
}

func (self *Tally) Primary() uint64 {
	return self.Count(PrimaryRole)
}

func (self *Tally) Helper() uint64 {
	return self.Count(HelperRole)
}

// Total semaphores in the inventory. Shared accounts are only counted
// once.
func (self *Tally) Total() uint64 {
	return self.total
}

func (self *Tally) ToDict() *ordereddict.Dict {
	result := ordereddict.NewDict()
	for _, b := range self.Tracked {
		result.Set(string(b.Role), ordereddict.NewDict().
			Set("User", b.User).
			Set("Count", b.Count))
	}
	result.Set(constants.SYSTEM_BUCKET, self.System).
		Set("Shared", self.Shared).
		Set("Total", self.total)
	return result
}

type Sample struct {
	Timestamp time.Time
	Tally     *Tally
	Ceiling   uint64
}

func (self *Sample) ToDict() *ordereddict.Dict {
	return ordereddict.NewDict().
		Set("Timestamp", self.Timestamp.UTC().Format(time.RFC3339Nano)).
		Set("Tally", self.Tally.ToDict()).
		Set("Ceiling", self.Ceiling)
}
