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
package utils

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
	Sleep(d time.Duration)
}

type RealClock struct{}

func (self RealClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

func (self RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

func (self RealClock) Now() time.Time {
	return time.Now()
}

type MockClock struct {
	MockNow time.Time
}

func (self MockClock) Now() time.Time {
	return self.MockNow
}

func (self MockClock) After(d time.Duration) <-chan time.Time {
	return time.After(0)
}

func (self MockClock) Sleep(d time.Duration) {}

// A clock that only moves when someone waits on it. Waiting for d
// advances the clock by d and returns immediately.
type SteppingClock struct {
	mu      sync.Mutex
	NowTime time.Time
}

func NewSteppingClock(start time.Time) *SteppingClock {
	return &SteppingClock{NowTime: start}
}

func (self *SteppingClock) Now() time.Time {
	self.mu.Lock()
	defer self.mu.Unlock()

	return self.NowTime
}

func (self *SteppingClock) After(d time.Duration) <-chan time.Time {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.NowTime = self.NowTime.Add(d)
	output_chan := make(chan time.Time, 1)
	output_chan <- self.NowTime
	return output_chan
}

func (self *SteppingClock) Sleep(d time.Duration) {
	<-self.After(d)
}
