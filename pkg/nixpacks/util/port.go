/*
Copyright 2026 The Nixpacks Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package util

import (
	"fmt"
	"net"
	"sync"
)

// Loopback is the address servers listen on by default.
const Loopback = "127.0.0.1"

// PortSet remembers ports handed out by GetAvailablePort.
type PortSet struct {
	ports map[int]bool
	lock  sync.Mutex
}

// LoadOrSet reserves port, returning true if it was already reserved.
func (f *PortSet) LoadOrSet(port int) bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.ports == nil {
		f.ports = map[int]bool{}
	}
	if f.ports[port] {
		return true
	}
	f.ports[port] = true
	return false
}

// GetAvailablePort returns port when it is free on address, else the first
// free port of the next hundred, else a port picked by the kernel.
// Ports reserved in usedPorts are skipped.
func GetAvailablePort(address string, port int, usedPorts *PortSet) int {
	if port > 0 {
		for p := port; p < port+100 && p < 65536; p++ {
			if usedPorts.LoadOrSet(p) {
				continue
			}
			if isPortFree(address, p) {
				return p
			}
		}
	}

	for {
		l, err := net.Listen("tcp", fmt.Sprintf("%s:0", address))
		if err != nil {
			return 0
		}
		p := l.Addr().(*net.TCPAddr).Port
		l.Close()
		if !usedPorts.LoadOrSet(p) {
			return p
		}
	}
}

func isPortFree(address string, port int) bool {
	l, err := net.Listen("tcp", fmt.Sprintf("%s:%d", address, port))
	if err != nil {
		return false
	}
	l.Close()
	return true
}
