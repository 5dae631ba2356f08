/*
Copyright 2024 Robert Terhaar <robbyt@robbyt.net>

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

package supervisor

import (
	"context"
	"fmt"
)

// Runnable is a unit of work the supervisor starts and stops. Reactors
// satisfy it, as do plain services.
type Runnable interface {
	fmt.Stringer // Runnables need a String() method to be identifiable in logs

	// Run blocks until the work unit finishes or ctx is done. Returning nil
	// means the unit finished normally; an error shuts down the supervisor.
	Run(ctx context.Context) error
	// Stop signals the work unit to stop and blocks until it has.
	Stop()
}

// Stateable represents a work unit that can report its lifecycle phase.
type Stateable interface {
	// GetState returns the current phase.
	GetState() string

	// GetStateChan returns a channel that receives the current phase and
	// every later change, closed when ctx is done.
	GetStateChan(context.Context) <-chan string
}

// ShutdownSender represents a work unit that can ask for the whole
// supervisor to shut down, for example when its machine has terminated.
type ShutdownSender interface {
	// GetShutdownTrigger returns a channel that is closed or written to when
	// shutdown is requested.
	GetShutdownTrigger() <-chan struct{}
}
