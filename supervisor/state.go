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

import "sync"

// StateMap maps a runnable's String() to its last known phase.
type StateMap map[string]string

// GetCurrentState returns the live phase of r, or "unknown" when r does not
// implement Stateable.
func (s *Supervisor) GetCurrentState(r Runnable) string {
	if st, ok := r.(Stateable); ok {
		return st.GetState()
	}
	return "unknown"
}

// GetCurrentStates returns the live phase of every Stateable runnable.
func (s *Supervisor) GetCurrentStates() map[Runnable]string {
	states := make(map[Runnable]string)
	for _, r := range s.runnables {
		if st, ok := r.(Stateable); ok {
			states[r] = st.GetState()
		}
	}
	return states
}

// GetStateMap returns the phases recorded by the state monitor.
func (s *Supervisor) GetStateMap() StateMap {
	stateMap := make(StateMap)
	s.stateMap.Range(func(key, value any) bool {
		stateMap[key.(Runnable).String()] = value.(string)
		return true
	})
	return stateMap
}

// startStateMonitor follows the state channel of every Stateable runnable,
// recording and logging each change, until the supervisor context ends.
// Consecutive duplicates are ignored.
func (s *Supervisor) startStateMonitor() {
	defer s.wg.Done()
	s.logger.Debug("Starting state monitor...")

	var monitors sync.WaitGroup
	for _, r := range s.runnables {
		st, ok := r.(Stateable)
		if !ok {
			continue
		}
		monitors.Go(func() {
			s.monitorState(r, st)
		})
	}

	<-s.ctx.Done()
	monitors.Wait()
	s.logger.Debug("State monitor complete.")
}

func (s *Supervisor) monitorState(r Runnable, st Stateable) {
	stateChan := st.GetStateChan(s.ctx)
	var lastState string
	for {
		select {
		case <-s.ctx.Done():
			return
		case state, ok := <-stateChan:
			if !ok {
				return
			}
			if state == lastState {
				continue
			}
			prev, _ := s.stateMap.Swap(r, state)
			lastState = state
			s.logger.Debug("State changed", "runnable", r, "oldState", prev, "state", state)
		}
	}
}
