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

// startShutdownManager forwards shutdown requests from every ShutdownSender
// to reap. Shutdown itself waits on s.wg, so it must not be called from here.
func (s *Supervisor) startShutdownManager() {
	defer s.wg.Done()
	s.logger.Debug("Starting shutdown manager...")

	var listeners sync.WaitGroup
	for _, r := range s.runnables {
		sender, ok := r.(ShutdownSender)
		if !ok {
			continue
		}
		listeners.Go(func() {
			select {
			case <-s.ctx.Done():
			case <-sender.GetShutdownTrigger():
				s.shutdownRequests <- r
			}
		})
	}

	<-s.ctx.Done()
	listeners.Wait()
	s.logger.Debug("Shutdown manager complete.")
}
