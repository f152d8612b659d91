// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package state

// ScheduledGov is a set of attribute path/value pairs to be applied at a
// future height (SetGovVariableHeight and conditional split pre-locks).
type ScheduledGov struct {
	Values map[string]string
}

func govScheduledKey(height uint32, ordinal uint32) []byte {
	key := appendU32([]byte{prefixGovScheduled}, height)
	return appendU32(key, ordinal)
}

// ScheduleGov queues attribute changes for a height. The ordinal keeps
// multiple schedules at one height in submission order.
func (v *View) ScheduleGov(height uint32, sched *ScheduledGov) error {
	var next uint32
	prefix := appendU32([]byte{prefixGovScheduled}, height)
	err := v.kv.ForEach(prefix, func(_, _ []byte) bool {
		next++
		return true
	})
	if err != nil {
		return err
	}
	return v.putRecord(govScheduledKey(height, next), sched)
}

// ForEachScheduledGov visits schedules queued for a height in order
func (v *View) ForEachScheduledGov(height uint32, visitor func(sched *ScheduledGov) bool) error {
	prefix := appendU32([]byte{prefixGovScheduled}, height)
	return v.kv.ForEach(prefix, func(_, value []byte) bool {
		var sched ScheduledGov
		if err := decodeRecord(value, &sched); err != nil {
			return true
		}
		return visitor(&sched)
	})
}

// ClearScheduledGov drops all schedules at a height after they are applied
func (v *View) ClearScheduledGov(height uint32) error {
	return v.deleteByPrefix(appendU32([]byte{prefixGovScheduled}, height))
}
