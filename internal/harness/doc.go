// Package harness runs scripted match scenarios against a real session and
// checks the resulting event log and state.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: straight_sets
//	description: "What this scenario validates"
//	our_side: home
//	steps:
//	  - add: SET_START
//	    payload: { set_number: 1 }
//	  - add: POINT_US
//	    payload: { reason: attack }
//	    repeat: 25
//	  - undo: true
//	  - add: POINT_US
//	    expect: { status: rejected, reason: match_finished }
//	  - substitute:
//	      - { out: p2, in: b1 }
//	  - quick_return: p2
//	assertions:
//	  - type: event_count
//	    event_type: SET_END
//	    count: 3
//	  - type: final_state
//	    expect: { sets_won_home: 3, substitutions.count: 0 }
//
// A step without an expect clause must be applied.
//
// # Assertion Types
//
//   - event_contains: an event of a type whose payload contains the given fields
//   - event_order: first occurrences of event types appear in order
//   - event_count: an event type appears exactly N times
//   - final_state: dotted state paths have the given values
//   - replay: the final log replays deterministically to the same score
//   - persisted: the store holds exactly the session's log
//
// # Deterministic Testing
//
// Every scenario runs with sequential event ids, a stepping clock and a
// fresh in-memory database, so identical scenarios produce identical logs
// and golden snapshots.
package harness
