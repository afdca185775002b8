// Package harness runs fixture logs through the engine and checks the
// reconstruction at chosen points in time.
//
// # Fixture Format
//
//	name: sample
//	description: "What this fixture exercises"
//	events:
//	  - {node: users/1, graph: people, kind: created, ts: 10, payload: {name: ada}}
//	  - {node: users/1, graph: people, kind: deleted, ts: 20}
//	milestones:
//	  - at: 15                 # no checks: DefaultChecks
//	  - at: 20
//	    checks:
//	      - path: /g/people
//	        groupBy: node
//	        expect: {nodes: []}
//	      - path: /g/people
//	        countsOnly: true
//	        expect: {total: 0}
//
// Unknown fields are rejected.
//
// # What Is Checked
//
// For every check at every milestone:
//   - the engine result equals the Oracle result
//   - running the query again yields the same result
//   - the optional expect clause holds
//
// For every distinct path of a milestone, the countsOnly total equals the
// number of grouped nodes.
//
// # Golden Snapshots
//
// RunWithGolden compares the engine output of every check against
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
